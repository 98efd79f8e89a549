// Package rest exposes the catalog dashboard over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalogdesk/internal/auth"
	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/abgdnv/catalogdesk/internal/metrics"
	"github.com/abgdnv/catalogdesk/internal/service"
	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/abgdnv/catalogdesk/internal/view"
	"github.com/abgdnv/catalogdesk/pkg/web"
	"github.com/go-chi/chi/v5"
)

// storageWarning is sent with successful mutations whose write-through failed.
const storageWarning = `199 catalogdesk "change applied but not persisted"`

// Catalog reads the current products.
type Catalog interface {
	CurrentSnapshot() []store.Product
	Find(id string) (store.Product, bool)
}

// Mutations is the mutation gateway as used by the handlers.
type Mutations interface {
	Submit(ctx context.Context, form service.FormValues, editing *store.Product) (store.Product, error)
	RequestDelete(ctx context.Context, id string) (store.Product, bool)
	CancelDelete(ctx context.Context, id string) bool
	ConfirmDelete(ctx context.Context, id string) error
}

type Login interface {
	Login(ctx context.Context, c auth.Credentials) (auth.Session, error)
}

// Deps are the collaborators of Handler. Metrics may be nil.
type Deps struct {
	Catalog  Catalog
	View     *view.View
	Gateway  Mutations
	Auth     Login
	Verifier web.TokenVerifier
	Metrics  *metrics.Metrics
}

type Handler struct {
	catalog  Catalog
	view     *view.View
	gateway  Mutations
	auth     Login
	verifier web.TokenVerifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  deps.Catalog,
		view:     deps.View,
		gateway:  deps.Gateway,
		auth:     deps.Auth,
		verifier: deps.Verifier,
		metrics:  deps.Metrics,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the dashboard API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Get("/categories", h.Categories)

		r.Group(func(r chi.Router) {
			r.Use(web.AuthMiddleware(h.verifier, h.logger))
			r.Get("/auth/session", h.Session)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Get("/export", h.Export)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.FindByID)
					r.Put("/", h.Update)
					r.Delete("/", h.ConfirmDelete)
					r.Post("/deletion", h.RequestDelete)
					r.Delete("/deletion", h.CancelDelete)
				})
			})
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Categories lists the categories offered by the product form.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string][]string{"categories": service.Categories})
}

// respondMutationError maps gateway errors to responses. It returns false when
// err only reports a lost write and the caller should still answer with success.
func (h *Handler) respondMutationError(w http.ResponseWriter, r *http.Request, err error, id string) bool {
	var validationErr *catalogerrors.ValidationError
	switch {
	case err == nil:
		return false
	case errors.As(err, &validationErr):
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondValidation(w, h.logger, validationErr.Fields)
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
	case errors.Is(err, catalogerrors.ErrDeleteNotRequested):
		web.RespondError(w, h.logger, http.StatusConflict, fmt.Sprintf("Deletion of product %s was not requested", id))
	case errors.Is(err, catalogerrors.ErrStorageWrite):
		w.Header().Set("Warning", storageWarning)
		return false
	default:
		h.logger.ErrorContext(r.Context(), "Error mutating product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Something went wrong")
	}
	return true
}
