package rest

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/abgdnv/catalogdesk/internal/export"
	"github.com/abgdnv/catalogdesk/internal/notify"
	"github.com/abgdnv/catalogdesk/internal/service"
	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/abgdnv/catalogdesk/internal/view"
	"github.com/abgdnv/catalogdesk/pkg/web"
)

// ListResponse is one page of the product table with the state that produced it.
type ListResponse struct {
	view.Page
	Search string    `json:"search"`
	Sort   view.Sort `json:"sort"`
}

// MutationResponse carries the saved product and the user facing message.
type MutationResponse struct {
	Product store.Product `json:"product"`
	Message string        `json:"message"`
}

// List renders the filtered, sorted and paginated product table.
// Query: search, sort, dir, page and toggle. When toggle names a key, the
// sort given by sort and dir is toggled on it.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	key, err := view.ParseSortKey(q.Get("sort"))
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := view.ParseDirection(q.Get("dir"))
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	page, ok := web.ParseOptionalGte(r, w, h.logger, "page", 1, math.MinInt32)
	if !ok {
		return
	}

	state := view.State{Search: q.Get("search"), Sort: view.Sort{Key: key, Direction: dir}, Page: page}
	if q.Has("toggle") {
		toggle, err := view.ParseSortKey(q.Get("toggle"))
		if err != nil {
			web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		state = state.ToggleSort(toggle)
	}

	result := h.view.Render(h.catalog.CurrentSnapshot(), state)
	h.metrics.IncrementViewRenders()
	h.logger.DebugContext(r.Context(), "Rendered product table", "search", state.Search, "sort", state.Sort.Key, "dir", state.Sort.Direction, "page", result.Number, "matching", result.TotalMatching)
	web.RespondJSON(w, h.logger, http.StatusOK, ListResponse{Page: result, Search: state.Search, Sort: state.Sort})
}

// FindByID returns a single product.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	product, found := h.catalog.Find(id)
	if !found {
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, product)
}

// Create adds a product at the end of the collection.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form service.FormValues
	if !web.DecodeJSON(w, r, h.logger, &form) {
		return
	}
	created, err := h.gateway.Submit(r.Context(), form, nil)
	if h.respondMutationError(w, r, err, "") {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusCreated, MutationResponse{Product: created, Message: notify.MessageAdded})
}

// Update replaces the fields of an existing product, keeping its id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var form service.FormValues
	if !web.DecodeJSON(w, r, h.logger, &form) {
		return
	}
	updated, err := h.gateway.Submit(r.Context(), form, &store.Product{ID: id})
	if h.respondMutationError(w, r, err, id) {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, MutationResponse{Product: updated, Message: notify.MessageUpdated})
}

// RequestDelete opens a deletion and returns the product to confirm.
func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	product, found := h.gateway.RequestDelete(r.Context(), id)
	if !found {
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, product)
}

// CancelDelete drops a pending deletion.
func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.gateway.CancelDelete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmDelete removes a product after its deletion was requested.
// Deleting a product that no longer exists succeeds.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	err := h.gateway.ConfirmDelete(r.Context(), id)
	if h.respondMutationError(w, r, err, id) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads the whole collection as CSV in store order.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	products := h.catalog.CurrentSnapshot()
	if err := export.WriteCSV(&buf, products); err != nil {
		h.logger.ErrorContext(r.Context(), "Error exporting products", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to export products")
		return
	}
	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	h.logger.DebugContext(r.Context(), "Exported products", "count", len(products))
}
