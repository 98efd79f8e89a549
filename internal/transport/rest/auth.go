package rest

import (
	"errors"
	"net/http"

	"github.com/abgdnv/catalogdesk/internal/auth"
	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/abgdnv/catalogdesk/pkg/web"
)

// Login checks the credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !web.DecodeJSON(w, r, h.logger, &creds) {
		return
	}

	session, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		var validationErr *catalogerrors.ValidationError
		switch {
		case errors.As(err, &validationErr):
			web.RespondValidation(w, h.logger, validationErr.Fields)
		case errors.Is(err, auth.ErrInvalidCredentials):
			web.RespondError(w, h.logger, http.StatusUnauthorized, "Incorrect email or password")
		default:
			h.logger.ErrorContext(r.Context(), "Login failed", "error", err)
			web.RespondError(w, h.logger, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, session)
}

// Session reports the subject of the presented session token.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	subject, _ := web.GetSubject(r.Context())
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]any{
		"authenticated": true,
		"subject":       subject,
	})
}
