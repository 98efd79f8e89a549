// Package auth implements the dashboard login gate: a fixed credential check
// that hands out a signed session token.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Session is returned after a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issuer signs session tokens for a subject.
type Issuer interface {
	Issue(subject string) (string, time.Time, error)
}

type Authenticator struct {
	email    string
	password string
	issuer   Issuer
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthenticator(email, password string, issuer Issuer, logger *slog.Logger) *Authenticator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &Authenticator{
		email:    email,
		password: password,
		issuer:   issuer,
		validate: v,
		logger:   logger.With("component", "auth"),
	}
}

var messages = map[string]string{
	"email.required":    "Email is required",
	"email.email":       "Invalid email address",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

// Login validates the form, checks the credentials and issues a session.
func (a *Authenticator) Login(ctx context.Context, c Credentials) (Session, error) {
	c.Email = strings.TrimSpace(c.Email)
	if err := a.validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return Session{}, err
		}
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			msg, ok := messages[fieldErr.Field()+"."+fieldErr.Tag()]
			if !ok {
				msg = "failed on rule: " + fieldErr.Tag()
			}
			fields[fieldErr.Field()] = msg
		}
		return Session{}, catalogerrors.NewValidationError(fields)
	}

	emailOK := subtle.ConstantTimeCompare([]byte(c.Email), []byte(a.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(a.password)) == 1
	if !emailOK || !passwordOK {
		a.logger.WarnContext(ctx, "Rejected login", "email", c.Email)
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := a.issuer.Issue(c.Email)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to issue session", "error", err)
		return Session{}, err
	}
	a.logger.InfoContext(ctx, "User logged in", "email", c.Email)
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}
