// Package auth issues and verifies the HMAC signed session tokens handed out after login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var ErrMissingSubject = errors.New("session token has no subject")

// Verifier validates a session token and returns the subject it was issued to.
type Verifier interface {
	Verify(ctx context.Context, tokenString string) (string, error)
}

// Sessions signs and verifies session tokens with a shared HS256 secret.
type Sessions struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a new Sessions instance.
func NewSessions(secret, issuer string, ttl time.Duration) (*Sessions, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(secret))
	}
	return &Sessions{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for subject and returns it with its expiry.
func (s *Sessions) Issue(subject string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(subject).
		IssuedAt(issuedAt).
		Expiration(expiresAt).
		JwtID(uuid.NewString()).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build session token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return string(signed), expiresAt, nil
}

// Verify checks the signature, expiry and issuer of the token.
func (s *Sessions) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), s.key),
		// Standard validation checks - expiration, not before, etc.
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}
