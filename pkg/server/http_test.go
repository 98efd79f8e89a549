package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChiRouter_CORS(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{name: "allowed origin", origins: []string{"http://admin.local"}, origin: "http://admin.local", wantHeader: "http://admin.local"},
		{name: "foreign origin", origins: []string{"http://admin.local"}, origin: "http://evil.local", wantHeader: ""},
		{name: "cors disabled", origins: nil, origin: "http://admin.local", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := NewChiRouter(logger, tt.origins...)
			mux.Delete("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/products/abc", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantHeader, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestNewChiRouter_SetsRequestID(t *testing.T) {
	mux := NewChiRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestNewHTTPServer(t *testing.T) {
	cfg := HTTPConfig{Port: 8081, MaxHeaderBytes: 1024, ReadTimeout: 1, WriteTimeout: 2, IdleTimeout: 3, ReadHeader: 4}
	srv := NewHTTPServer(cfg, http.NotFoundHandler(), "test")

	assert.Equal(t, ":8081", srv.Addr)
	assert.Equal(t, 1024, srv.MaxHeaderBytes)
	assert.Equal(t, cfg.ReadHeader, srv.ReadHeaderTimeout)
}
