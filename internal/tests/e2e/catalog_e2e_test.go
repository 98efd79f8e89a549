// Package e2e runs the catalog API end to end against PostgreSQL.
// The suite uses testcontainers-go for the database and testify/suite for the
// lifecycle. Every test starts from an empty slots table and a freshly built
// application, so seeding and reloads behave as they do on a real start.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/catalogdesk/internal/app"
	"github.com/abgdnv/catalogdesk/internal/config"
	"github.com/abgdnv/catalogdesk/internal/transport/rest"
	"github.com/abgdnv/catalogdesk/internal/store"
	pkgconfig "github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "CATALOG_SKIP_E2E_TESTS"

const productURL = "/api/v1/products"

type CatalogE2ESuite struct {
	suite.Suite
	ctx         context.Context
	logger      *slog.Logger
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	appCfg      *config.Config

	server  *httptest.Server
	cleanup func()
	token   string
}

func testConfig(databaseURL string) *config.Config {
	var cfg config.Config
	cfg.HTTPServer.Port = 8080
	cfg.HTTPServer.Timeout.Read = time.Minute
	cfg.HTTPServer.Timeout.Write = time.Minute
	cfg.HTTPServer.Timeout.Idle = time.Minute
	cfg.HTTPServer.Timeout.ReadHeader = time.Minute
	cfg.GRPC.Port = "0"
	cfg.Storage.Driver = pkgconfig.StorageDriverPostgres
	cfg.Storage.Database.URL = databaseURL
	cfg.Storage.Breaker = pkgconfig.CircuitBreakerConfig{Enabled: true, ConsecutiveFailures: 5, ErrorRatePercent: 50, OpenTimeout: time.Second}
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
	return &cfg
}

func (s *CatalogE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	// migrations are applied by the application itself; run them once here so SetupTest can truncate
	require.NoError(s.T(), store.Migrate(connStr))
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")

	s.appCfg = testConfig(connStr)
	require.NoError(s.T(), s.appCfg.Validate())
}

func (s *CatalogE2ESuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

func (s *CatalogE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE slots")
	require.NoError(s.T(), err, "Failed to truncate slots table")
	s.startApp()
}

func (s *CatalogE2ESuite) TearDownTest() {
	s.stopApp()
}

// startApp builds the application from the current database contents and logs in.
func (s *CatalogE2ESuite) startApp() {
	deps, cleanup, err := app.SetupDependencies(s.ctx, s.appCfg, s.logger)
	if err != nil {
		cleanup()
	}
	require.NoError(s.T(), err)
	s.cleanup = cleanup
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))

	body, code := s.doRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "user@example.com", "password": "password"})
	require.Equal(s.T(), http.StatusOK, code, string(body))
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(s.T(), json.Unmarshal(body, &session))
	s.token = session.Token
}

func (s *CatalogE2ESuite) stopApp() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

func (s *CatalogE2ESuite) restartApp() {
	s.stopApp()
	s.startApp()
}

func TestCatalogE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(CatalogE2ESuite))
}

func (s *CatalogE2ESuite) TestSeedOnEmptyDatabase() {
	page, code := s.list("")
	require.Equal(s.T(), http.StatusOK, code)

	assert.Equal(s.T(), 3, page.TotalMatching)
	assert.Equal(s.T(), 1, page.TotalPages)
	require.Len(s.T(), page.Items, 3)
	assert.Equal(s.T(), []string{"1", "2", "3"}, ids(page.Items))
	assert.Equal(s.T(), "Fabric softener", page.Items[0].Name)
}

func (s *CatalogE2ESuite) TestMutationsPersistAcrossRestart() {
	// create
	body, code := s.doRequest(http.MethodPost, productURL, map[string]string{"name": "Toothpaste", "category": "Hygiene", "description": "Mint"})
	require.Equal(s.T(), http.StatusCreated, code, string(body))
	var created rest.MutationResponse
	require.NoError(s.T(), json.Unmarshal(body, &created))

	// update a seeded product
	body, code = s.doRequest(http.MethodPut, productURL+"/2", map[string]string{"name": "Liquid soap", "category": "Hygiene", "description": "Gentle"})
	require.Equal(s.T(), http.StatusOK, code, string(body))

	// delete needs a request first
	_, code = s.doRequest(http.MethodDelete, productURL+"/1", nil)
	require.Equal(s.T(), http.StatusConflict, code)
	_, code = s.doRequest(http.MethodPost, productURL+"/1/deletion", nil)
	require.Equal(s.T(), http.StatusOK, code)
	_, code = s.doRequest(http.MethodDelete, productURL+"/1", nil)
	require.Equal(s.T(), http.StatusNoContent, code)

	s.restartApp()

	page, code := s.list("")
	require.Equal(s.T(), http.StatusOK, code)
	assert.Equal(s.T(), []string{"2", "3", created.Product.ID}, ids(page.Items))
	assert.Equal(s.T(), "Liquid soap", page.Items[0].Name)
	assert.Equal(s.T(), "Gentle", page.Items[0].Description)
}

func (s *CatalogE2ESuite) TestEmptyCollectionStaysEmpty() {
	for _, id := range []string{"1", "2", "3"} {
		_, code := s.doRequest(http.MethodPost, productURL+"/"+id+"/deletion", nil)
		require.Equal(s.T(), http.StatusOK, code)
		_, code = s.doRequest(http.MethodDelete, productURL+"/"+id, nil)
		require.Equal(s.T(), http.StatusNoContent, code)
	}

	s.restartApp()

	page, code := s.list("")
	require.Equal(s.T(), http.StatusOK, code)
	assert.Empty(s.T(), page.Items, "a deliberately emptied catalog is not reseeded")
	assert.Equal(s.T(), 1, page.TotalPages)
}

func (s *CatalogE2ESuite) TestSearchSortAndPaginate() {
	for i := range 4 {
		_, code := s.doRequest(http.MethodPost, productURL, map[string]string{
			"name":     fmt.Sprintf("Soap %d", i),
			"category": "Hygiene",
		})
		require.Equal(s.T(), http.StatusCreated, code)
	}

	page, code := s.list("?sort=name&dir=desc")
	require.Equal(s.T(), http.StatusOK, code)
	assert.Equal(s.T(), 7, page.TotalMatching)
	assert.Equal(s.T(), 2, page.TotalPages)
	require.Len(s.T(), page.Items, 5)
	assert.Equal(s.T(), "Soap 3", page.Items[0].Name)
	assert.True(s.T(), page.HasNext)

	page, code = s.list("?sort=name&dir=desc&page=2")
	require.Equal(s.T(), http.StatusOK, code)
	require.Len(s.T(), page.Items, 2)
	assert.Equal(s.T(), "Fabric soap", page.Items[1].Name)
	assert.False(s.T(), page.HasNext)

	page, code = s.list("?search=SOAP")
	require.Equal(s.T(), http.StatusOK, code)
	assert.Equal(s.T(), 5, page.TotalMatching)
}

func (s *CatalogE2ESuite) TestValidation() {
	body, code := s.doRequest(http.MethodPost, productURL, map[string]string{"name": "  ", "category": ""})
	require.Equal(s.T(), http.StatusBadRequest, code)

	var resp struct {
		ValidationErrors map[string]string `json:"validation_errors"`
	}
	require.NoError(s.T(), json.Unmarshal(body, &resp))
	assert.Equal(s.T(), "Product name is required", resp.ValidationErrors["name"])
	assert.Equal(s.T(), "Category is required", resp.ValidationErrors["category"])

	page, _ := s.list("")
	assert.Equal(s.T(), 3, page.TotalMatching, "nothing was stored")
}

func ids(products []store.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func (s *CatalogE2ESuite) list(query string) (rest.ListResponse, int) {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, productURL+query, nil)
	var page rest.ListResponse
	if code == http.StatusOK {
		require.NoError(s.T(), json.Unmarshal(body, &page), string(body))
	}
	return page, code
}

// doRequest sends an authenticated request and returns the body and status code.
func (s *CatalogE2ESuite) doRequest(method, path string, payload any) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return bodyBytes, resp.StatusCode
}
