package rest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/catalogdesk/internal/auth"
	"github.com/abgdnv/catalogdesk/internal/notify"
	"github.com/abgdnv/catalogdesk/internal/service"
	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/abgdnv/catalogdesk/internal/view"
	pkgauth "github.com/abgdnv/catalogdesk/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}

// failingSlot stores values in memory but reports every write as failed.
type failingSlot struct {
	*store.MemorySlot
}

func (failingSlot) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type MockLogin struct {
	mock.Mock
}

func (m *MockLogin) Login(ctx context.Context, c auth.Credentials) (auth.Session, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(auth.Session), args.Error(1)
}

type testEnv struct {
	router http.Handler
	store  *store.RecordStore
	token  string
}

func newTestEnv(t *testing.T, slot store.Slot, products []store.Product) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	rs := store.NewRecordStore(slot, "products", logger)
	rs.LoadInitial(context.Background())
	if products != nil {
		_ = rs.ReplaceAll(context.Background(), products)
	}

	v, err := view.New(5, "en")
	require.NoError(t, err)
	sessions, err := pkgauth.NewSessions("0123456789abcdef0123456789abcdef", "catalogdesk", time.Hour)
	require.NoError(t, err)
	authn := auth.NewAuthenticator("user@example.com", "password", sessions, logger)
	gw := service.NewGateway(rs, service.NewTimestampIDs(time.Now), notify.Discard{}, logger)

	h := NewHandler(Deps{Catalog: rs, View: v, Gateway: gw, Auth: authn, Verifier: sessions}, logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	token, _, err := sessions.Issue("user@example.com")
	require.NoError(t, err)
	return &testEnv{router: r, store: rs, token: token}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func Test_API_Login(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), nil)

	testCases := []struct {
		name         string
		body         string
		expectedCode int
		expectedErr  string
		expectedVal  map[string]string
	}{
		{name: "Success", body: `{"email":"user@example.com","password":"password"}`, expectedCode: http.StatusOK},
		{name: "Wrong password", body: `{"email":"user@example.com","password":"secret1"}`, expectedCode: http.StatusUnauthorized, expectedErr: "Incorrect email or password"},
		{name: "Malformed body", body: `{"email":`, expectedCode: http.StatusBadRequest, expectedErr: "Invalid request body"},
		{
			name:         "Validation",
			body:         `{"email":"nope","password":"123"}`,
			expectedCode: http.StatusBadRequest,
			expectedVal:  map[string]string{"email": "Invalid email address", "password": "Password must be at least 6 characters"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)

			require.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
			switch {
			case tc.expectedErr != "":
				assert.Equal(t, tc.expectedErr, decode[ErrorResponse](t, rr).Error)
			case tc.expectedVal != nil:
				assert.Equal(t, tc.expectedVal, decode[ValidationErrorResponse](t, rr).ValidationErrors)
			default:
				session := decode[auth.Session](t, rr)
				assert.NotEmpty(t, session.Token)
				assert.True(t, session.ExpiresAt.After(time.Now()))
			}
		})
	}
}

func Test_API_Login_InternalError(t *testing.T) {
	login := new(MockLogin)
	creds := auth.Credentials{Email: "user@example.com", Password: "password"}
	login.On("Login", mock.Anything, creds).Return(auth.Session{}, errors.New("signer offline"))

	h := NewHandler(Deps{Auth: login}, slog.New(slog.DiscardHandler))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"user@example.com","password":"password"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong", decode[ErrorResponse](t, rr).Error)
	login.AssertExpectations(t)
}

func Test_API_RequiresSession(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), nil)

	for _, header := range []string{"", "Bearer ", "Bearer garbage", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
	}

	rr := env.do(t, http.MethodGet, "/api/v1/auth/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"authenticated":true,"subject":"user@example.com"}`, rr.Body.String())
}

func Test_API_Public(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"categories":["Hygiene","Food","Electronics","Clothing","Other"]}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func Test_API_List(t *testing.T) {
	products := []store.Product{
		{ID: "2", Name: "Banana", Category: "Food"},
		{ID: "1", Name: "Apple", Category: "Food"},
		{ID: "10", Name: "Soap", Category: "Hygiene"},
		{ID: "4", Name: "Shirt", Category: "Clothing"},
		{ID: "5", Name: "Phone", Category: "Electronics"},
		{ID: "6", Name: "Rice", Category: "Food"},
		{ID: "7", Name: "Bread", Category: "Food"},
	}
	env := newTestEnv(t, store.NewMemorySlot(), products)

	testCases := []struct {
		name        string
		query       string
		expectedIDs []string
		page        int
		totalPages  int
		sort        view.Sort
	}{
		{name: "default is insertion order page 1", query: "", expectedIDs: []string{"2", "1", "10", "4", "5"}, page: 1, totalPages: 2, sort: view.Sort{Direction: view.Asc}},
		{name: "page 2 holds the rest", query: "?page=2", expectedIDs: []string{"6", "7"}, page: 2, totalPages: 2, sort: view.Sort{Direction: view.Asc}},
		{name: "stale page is empty", query: "?page=3", expectedIDs: []string{}, page: 3, totalPages: 2, sort: view.Sort{Direction: view.Asc}},
		{name: "page below one reads as one", query: "?page=-4", expectedIDs: []string{"2", "1", "10", "4", "5"}, page: 1, totalPages: 2, sort: view.Sort{Direction: view.Asc}},
		{name: "numeric id sort", query: "?sort=id&dir=asc", expectedIDs: []string{"1", "2", "4", "5", "6"}, page: 1, totalPages: 2, sort: view.Sort{Key: view.SortByID, Direction: view.Asc}},
		{name: "search by category", query: "?search=FOOD&sort=name", expectedIDs: []string{"1", "2", "7", "6"}, page: 1, totalPages: 1, sort: view.Sort{Key: view.SortByName, Direction: view.Asc}},
		{name: "toggle active ascending key", query: "?sort=name&dir=asc&toggle=name&search=food", expectedIDs: []string{"6", "7", "2", "1"}, page: 1, totalPages: 1, sort: view.Sort{Key: view.SortByName, Direction: view.Desc}},
		{name: "toggle new key starts ascending", query: "?sort=name&dir=desc&toggle=id&search=food", expectedIDs: []string{"1", "2", "6", "7"}, page: 1, totalPages: 1, sort: view.Sort{Key: view.SortByID, Direction: view.Asc}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/v1/products"+tc.query, "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			resp := decode[ListResponse](t, rr)
			got := make([]string, 0, len(resp.Items))
			for _, p := range resp.Items {
				got = append(got, p.ID)
			}
			assert.Equal(t, tc.expectedIDs, got)
			assert.Equal(t, tc.page, resp.Number)
			assert.Equal(t, tc.totalPages, resp.TotalPages)
			assert.Equal(t, 5, resp.PageSize)
			assert.Equal(t, tc.sort, resp.Sort)
		})
	}
}

func Test_API_List_BadQuery(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), nil)
	for _, q := range []string{"?sort=price", "?dir=sideways", "?page=abc", "?toggle=weight"} {
		rr := env.do(t, http.MethodGet, "/api/v1/products"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func Test_API_CreateAndUpdate(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), []store.Product{{ID: "1", Name: "Shampoo", Category: "Hygiene"}})

	rr := env.do(t, http.MethodPost, "/api/v1/products", `{"name":"Rice","category":"Food","description":"white"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[MutationResponse](t, rr)
	assert.Equal(t, "Product added successfully!", created.Message)
	assert.NotEqual(t, "1", created.Product.ID)
	assert.Len(t, env.store.CurrentSnapshot(), 2)

	rr = env.do(t, http.MethodGet, "/api/v1/products/"+created.Product.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.Product, decode[store.Product](t, rr))

	rr = env.do(t, http.MethodPut, "/api/v1/products/1", `{"id":"999","name":"Shampoo+","category":"Hygiene"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[MutationResponse](t, rr)
	assert.Equal(t, "Product updated successfully!", updated.Message)
	assert.Equal(t, store.Product{ID: "1", Name: "Shampoo+", Category: "Hygiene"}, updated.Product)
	assert.Equal(t, updated.Product, env.store.CurrentSnapshot()[0])
}

func Test_API_MutationErrors(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), []store.Product{{ID: "1", Name: "Shampoo", Category: "Hygiene"}})

	rr := env.do(t, http.MethodPost, "/api/v1/products", `{"name":" ","category":""}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t,
		map[string]string{"name": "Product name is required", "category": "Category is required"},
		decode[ValidationErrorResponse](t, rr).ValidationErrors)

	rr = env.do(t, http.MethodPost, "/api/v1/products", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/v1/products/404", `{"name":"Ghost","category":"Other"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Product with ID 404 not found", decode[ErrorResponse](t, rr).Error)

	rr = env.do(t, http.MethodGet, "/api/v1/products/404", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Len(t, env.store.CurrentSnapshot(), 1)
}

func Test_API_Delete(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), []store.Product{{ID: "1", Name: "Shampoo", Category: "Hygiene"}})

	rr := env.do(t, http.MethodDelete, "/api/v1/products/1", "")
	require.Equal(t, http.StatusConflict, rr.Code, "confirm requires a request")

	rr = env.do(t, http.MethodPost, "/api/v1/products/1/deletion", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Shampoo", decode[store.Product](t, rr).Name)

	rr = env.do(t, http.MethodDelete, "/api/v1/products/1/deletion", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/v1/products/1", "")
	require.Equal(t, http.StatusConflict, rr.Code, "cancelled request cannot be confirmed")

	env.do(t, http.MethodPost, "/api/v1/products/1/deletion", "")
	rr = env.do(t, http.MethodDelete, "/api/v1/products/1", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, env.store.CurrentSnapshot())

	rr = env.do(t, http.MethodDelete, "/api/v1/products/1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code, "deleting an absent product is a no-op")

	rr = env.do(t, http.MethodPost, "/api/v1/products/1/deletion", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_API_StorageWriteWarning(t *testing.T) {
	env := newTestEnv(t, failingSlot{MemorySlot: store.NewMemorySlot()}, nil)

	rr := env.do(t, http.MethodPost, "/api/v1/products", `{"name":"Rice","category":"Food"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, storageWarning, rr.Header().Get("Warning"))
	assert.Len(t, env.store.CurrentSnapshot(), 4)
}

func Test_API_Export(t *testing.T) {
	env := newTestEnv(t, store.NewMemorySlot(), []store.Product{
		{ID: "2", Name: "Banana", Category: "Food"},
		{ID: "1", Name: "Apple, green", Category: "Food", Description: "sour"},
	})

	rr := env.do(t, http.MethodGet, "/api/v1/products/export?sort=id&search=apple", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="products.csv"`, rr.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Category", "Description"},
		{"2", "Banana", "Food", ""},
		{"1", "Apple, green", "Food", "sour"},
	}, records, "export ignores the table state and keeps store order")
}
