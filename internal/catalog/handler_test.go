package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/rbac"
	"github.com/greengrocer/storefront/internal/store/memory"
)

type handlerFixture struct {
	router    http.Handler
	service   *catalog.Service
	admin     string
	wholesale string
	retail    string
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	tokens := auth.NewTokenManager("catalog-test", time.Hour)
	issue := func(name string, role auth.Role) string {
		u, err := store.CreateUser(ctx, auth.User{Username: name, Email: name + "@example.com", Role: role})
		require.NoError(t, err)
		raw, _, err := tokens.Issue(u)
		require.NoError(t, err)
		return "Bearer " + raw
	}

	svc := catalog.NewService(store, nil, nil)
	mw := rbac.Middleware{Users: store, Tokens: tokens}
	r := chi.NewRouter()
	r.Use(mw.Authenticate)
	r.Route("/api", catalog.NewHandler(nil, svc, mw, nil).MountRoutes)
	return handlerFixture{
		router:    r,
		service:   svc,
		admin:     issue("admin", auth.RoleAdmin),
		wholesale: issue("trade", auth.RoleWholesale),
		retail:    issue("shopper", auth.RoleRetail),
	}
}

func (f handlerFixture) do(t *testing.T, method, path, body, authz string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	body := `{"name":"Herbs"}`

	rr := f.do(t, http.MethodPost, "/api/categories", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/categories", body, f.retail)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/categories", body, f.admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created catalog.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Herbs", created.Name)

	rr = f.do(t, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []catalog.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestProductEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	rr := f.do(t, http.MethodPost, "/api/categories", `{"name":"Dairy"}`, f.admin)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/products",
		`{"name":"Premium Milk","categoryId":1,"retailPrice":34.99,"wholesalePrice":28.99,"originalPrice":39.99,"unit":"case"}`, f.admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var product catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))

	rr = f.do(t, http.MethodGet, "/api/products", "", f.wholesale)
	require.Equal(t, http.StatusOK, rr.Code)
	var views []catalog.ProductView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 28.99, views[0].UnitPrice)
	assert.Equal(t, 28, views[0].DiscountPercent)

	rr = f.do(t, http.MethodGet, "/api/products/1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var anon catalog.ProductView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &anon))
	assert.Equal(t, 34.99, anon.UnitPrice)

	rr = f.do(t, http.MethodPut, "/api/products/1", `{"stock":12}`, f.admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"stock":12`)

	rr = f.do(t, http.MethodDelete, "/api/products/1", "", f.admin)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/products/1", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"Product not found"}`, rr.Body.String())
}

func TestProductRequestErrors(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodGet, "/api/products?categoryId=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/products/zero", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/products", `{"name":`, f.admin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/products", `{"name":"X","retailPrice":"cheap"}`, f.admin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "retailPrice")
}
