package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/app"
	"github.com/greengrocer/storefront/internal/chatbot"
	"github.com/greengrocer/storefront/internal/observability"
	"github.com/greengrocer/storefront/internal/seed"
	_ "github.com/greengrocer/storefront/testing"
)

type cannedAsker struct{}

func (cannedAsker) Ask(_ context.Context, question string, _ []chatbot.Message) (string, error) {
	return "You asked: " + question, nil
}

func testConfig() *app.Config {
	return &app.Config{
		AppEnv:            "test",
		AppRequestTimeout: 5 * time.Second,
		StoreDriver:       app.DriverMemory,
		SessionSecret:     "integration-secret",
		SessionTTL:        time.Hour,
		TokenTTL:          time.Hour,
		CatalogCacheTTL:   time.Minute,
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	stores := app.MemoryStores()
	handler, services := app.Assemble(app.Deps{
		Config:  testConfig(),
		Stores:  stores,
		Metrics: observability.NewMetrics(),
		Chatbot: cannedAsker{},
	})
	_, err := seed.Run(context.Background(), services.Catalog, stores.Users, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

type session struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newSession(t *testing.T, srv *httptest.Server) *session {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &session{t: t, base: srv.URL, client: &http.Client{Jar: jar}}
}

func (s *session) do(method, path, body string, header ...string) (int, string) {
	s.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.base+path, rd)
	require.NoError(s.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, string(raw)
}

func (s *session) login(username, password string) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/login", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, code, body)
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestHealthAndFallbacks(t *testing.T) {
	srv := newServer(t)
	anon := newSession(t, srv)

	code, body := anon.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = anon.do(http.MethodGet, "/jobs/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, body)

	code, body = anon.do(http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"message":"Not found"}`, body)

	code, _ = anon.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestAnonymousAccess(t *testing.T) {
	srv := newServer(t)
	anon := newSession(t, srv)

	code, body := anon.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, code)
	products := decode[[]map[string]any](t, body)
	require.Len(t, products, 4)
	assert.Equal(t, "Organic Apples", products[0]["name"])
	assert.Equal(t, 32.99, products[0]["unitPrice"])

	for _, path := range []string{"/api/cart", "/api/orders", "/api/user", "/api/admin/dashboard", "/api/users"} {
		code, _ := anon.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

func TestCheckoutFlow(t *testing.T) {
	srv := newServer(t)

	trade := newSession(t, srv)
	trade.login("wholesale", "wholesale123")

	code, body := trade.do(http.MethodGet, "/api/user", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "wholesale", decode[map[string]any](t, body)["role"])

	code, body = trade.do(http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 24.99, decode[map[string]any](t, body)["unitPrice"])

	code, body = trade.do(http.MethodPost, "/api/cart", `{"productId":1,"quantity":2,"unitType":"case"}`)
	require.Equal(t, http.StatusCreated, code, body)
	added := decode[struct {
		Quantity int            `json:"quantity"`
		Product  map[string]any `json:"product"`
	}](t, body)
	assert.Equal(t, 2, added.Quantity)
	assert.Equal(t, 24.99, added.Product["unitPrice"])

	code, body = trade.do(http.MethodPost, "/api/cart", `{"productId":1,"quantity":10000,"unitType":"case"}`)
	assert.Equal(t, http.StatusBadRequest, code, body)
	assert.Contains(t, body, `"field":"quantity"`)

	code, body = trade.do(http.MethodGet, "/api/cart/summary", "")
	require.Equal(t, http.StatusOK, code)
	summary := decode[struct {
		Items  []map[string]any   `json:"items"`
		Totals map[string]float64 `json:"totals"`
	}](t, body)
	assert.Len(t, summary.Items, 1)
	assert.Equal(t, 49.98, summary.Totals["subtotal"])
	assert.Equal(t, 10.0, summary.Totals["shipping"])

	code, body = trade.do(http.MethodPost, "/api/orders", `{"shippingAddress":"123 Business St"}`, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, code, body)
	order := decode[map[string]any](t, body)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, 49.98, order["totalAmount"])

	code, _ = trade.do(http.MethodPost, "/api/orders", `{}`, "Idempotency-Key", "checkout-1")
	assert.Equal(t, http.StatusConflict, code)

	code, body = trade.do(http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)

	code, body = trade.do(http.MethodPost, "/api/orders", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"message":"Cart is empty"}`, body)

	code, _ = trade.do(http.MethodGet, "/api/admin/dashboard", "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = trade.do(http.MethodPut, "/api/orders/1", `{"status":"processing"}`)
	assert.Equal(t, http.StatusForbidden, code)

	shopper := newSession(t, srv)
	shopper.login("retail", "retail123")
	code, _ = shopper.do(http.MethodGet, "/api/orders/1", "")
	assert.Equal(t, http.StatusForbidden, code)

	admin := newSession(t, srv)
	admin.login("admin", "admin123")

	code, body = admin.do(http.MethodPut, "/api/orders/1", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "Cannot change order status from pending to shipped")

	code, body = admin.do(http.MethodPut, "/api/orders/1", `{"status":"processing"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 49.98, decode[map[string]any](t, body)["totalAmount"])

	code, body = admin.do(http.MethodGet, "/api/admin/dashboard", "")
	require.Equal(t, http.StatusOK, code)
	dash := decode[map[string]any](t, body)
	assert.Equal(t, 4.0, dash["totalProducts"])
	assert.Equal(t, 1.0, dash["totalOrders"])
	assert.Equal(t, 3.0, dash["totalUsers"])
	assert.Equal(t, 49.98, dash["totalRevenue"])
	assert.Equal(t, map[string]any{"pending": 0.0, "processing": 1.0, "shipped": 0.0, "delivered": 0.0, "cancelled": 0.0}, dash["ordersByStatus"])

	code, body = admin.do(http.MethodGet, "/api/users/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"total":3,"admin":1,"wholesale":1,"retail":1}`, body)

	code, _ = trade.do(http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = trade.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBearerTokenAndChatbot(t *testing.T) {
	srv := newServer(t)
	anon := newSession(t, srv)

	code, body := anon.do(http.MethodPost, "/api/token", `{"username":"retail","password":"retail123"}`)
	require.Equal(t, http.StatusOK, code, body)
	token, _ := decode[map[string]any](t, body)["token"].(string)
	require.NotEmpty(t, token)

	code, _ = anon.do(http.MethodGet, "/api/cart", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)

	code, body = anon.do(http.MethodPost, "/api/chatbot", `{"question":"Do you deliver?"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"response":"You asked: Do you deliver?"}`, body)
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newServer(t)
	anon := newSession(t, srv)

	var last int
	for range 11 {
		last, _ = anon.do(http.MethodPost, "/api/login", `{"username":"retail","password":"wrong"}`)
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	code, _ := anon.do(http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, code)
}
