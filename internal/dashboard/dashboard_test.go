package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/dashboard"
	"github.com/greengrocer/storefront/internal/orders"
	"github.com/greengrocer/storefront/internal/rbac"
)

type fakeRepo struct {
	products, users int
	stats           dashboard.OrderStats
	err             error
}

func (f fakeRepo) CountProducts(context.Context) (int, error) { return f.products, nil }
func (f fakeRepo) CountUsers(context.Context) (int, error)    { return f.users, nil }
func (f fakeRepo) OrderStats(context.Context) (dashboard.OrderStats, error) {
	return f.stats, f.err
}

func TestSummaryFillsEveryStatus(t *testing.T) {
	svc := dashboard.NewService(fakeRepo{
		products: 4,
		users:    3,
		stats: dashboard.OrderStats{
			Total:    3,
			Revenue:  150.5,
			ByStatus: map[orders.Status]int{orders.StatusPending: 2, orders.StatusCancelled: 1},
		},
	})

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalProducts)
	assert.Equal(t, 3, got.TotalUsers)
	assert.Equal(t, 3, got.TotalOrders)
	assert.Equal(t, 150.5, got.TotalRevenue)
	assert.Equal(t, map[orders.Status]int{
		orders.StatusPending:    2,
		orders.StatusProcessing: 0,
		orders.StatusShipped:    0,
		orders.StatusDelivered:  0,
		orders.StatusCancelled:  1,
	}, got.OrdersByStatus)
}

func TestSummaryPropagatesErrors(t *testing.T) {
	svc := dashboard.NewService(fakeRepo{err: errors.New("timeout")})
	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order stats")
}

type users map[int64]auth.User

func (u users) GetUser(_ context.Context, id int64) (auth.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return auth.User{}, auth.ErrUserNotFound
}

func TestDashboardHandler(t *testing.T) {
	tokens := auth.NewTokenManager("dash", time.Hour)
	admin := auth.User{ID: 1, Role: auth.RoleAdmin}
	shopper := auth.User{ID: 2, Role: auth.RoleRetail}
	mw := rbac.Middleware{Users: users{1: admin, 2: shopper}, Tokens: tokens}

	serve := func(repo fakeRepo, who *auth.User) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Use(mw.Authenticate)
		r.Route("/api/admin", dashboard.NewHandler(nil, dashboard.NewService(repo), mw).MountRoutes)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		if who != nil {
			raw, _, err := tokens.Issue(*who)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+raw)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := serve(fakeRepo{products: 2}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(fakeRepo{products: 2}, &shopper)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(fakeRepo{products: 2, users: 1}, &admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalProducts":2,"totalOrders":0,"totalUsers":1,"totalRevenue":0,
		"ordersByStatus":{"pending":0,"processing":0,"shipped":0,"delivered":0,"cancelled":0}}`, rr.Body.String())

	rr = serve(fakeRepo{err: errors.New("boom")}, &admin)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Error fetching dashboard"}`, rr.Body.String())
}
