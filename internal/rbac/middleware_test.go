package rbac_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/rbac"
	"github.com/greengrocer/storefront/internal/shared"
)

type stubUsers map[int64]auth.User

func (s stubUsers) GetUser(_ context.Context, id int64) (auth.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	if id == 500 {
		return auth.User{}, errors.New("db down")
	}
	return auth.User{}, auth.ErrUserNotFound
}

var (
	admin  = auth.User{ID: 1, Username: "admin", Role: auth.RoleAdmin}
	retail = auth.User{ID: 2, Username: "retail", Role: auth.RoleRetail}
)

func newMiddleware() (rbac.Middleware, *auth.TokenManager) {
	tokens := auth.NewTokenManager("k", time.Hour)
	return rbac.Middleware{Users: stubUsers{1: admin, 2: retail}, Tokens: tokens}, tokens
}

func okHandler(t *testing.T, want *auth.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := rbac.PrincipalFromContext(r.Context())
		if want != nil {
			assert.True(t, ok)
			assert.Equal(t, want.ID, user.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func bearer(t *testing.T, tokens *auth.TokenManager, u auth.User) string {
	t.Helper()
	raw, _, err := tokens.Issue(u)
	require.NoError(t, err)
	return "Bearer " + raw
}

func withSessionUser(t *testing.T, req *http.Request, userID string) *http.Request {
	t.Helper()
	sm := shared.NewSessionManager(shared.NewMemorySessionStore(), "s", "secret", time.Hour, false)
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser(userID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireAuthenticated(t *testing.T) {
	mw, tokens := newMiddleware()
	h := mw.Authenticate(mw.RequireAuthenticated(okHandler(t, &retail)))

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, tokens, retail))
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = withSessionUser(t, httptest.NewRequest(http.MethodGet, "/", nil), "2")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}

func TestRequireAdmin(t *testing.T) {
	mw, tokens := newMiddleware()
	h := mw.Authenticate(mw.RequireAdmin(okHandler(t, &admin)))

	assert.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, tokens, retail))
	rr := serve(h, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, tokens, admin))
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestRoleIsReadFromStoreNotToken(t *testing.T) {
	mw, tokens := newMiddleware()
	h := mw.Authenticate(mw.RequireAdmin(okHandler(t, nil)))

	forged := auth.User{ID: 2, Role: auth.RoleAdmin}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, tokens, forged))
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)
}

func TestDeletedUserIsAnonymous(t *testing.T) {
	mw, _ := newMiddleware()
	h := mw.Authenticate(mw.RequireAuthenticated(okHandler(t, nil)))

	req := withSessionUser(t, httptest.NewRequest(http.MethodGet, "/", nil), "99")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req = withSessionUser(t, httptest.NewRequest(http.MethodGet, "/", nil), "500")
	assert.Equal(t, http.StatusInternalServerError, serve(h, req).Code)
}
