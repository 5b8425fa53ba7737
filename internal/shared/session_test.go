package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripSession(t *testing.T, sm *SessionManager, cookie *http.Cookie) (*Session, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	return sess, httptest.NewRecorder()
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testSessionLifecycle(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sm := NewSessionManager(store, "gg_session", "secret", time.Hour, false)

	sess, rec := roundTripSession(t, sm, nil)
	require.NoError(t, sm.Commit(ctx, rec, sess))
	assert.Nil(t, sessionCookie(t, rec, "gg_session"), "anonymous sessions are not persisted")

	sess, rec = roundTripSession(t, sm, nil)
	sess.SetUser("42")
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookie := sessionCookie(t, rec, "gg_session")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	loaded, _ := roundTripSession(t, sm, cookie)
	assert.Equal(t, "42", loaded.User())
	assert.Equal(t, cookie.Value, loaded.ID)

	sm.Renew(loaded)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, loaded))
	renewed := sessionCookie(t, rec, "gg_session")
	require.NotNil(t, renewed)
	assert.NotEqual(t, cookie.Value, renewed.Value)

	stale, _ := roundTripSession(t, sm, cookie)
	assert.Empty(t, stale.User(), "old id must not resolve after renewal")

	current, rec := roundTripSession(t, sm, renewed)
	assert.Equal(t, "42", current.User())
	sm.Destroy(current)
	require.NoError(t, sm.Commit(ctx, rec, current))
	cleared := sessionCookie(t, rec, "gg_session")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	gone, _ := roundTripSession(t, sm, renewed)
	assert.Empty(t, gone.User())
}

func TestSessionLifecycleRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	testSessionLifecycle(t, NewRedisSessionStore(client))
}

func TestSessionLifecycleMemory(t *testing.T) {
	testSessionLifecycle(t, NewMemorySessionStore())
}

func TestRedisSessionExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "abc", []byte(`{}`), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "abc")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStorePrune(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("a"), time.Hour))
	require.NoError(t, store.Set(ctx, "long", []byte("b"), 48*time.Hour))

	now = now.Add(25 * time.Hour)
	_, err := store.Get(ctx, "short")
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Equal(t, 2, store.Len())

	require.Equal(t, 1, store.Prune())
	require.Equal(t, 1, store.Len())

	payload, err := store.Get(ctx, "long")
	require.NoError(t, err)
	require.Equal(t, []byte("b"), payload)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	mem := NewIdempotencyStore(nil, time.Hour)
	require.NoError(t, mem.CheckAndInsert(ctx, "k1", "orders"))
	require.ErrorIs(t, mem.CheckAndInsert(ctx, "k1", "orders"), ErrIdempotencyConflict)
	require.NoError(t, mem.CheckAndInsert(ctx, "k1", "cart"))
	require.NoError(t, mem.Delete(ctx, "k1", "orders"))
	require.NoError(t, mem.CheckAndInsert(ctx, "k1", "orders"))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rs := NewIdempotencyStore(client, time.Hour)
	require.NoError(t, rs.CheckAndInsert(ctx, "k2", "orders"))
	require.ErrorIs(t, rs.CheckAndInsert(ctx, "k2", "orders"), ErrIdempotencyConflict)
	mr.FastForward(2 * time.Hour)
	require.NoError(t, rs.CheckAndInsert(ctx, "k2", "orders"))
}
