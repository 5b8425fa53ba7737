// Package rbac resolves the calling principal and gates routes by role.
package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/shared"
)

// UserLoader loads accounts by id.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (auth.User, error)
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (int64, error)
}

// Middleware wires principal resolution and role guards for HTTP handlers.
type Middleware struct {
	Users  UserLoader
	Tokens TokenParser
	Logger *slog.Logger
}

// Authenticate resolves the principal from a bearer token or the session and
// stores it in the request context. Anonymous requests pass through.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.Users.GetUser(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, auth.ErrUserNotFound) {
				m.logError("rbac load user", err)
				httpx.Message(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	})
}

// RequireAuthenticated rejects anonymous callers with 401.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFromContext(r.Context()); !ok {
			httpx.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			httpx.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !user.IsAdmin() {
			httpx.Message(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext returns the authenticated caller.
func PrincipalFromContext(ctx context.Context) (auth.User, bool) {
	return auth.UserFromContext(ctx)
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	if header := r.Header.Get("Authorization"); header != "" && m.Tokens != nil {
		scheme, raw, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			id, err := m.Tokens.Parse(strings.TrimSpace(raw))
			if err == nil {
				return id, true
			}
		}
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
