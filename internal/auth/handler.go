package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessionManager: sessions}
}

// MountRoutes registers the public auth routes. GET /user is mounted by the
// router behind the authentication guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/token", h.handleToken)
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "Error registering user")
		return
	}
	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err, "Error registering user")
		return
	}
	h.bindSession(r, user)
	h.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.RespondError(w, err, "Error logging in")
		return
	}
	if err := httpx.Validate("Invalid login data", creds); err != nil {
		httpx.RespondError(w, err, "Error logging in")
		return
	}
	user, err := h.service.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		httpx.RespondError(w, err, "Error logging in")
		return
	}
	h.bindSession(r, user)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	httpx.Message(w, http.StatusOK, "Logged out")
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.RespondError(w, err, "Error issuing token")
		return
	}
	if err := httpx.Validate("Invalid login data", creds); err != nil {
		httpx.RespondError(w, err, "Error issuing token")
		return
	}
	token, expiresAt, err := h.service.IssueToken(r.Context(), creds)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("issue token", slog.Any("error", err))
		}
		httpx.RespondError(w, err, "Error issuing token")
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) bindSession(r *http.Request, user User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(strconv.FormatInt(user.ID, 10))
}
