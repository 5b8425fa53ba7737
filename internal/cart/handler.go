package cart

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/rbac"
)

// Handler exposes the cart API. Every route requires authentication.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Get("/", h.list)
		r.Get("/summary", h.summary)
		r.Post("/", h.add)
		r.Delete("/", h.clear)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	lines, err := h.service.List(r.Context(), user)
	if err != nil {
		h.fail(w, err, "Error fetching cart")
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), user)
	if err != nil {
		h.fail(w, err, "Error fetching cart")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var in AddInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	line, created, err := h.service.Add(r.Context(), user, in)
	if err != nil {
		h.fail(w, err, "Error adding item to cart")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, line)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	line, err := h.service.Update(r.Context(), user, id, in)
	if err != nil {
		h.fail(w, err, "Error updating cart item")
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.service.Remove(r.Context(), user, id); err != nil {
		h.fail(w, err, "Error removing cart item")
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.service.Clear(r.Context(), user); err != nil {
		h.fail(w, err, "Error clearing cart")
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("cart request failed", slog.String("op", fallback), slog.Any("error", err))
	}
	httpx.RespondError(w, err, fallback)
}
