package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/rbac"
	"github.com/greengrocer/storefront/internal/shared"
)

const idempotencyModule = "orders"

// Handler exposes the order API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	rbac        rbac.Middleware
	idempotency *shared.IdempotencyStore
	audit       *shared.AuditLogger
}

// NewHandler builds Handler instance. idempotency and audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, idempotency *shared.IdempotencyStore, audit *shared.AuditLogger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, idempotency: idempotency, audit: audit}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Get("/", h.list)
		r.Post("/", h.place)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Put("/{id}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	list, err := h.service.List(r.Context(), user)
	if err != nil {
		h.fail(w, err, "Error fetching orders")
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	order, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		h.fail(w, err, "Error fetching order")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var in PlaceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.idempotency != nil {
		key = strconv.FormatInt(user.ID, 10) + ":" + key
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Message(w, http.StatusConflict, "Duplicate order request")
				return
			}
			h.logger.Warn("idempotency check", slog.Any("error", err))
			key = ""
		}
	} else {
		key = ""
	}

	order, err := h.service.Place(r.Context(), user, in)
	if err != nil {
		if key != "" {
			if derr := h.idempotency.Delete(r.Context(), key, idempotencyModule); derr != nil {
				h.logger.Warn("idempotency rollback", slog.Any("error", derr))
			}
		}
		h.fail(w, err, "Error creating order")
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
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
	order, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, err, "Error updating order")
		return
	}
	if h.audit != nil {
		actor, _ := auth.UserFromContext(r.Context())
		meta := map[string]any{"status": order.Status}
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "update",
			Entity:   "order",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
		}); err != nil {
			h.logger.Warn("audit record", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("order request failed", slog.String("op", fallback), slog.Any("error", err))
	}
	httpx.RespondError(w, err, fallback)
}
