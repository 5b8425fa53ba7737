package catalog

import (
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

// Handler manages catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	audit   *shared.AuditLogger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, audit *shared.AuditLogger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, audit: audit}
}

// MountRoutes registers catalog routes. Reads are public; writes require admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}", h.showCategory)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.showProduct)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Post("/categories", h.createCategory)
		r.Put("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.fail(w, err, "Error fetching categories")
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *Handler) showCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, err, "Error fetching category")
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	category, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		h.fail(w, err, "Error creating category")
		return
	}
	h.record(r, "create", "category", category.ID)
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	var patch CategoryPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err, "Error updating category")
		return
	}
	h.record(r, "update", "category", id)
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, err, "Error deleting category")
		return
	}
	h.record(r, "delete", "category", id)
	httpx.NoContent(w)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search"), Sort: q.Get("sort")}
	if raw := strings.TrimSpace(q.Get("categoryId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, &httpx.ValidationError{
				Message: "Invalid query parameters",
				Fields:  []httpx.FieldError{{Field: "categoryId", Message: "must be a positive integer"}},
			}, "")
			return
		}
		filters.CategoryID = &id
	}
	products, err := h.service.ListProducts(r.Context(), filters, callerRole(r))
	if err != nil {
		h.fail(w, err, "Error fetching products")
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	product, err := h.service.GetProduct(r.Context(), id, callerRole(r))
	if err != nil {
		h.fail(w, err, "Error fetching product")
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.fail(w, err, "Error creating product")
		return
	}
	h.record(r, "create", "product", product.ID)
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	var patch ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err, "Error updating product")
		return
	}
	h.record(r, "update", "product", id)
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, err, "Error deleting product")
		return
	}
	h.record(r, "delete", "product", id)
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(strings.ToLower(fallback), slog.Any("error", err))
	}
	httpx.RespondError(w, err, fallback)
}

func (h *Handler) record(r *http.Request, action, entity string, id int64) {
	if h.audit == nil {
		return
	}
	var actor int64
	if user, ok := auth.UserFromContext(r.Context()); ok {
		actor = user.ID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
	}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func callerRole(r *http.Request) auth.Role {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.Role
	}
	return auth.RoleRetail
}
