package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/cart"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/chatbot"
	"github.com/greengrocer/storefront/internal/dashboard"
	"github.com/greengrocer/storefront/internal/observability"
	"github.com/greengrocer/storefront/internal/orders"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/rbac"
	"github.com/greengrocer/storefront/internal/shared"
	"github.com/greengrocer/storefront/internal/users"
	"github.com/greengrocer/storefront/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	RBACMiddleware   rbac.Middleware
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	CartHandler      *cart.Handler
	OrdersHandler    *orders.Handler
	UsersHandler     *users.Handler
	DashboardHandler *dashboard.Handler
	ChatbotHandler   *chatbot.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics

	// RequestsPerMinute is the global per-IP limit; zero selects the default.
	RequestsPerMinute int
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:            params.Logger,
		Config:            params.Config,
		SessionManager:    params.SessionManager,
		Metrics:           params.Metrics,
		RequestsPerMinute: params.RequestsPerMinute,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)

		credentialLimit := onlyPaths(RateLimit(10, time.Minute), "/api/login", "/api/token")
		r.Group(func(r chi.Router) {
			r.Use(credentialLimit)
			params.AuthHandler.MountRoutes(r)
		})
		r.With(params.RBACMiddleware.RequireAuthenticated).Get("/user", params.AuthHandler.Me)

		params.CatalogHandler.MountRoutes(r)
		r.Route("/cart", params.CartHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/admin", params.DashboardHandler.MountRoutes)
		if params.ChatbotHandler != nil {
			r.With(RateLimit(20, time.Minute)).Route("/chatbot", params.ChatbotHandler.MountRoutes)
		}
	})

	return r
}

// onlyPaths applies mw to requests whose path is one of paths.
func onlyPaths(mw func(http.Handler) http.Handler, paths ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := set[r.URL.Path]; ok {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
