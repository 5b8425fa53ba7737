package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/cart"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/chatbot"
	"github.com/greengrocer/storefront/internal/dashboard"
	"github.com/greengrocer/storefront/internal/observability"
	"github.com/greengrocer/storefront/internal/orders"
	"github.com/greengrocer/storefront/internal/platform/cache"
	"github.com/greengrocer/storefront/internal/rbac"
	"github.com/greengrocer/storefront/internal/shared"
	"github.com/greengrocer/storefront/internal/users"
	"github.com/greengrocer/storefront/jobs"
)

// SessionCookieName names the session cookie.
const SessionCookieName = "greengrocer_session"

// Deps are the runtime collaborators assembled by Assemble.
type Deps struct {
	Config   *Config
	Logger   *slog.Logger
	Stores   *Stores
	Metrics  *observability.Metrics
	Notifier orders.Notifier
	// Chatbot defaults to a client built from Config.
	Chatbot      chatbot.Asker
	JobInspector jobs.QueueInspector
	// RequestsPerMinute overrides the global per-IP limit.
	RequestsPerMinute int
}

// Services exposes the domain services behind the router.
type Services struct {
	Sessions  *shared.SessionManager
	Auth      *auth.Service
	Catalog   *catalog.Service
	Cart      *cart.Service
	Orders    *orders.Service
	Users     *users.Service
	Dashboard *dashboard.Service
}

// Assemble builds every service and handler and returns the HTTP router.
func Assemble(d Deps) (http.Handler, *Services) {
	cfg := d.Config
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := shared.NewSessionManager(d.Stores.Sessions, SessionCookieName, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	tokens := auth.NewTokenManager(cfg.SigningKey(), cfg.TokenTTL)
	audit := shared.NewAuditLogger(logger)
	idempotency := shared.NewIdempotencyStore(d.Stores.RedisClient(), 24*time.Hour)

	authService := auth.NewService(d.Stores.Users, tokens)
	rbacMiddleware := rbac.Middleware{Users: d.Stores.Users, Tokens: tokens, Logger: logger}

	catalogCache := cache.NewVersioned(d.Stores.RedisClient(), "catalog", cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(d.Stores.Catalog, catalogCache, logger)

	var cartRecorder cart.Recorder
	var orderRecorder orders.Recorder
	if d.Metrics != nil {
		cartRecorder = d.Metrics
		orderRecorder = d.Metrics
	}
	cartService := cart.NewService(d.Stores.Cart, cartRecorder)
	ordersService := orders.NewService(d.Stores.Orders, d.Notifier, orderRecorder, logger)
	usersService := users.NewService(d.Stores.Users)
	dashboardService := dashboard.NewService(d.Stores.Dashboard)

	asker := d.Chatbot
	if asker == nil {
		asker = chatbot.NewClient(chatbot.Config{
			Endpoint:  cfg.ChatbotEndpoint,
			APIKey:    cfg.ChatbotAPIKey,
			Model:     cfg.ChatbotModel,
			MaxTokens: cfg.ChatbotMaxTokens,
		})
	}

	router := NewRouter(RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessions,
		RBACMiddleware:    rbacMiddleware,
		AuthHandler:       auth.NewHandler(logger, authService, sessions),
		CatalogHandler:    catalog.NewHandler(logger, catalogService, rbacMiddleware, audit),
		CartHandler:       cart.NewHandler(logger, cartService, rbacMiddleware),
		OrdersHandler:     orders.NewHandler(logger, ordersService, rbacMiddleware, idempotency, audit),
		UsersHandler:      users.NewHandler(logger, usersService, rbacMiddleware),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		ChatbotHandler:    chatbot.NewHandler(asker, logger),
		JobHandler:        jobs.NewHandler(d.JobInspector, logger),
		Metrics:           d.Metrics,
		RequestsPerMinute: d.RequestsPerMinute,
	})

	return router, &Services{
		Sessions:  sessions,
		Auth:      authService,
		Catalog:   catalogService,
		Cart:      cartService,
		Orders:    ordersService,
		Users:     usersService,
		Dashboard: dashboardService,
	}
}
