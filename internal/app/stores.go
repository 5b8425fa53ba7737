package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/cart"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/dashboard"
	"github.com/greengrocer/storefront/internal/orders"
	"github.com/greengrocer/storefront/internal/platform/cache"
	"github.com/greengrocer/storefront/internal/platform/db"
	"github.com/greengrocer/storefront/internal/shared"
	"github.com/greengrocer/storefront/internal/store/memory"
)

// Stores bundles the repositories and backing clients selected by config.
type Stores struct {
	Users     auth.Repository
	Catalog   catalog.Repository
	Cart      cart.Repository
	Orders    orders.Repository
	Dashboard dashboard.Repository
	Sessions  shared.SessionStore

	// MemorySessions is set when sessions live in process and need pruning.
	MemorySessions *shared.MemorySessionStore
	Pool           *pgxpool.Pool
	Redis          *redis.Client
}

// MemoryStores returns process-local stores with no external dependencies.
func MemoryStores() *Stores {
	store := memory.New()
	sessions := shared.NewMemorySessionStore()
	return &Stores{
		Users:          store,
		Catalog:        store,
		Cart:           store,
		Orders:         store,
		Dashboard:      store,
		Sessions:       sessions,
		MemorySessions: sessions,
	}
}

// OpenStores connects the configured store driver and, when REDIS_ADDR is
// set, Redis for sessions and caching.
func OpenStores(ctx context.Context, cfg *Config, logger *slog.Logger) (*Stores, error) {
	stores := MemoryStores()

	if cfg.StoreDriver == DriverPostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		stores.Pool = pool
		stores.Users = auth.NewRepository(pool)
		stores.Catalog = catalog.NewRepository(pool)
		stores.Cart = cart.NewRepository(pool)
		stores.Orders = orders.NewRepository(pool)
		stores.Dashboard = dashboard.NewRepository(pool)
		logger.Info("using postgres store")
	} else {
		logger.Info("using in-memory store")
	}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		stores.Redis = client
		stores.Sessions = shared.NewRedisSessionStore(client)
		stores.MemorySessions = nil
		logger.Info("using redis sessions", slog.String("addr", cfg.RedisAddr))
	}
	return stores, nil
}

// RedisClient returns the Redis client as an interface value, or a nil
// interface when Redis is not configured.
func (s *Stores) RedisClient() redis.UniversalClient {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis
}

// Close releases external connections.
func (s *Stores) Close() {
	if s == nil {
		return
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
