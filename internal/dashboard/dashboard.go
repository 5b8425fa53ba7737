// Package dashboard computes the admin KPI summary.
package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/greengrocer/storefront/internal/orders"
)

// OrderStats aggregates orders. Revenue excludes cancelled orders.
type OrderStats struct {
	Total    int
	Revenue  float64
	ByStatus map[orders.Status]int
}

// Repository provides the aggregate queries behind the dashboard.
type Repository interface {
	CountProducts(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
	OrderStats(ctx context.Context) (OrderStats, error)
}

// Summary is the payload of GET /api/admin/dashboard.
type Summary struct {
	TotalProducts  int                   `json:"totalProducts"`
	TotalOrders    int                   `json:"totalOrders"`
	TotalUsers     int                   `json:"totalUsers"`
	TotalRevenue   float64               `json:"totalRevenue"`
	OrdersByStatus map[orders.Status]int `json:"ordersByStatus"`
}

// Service builds dashboard summaries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary runs the aggregate queries concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var (
		out   Summary
		stats OrderStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountProducts(gctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		out.TotalProducts = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		out.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		st, err := s.repo.OrderStats(gctx)
		if err != nil {
			return fmt.Errorf("order stats: %w", err)
		}
		stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out.TotalOrders = stats.Total
	out.TotalRevenue = stats.Revenue
	out.OrdersByStatus = make(map[orders.Status]int, len(orders.Statuses))
	for _, st := range orders.Statuses {
		out.OrdersByStatus[st] = stats.ByStatus[st]
	}
	return out, nil
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *PGRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *PGRepository) OrderStats(ctx context.Context) (OrderStats, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)::float8 FROM orders GROUP BY status`)
	if err != nil {
		return OrderStats{}, err
	}
	defer rows.Close()

	stats := OrderStats{ByStatus: make(map[orders.Status]int)}
	for rows.Next() {
		var (
			status string
			count  int
			sum    float64
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return OrderStats{}, err
		}
		stats.ByStatus[orders.Status(status)] = count
		stats.Total += count
		if orders.Status(status) != orders.StatusCancelled {
			stats.Revenue += sum
		}
	}
	return stats, rows.Err()
}
