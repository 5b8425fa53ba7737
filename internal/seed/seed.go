// Package seed loads the demo catalog and accounts into an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/catalog"
)

// Catalog is the subset of the catalog service used for seeding. Writes go
// through the service so cached listings are invalidated.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (catalog.Category, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
}

// Users creates accounts directly; registration refuses the admin role.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (auth.User, error)
	CreateUser(ctx context.Context, user auth.User) (auth.User, error)
}

// Run seeds demo data when the category list is empty. It reports whether
// anything was written.
func Run(ctx context.Context, cat Catalog, users Users, logger *slog.Logger) (bool, error) {
	existing, err := cat.ListCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list categories: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	ids := make(map[string]int64, len(categories))
	for _, in := range categories {
		c, err := cat.CreateCategory(ctx, in)
		if err != nil {
			return false, fmt.Errorf("seed: category %q: %w", in.Name, err)
		}
		ids[c.Name] = c.ID
	}
	items := products(ids)
	for _, p := range items {
		if _, err := cat.CreateProduct(ctx, p); err != nil {
			return false, fmt.Errorf("seed: product %q: %w", p.Name, err)
		}
	}
	for _, a := range accounts {
		if err := ensureUser(ctx, users, a); err != nil {
			return false, err
		}
	}
	if logger != nil {
		logger.Info("demo data seeded",
			slog.Int("categories", len(categories)),
			slog.Int("products", len(items)),
			slog.Int("users", len(accounts)))
	}
	return true, nil
}

type account struct {
	user     auth.User
	password string
}

func ensureUser(ctx context.Context, users Users, a account) error {
	_, err := users.GetUserByUsername(ctx, a.user.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return fmt.Errorf("seed: lookup %s: %w", a.user.Username, err)
	}
	hash, err := auth.HashPassword(a.password)
	if err != nil {
		return err
	}
	u := a.user
	u.PasswordHash = hash
	if _, err := users.CreateUser(ctx, u); err != nil && !errors.Is(err, auth.ErrUsernameTaken) {
		return fmt.Errorf("seed: create %s: %w", u.Username, err)
	}
	return nil
}
