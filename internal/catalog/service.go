package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/cache"
	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// Service implements catalog business rules on top of a Repository. Reads go
// through the versioned cache; every write bumps its version.
type Service struct {
	repo   Repository
	cache  *cache.Versioned
	logger *slog.Logger
}

// NewService constructs a Service. A nil cache disables caching.
func NewService(repo Repository, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.cached(ctx, &categories, func(ctx context.Context) (any, error) {
		list, err := s.repo.ListCategories(ctx)
		if list == nil {
			list = []Category{}
		}
		return list, err
	}, "categories")
	return categories, err
}

// GetCategory returns a single category.
func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// CreateCategory validates and stores a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate("Invalid category data", in); err != nil {
		return Category{}, err
	}
	c, err := s.repo.CreateCategory(ctx, Category{Name: in.Name, Description: in.Description, Icon: in.Icon})
	if err != nil {
		return Category{}, err
	}
	s.invalidate(ctx)
	return c, nil
}

// UpdateCategory applies a partial update.
func (s *Service) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (Category, error) {
	if err := httpx.Validate("Invalid category data", patch); err != nil {
		return Category{}, err
	}
	current, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	updated, err := s.repo.UpdateCategory(ctx, patch.Apply(current))
	if err != nil {
		return Category{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// DeleteCategory removes a category. Its products become uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListProducts returns products matching filters priced for role.
func (s *Service) ListProducts(ctx context.Context, filters ListFilters, role auth.Role) ([]ProductView, error) {
	filters.Sort = NormalizeSort(filters.Sort)
	filters.Search = strings.TrimSpace(filters.Search)
	category := "all"
	if filters.CategoryID != nil {
		category = strconv.FormatInt(*filters.CategoryID, 10)
	}

	var products []Product
	err := s.cached(ctx, &products, func(ctx context.Context) (any, error) {
		list, err := s.repo.ListProducts(ctx, filters)
		if list == nil {
			list = []Product{}
		}
		return list, err
	}, "products", category, filters.Sort, strings.ToLower(filters.Search))
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ViewFor(p, role))
	}
	return views, nil
}

// AllProducts returns the unfiltered product list without caching.
func (s *Service) AllProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx, ListFilters{Sort: SortFeatured})
}

// GetProduct returns a product priced for role.
func (s *Service) GetProduct(ctx context.Context, id int64, role auth.Role) (ProductView, error) {
	var p Product
	err := s.cached(ctx, &p, func(ctx context.Context) (any, error) {
		return s.repo.GetProduct(ctx, id)
	}, "product", strconv.FormatInt(id, 10))
	if err != nil {
		return ProductView{}, err
	}
	return ViewFor(p, role), nil
}

// CreateProduct validates and stores a product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate("Invalid product data", in); err != nil {
		return Product{}, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return Product{}, err
	}
	p, err := s.repo.CreateProduct(ctx, in.Product())
	if err != nil {
		return Product{}, err
	}
	s.warnPrices(p)
	s.invalidate(ctx)
	return p, nil
}

// UpdateProduct applies a partial update.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if err := httpx.Validate("Invalid product data", patch); err != nil {
		return Product{}, err
	}
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if patch.CategoryID != nil && *patch.CategoryID != current.CategoryID {
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return Product{}, err
		}
	}
	updated, err := s.repo.UpdateProduct(ctx, patch.Apply(current))
	if err != nil {
		return Product{}, err
	}
	s.warnPrices(updated)
	s.invalidate(ctx)
	return updated, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, id int64) error {
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return &httpx.ValidationError{
				Message: "Invalid product data",
				Fields:  []httpx.FieldError{{Field: "categoryId", Message: "does not exist"}},
			}
		}
		return err
	}
	return nil
}

func (s *Service) warnPrices(p Product) {
	for _, w := range PriceWarnings([]Product{p}) {
		s.logger.Warn("product price inconsistency",
			slog.Int64("product_id", w.ProductID),
			slog.String("detail", w.Message))
	}
}

func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		return roundTrip(ctx, dest, loader)
	}
	err = s.cache.FetchJSON(ctx, key, dest, loader)
	if err == nil || errors.Is(err, httpx.ErrNotFound) || ctx.Err() != nil {
		return err
	}
	// Redis trouble degrades to a direct read.
	s.logger.Warn("catalog cache fetch", slog.String("key", key), slog.Any("error", err))
	return roundTrip(ctx, dest, loader)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
}

func roundTrip(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	var noCache *cache.Versioned
	return noCache.FetchJSON(ctx, "", dest, loader)
}
