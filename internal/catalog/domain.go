// Package catalog manages categories and products.
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/pricing"
)

// Status describes product availability.
type Status string

const (
	StatusActive   Status = "active"
	StatusLimited  Status = "limited"
	StatusInactive Status = "inactive"
)

// Sort orders accepted by product listings.
const (
	SortFeatured  = "featured"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

var (
	ErrCategoryNotFound = httpx.NotFound("Category not found")
	ErrProductNotFound  = httpx.NotFound("Product not found")
)

// Category groups products in the storefront navigation.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// UnitOption is a purchasable packaging variant such as "case" or "lb".
type UnitOption struct {
	Value string  `json:"value" validate:"required"`
	Label string  `json:"label" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// Product is a catalog entry carrying both retail and wholesale prices.
type Product struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Image          string       `json:"image,omitempty"`
	CategoryID     int64        `json:"categoryId"`
	RetailPrice    float64      `json:"retailPrice"`
	WholesalePrice float64      `json:"wholesalePrice"`
	OriginalPrice  float64      `json:"originalPrice,omitempty"`
	Stock          int          `json:"stock"`
	Unit           string       `json:"unit"`
	UnitOptions    []UnitOption `json:"unitOptions"`
	Status         Status       `json:"status"`
	IsBestseller   bool         `json:"isBestseller"`
	IsLimited      bool         `json:"isLimited"`
	IsOrganic      bool         `json:"isOrganic"`
	IsLocal        bool         `json:"isLocal"`
	Origin         string       `json:"origin,omitempty"`
	Rating         float64      `json:"rating,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Prices returns the price columns consumed by the pricing resolver.
func (p Product) Prices() pricing.Prices {
	return pricing.Prices{Retail: p.RetailPrice, Wholesale: p.WholesalePrice, Original: p.OriginalPrice}
}

// ProductView is a product annotated with the caller's price.
type ProductView struct {
	Product
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent int     `json:"discountPercent"`
}

// ViewFor annotates p with the unit price and discount seen by role.
func ViewFor(p Product, role auth.Role) ProductView {
	return ProductView{
		Product:         p,
		UnitPrice:       pricing.UnitPrice(p.Prices(), role),
		DiscountPercent: pricing.DiscountPercent(p.Prices(), role),
	}
}

// ListFilters narrows product listings.
type ListFilters struct {
	CategoryID *int64
	Search     string
	Sort       string
}

// Repository defines catalog persistence.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, filters ListFilters) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// PriceWarnings flags products whose wholesale price exceeds retail. These
// are data-quality findings and never block a write.
func PriceWarnings(products []Product) []pricing.Warning {
	var out []pricing.Warning
	for _, p := range products {
		if w := pricing.Check(p.ID, p.Name, p.Prices()); w != nil {
			out = append(out, *w)
		}
	}
	return out
}

// FilterProducts applies filters to an in-memory product slice. It mirrors the
// SQL issued by the PostgreSQL repository.
func FilterProducts(products []Product, f ListFilters) []Product {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case SortPriceAsc:
			if a.RetailPrice != b.RetailPrice {
				return a.RetailPrice < b.RetailPrice
			}
		case SortPriceDesc:
			if a.RetailPrice != b.RetailPrice {
				return a.RetailPrice > b.RetailPrice
			}
		case SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		default:
			if a.IsBestseller != b.IsBestseller {
				return a.IsBestseller
			}
		}
		return a.ID < b.ID
	})
	return out
}

// NormalizeSort maps unknown sort keys to SortFeatured.
func NormalizeSort(s string) string {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortNewest:
		return s
	}
	return SortFeatured
}
