// Package cart implements the per-user shopping cart.
package cart

import (
	"context"

	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/pricing"
)

// MaxQuantity bounds the quantity of a single cart row.
const MaxQuantity = 10000

// ErrItemNotFound is returned for missing cart rows and rows owned by someone else.
var ErrItemNotFound = httpx.NotFound("Cart item not found")

// ErrQuantityLimit is returned when a merge would push a row past MaxQuantity.
var ErrQuantityLimit = &httpx.ValidationError{
	Message: "Invalid cart item data",
	Fields:  []httpx.FieldError{{Field: "quantity", Message: "must be at most 10000 per cart item"}},
}

// Item is one cart row. There is at most one row per (user, product, unit type).
type Item struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitType  string `json:"unitType"`
}

// Line is a cart row joined with its product priced for the caller.
type Line struct {
	Item
	Product catalog.ProductView `json:"product"`
}

// Summary is the cart page payload.
type Summary struct {
	Items  []Line         `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

// AddInput is the payload of POST /api/cart.
type AddInput struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1,max=10000"`
	UnitType  string `json:"unitType" validate:"required"`
}

// UpdateInput is the payload of PUT /api/cart/{id}.
type UpdateInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=10000"`
}

// Repository defines cart persistence.
type Repository interface {
	ListCartItems(ctx context.Context, userID int64) ([]Item, error)
	GetCartItem(ctx context.Context, id int64) (Item, error)
	// UpsertCartItem inserts item or adds its quantity to the existing row
	// for the same user, product and unit type. merged reports the latter.
	// A sum above MaxQuantity fails with ErrQuantityLimit and leaves the row as is.
	UpsertCartItem(ctx context.Context, item Item) (saved Item, merged bool, err error)
	UpdateCartItemQuantity(ctx context.Context, id int64, quantity int) (Item, error)
	DeleteCartItem(ctx context.Context, id int64) error
	ClearCart(ctx context.Context, userID int64) error
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// Recorder receives cart mutation events for metrics.
type Recorder interface {
	CartMutation(op string)
}
