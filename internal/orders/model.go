// Package orders turns carts into immutable, price-snapshotted orders and
// drives their fulfilment status.
package orders

import (
	"errors"
	"time"

	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// Status is an order's position in the fulfilment workflow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrOrderNotFound = httpx.NotFound("Order not found")
	ErrEmptyCart     = httpx.Wrap(httpx.ErrValidation, "Cart is empty")
	// ErrProductNotFound is returned when a cart line references a deleted product.
	ErrProductNotFound   = httpx.Wrap(httpx.ErrValidation, "Product in cart no longer exists")
	ErrForbidden         = httpx.Wrap(httpx.ErrForbidden, "Forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Order is the header row. TotalAmount is fixed when the order is placed.
type Order struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Status          Status    `json:"status"`
	TotalAmount     float64   `json:"totalAmount"`
	OrderDate       time.Time `json:"orderDate"`
	ShippingAddress string    `json:"shippingAddress,omitempty"`
	BillingAddress  string    `json:"billingAddress,omitempty"`
	PaymentMethod   string    `json:"paymentMethod,omitempty"`
}

// Item is an order line. UnitPrice is a snapshot taken at placement time.
type Item struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"orderId"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	UnitType  string  `json:"unitType"`
}

// ItemWithProduct is a line joined with the current catalog entry, which may
// have been deleted since.
type ItemWithProduct struct {
	Item
	Product *catalog.Product `json:"product,omitempty"`
}

// OrderWithItems is the API representation of an order.
type OrderWithItems struct {
	Order
	Items []ItemWithProduct `json:"items"`
}
