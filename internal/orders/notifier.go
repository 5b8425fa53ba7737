package orders

import (
	"context"
	"errors"
	"time"
)

// Routing keys for order events.
const (
	EventOrderPlaced        = "orders.placed"
	EventOrderStatusChanged = "orders.status_changed"
)

// EventLine is one line of an OrderPlacedEvent.
type EventLine struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitType    string  `json:"unitType"`
	UnitPrice   float64 `json:"unitPrice"`
}

// OrderPlacedEvent is emitted after an order commits.
type OrderPlacedEvent struct {
	OrderID      int64       `json:"orderId"`
	UserID       int64       `json:"userId"`
	Email        string      `json:"email"`
	CustomerName string      `json:"customerName"`
	TotalAmount  float64     `json:"totalAmount"`
	Lines        []EventLine `json:"lines"`
	PlacedAt     time.Time   `json:"placedAt"`
}

// StatusChangedEvent is emitted after an admin moves an order.
type StatusChangedEvent struct {
	OrderID   int64     `json:"orderId"`
	UserID    int64     `json:"userId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

// Notifier is told about committed order changes. Failures never roll back
// the change that triggered them.
type Notifier interface {
	OrderPlaced(ctx context.Context, evt OrderPlacedEvent) error
	OrderStatusChanged(ctx context.Context, evt StatusChangedEvent) error
}

// Notifiers fans an event out to every member and joins their errors.
type Notifiers []Notifier

func (n Notifiers) OrderPlaced(ctx context.Context, evt OrderPlacedEvent) error {
	var errs []error
	for _, member := range n {
		if err := member.OrderPlaced(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n Notifiers) OrderStatusChanged(ctx context.Context, evt StatusChangedEvent) error {
	var errs []error
	for _, member := range n {
		if err := member.OrderStatusChanged(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publisher sends a JSON payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// EventProducer publishes order events to a message broker.
type EventProducer struct {
	publisher Publisher
}

// NewEventProducer wraps a broker publisher.
func NewEventProducer(publisher Publisher) *EventProducer {
	return &EventProducer{publisher: publisher}
}

func (p *EventProducer) OrderPlaced(ctx context.Context, evt OrderPlacedEvent) error {
	return p.publisher.Publish(ctx, EventOrderPlaced, evt)
}

func (p *EventProducer) OrderStatusChanged(ctx context.Context, evt StatusChangedEvent) error {
	return p.publisher.Publish(ctx, EventOrderStatusChanged, evt)
}
