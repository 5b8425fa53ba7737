package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/greengrocer/storefront/internal/orders"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderConfirmation sends the order confirmation email.
	TaskOrderConfirmation = "order:confirmation_email"
	// TaskCatalogPriceAudit logs products priced above retail for wholesale.
	TaskCatalogPriceAudit = "catalog:price_audit"
)

// OrderConfirmationPayload describes a placed order for the confirmation email.
type OrderConfirmationPayload struct {
	OrderID      int64              `json:"orderId"`
	Email        string             `json:"email"`
	CustomerName string             `json:"customerName"`
	TotalAmount  float64            `json:"totalAmount"`
	Lines        []orders.EventLine `json:"lines"`
}

// PriceAuditPayload carries no data; the audit always scans the full catalog.
type PriceAuditPayload struct{}

// NewOrderConfirmationTask constructs an Asynq task.
func NewOrderConfirmationTask(payload OrderConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmation, data), nil
}

// NewPriceAuditTask constructs the catalog audit task.
func NewPriceAuditTask() (*asynq.Task, error) {
	data, err := json.Marshal(PriceAuditPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogPriceAudit, data), nil
}
