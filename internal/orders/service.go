package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/pricing"
)

// Recorder receives placed-order events for metrics.
type Recorder interface {
	OrderPlaced(total float64)
}

// Service implements the order workflow.
type Service struct {
	repo     Repository
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. notifier and recorder may be nil.
func NewService(repo Repository, notifier Notifier, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, recorder: recorder, logger: logger, now: time.Now}
}

// Place converts the caller's cart into a pending order. Unit prices are
// resolved for the caller's current role and frozen on the order lines. The
// whole sequence runs in one transaction: either the order, its lines and the
// cleared cart all persist, or nothing does.
func (s *Service) Place(ctx context.Context, user auth.User, in PlaceInput) (OrderWithItems, error) {
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.BillingAddress = strings.TrimSpace(in.BillingAddress)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := httpx.Validate("Invalid order data", in); err != nil {
		return OrderWithItems{}, err
	}

	var placed OrderWithItems
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cartItems, err := tx.ListCartItems(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		products := make([]catalog.Product, len(cartItems))
		lines := make([]pricing.Line, len(cartItems))
		for i, ci := range cartItems {
			p, err := tx.GetProduct(ctx, ci.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("load product %d: %w", ci.ProductID, err)
			}
			products[i] = p
			lines[i] = pricing.Line{Prices: p.Prices(), Quantity: ci.Quantity}
		}

		order, err := tx.CreateOrder(ctx, Order{
			UserID:          user.ID,
			Status:          StatusPending,
			TotalAmount:     pricing.Subtotal(lines, user.Role),
			OrderDate:       s.now().UTC(),
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			PaymentMethod:   in.PaymentMethod,
		})
		if err != nil {
			return err
		}

		items := make([]ItemWithProduct, 0, len(cartItems))
		for i, ci := range cartItems {
			item, err := tx.CreateOrderItem(ctx, Item{
				OrderID:   order.ID,
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				UnitPrice: pricing.UnitPrice(products[i].Prices(), user.Role),
				UnitType:  ci.UnitType,
			})
			if err != nil {
				return err
			}
			p := products[i]
			items = append(items, ItemWithProduct{Item: item, Product: &p})
		}

		if err := tx.ClearCart(ctx, user.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		placed = OrderWithItems{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return OrderWithItems{}, err
	}

	s.logger.Info("order placed",
		slog.Int64("order_id", placed.ID),
		slog.Int64("user_id", user.ID),
		slog.Float64("total", placed.TotalAmount))
	if s.recorder != nil {
		s.recorder.OrderPlaced(placed.TotalAmount)
	}
	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, placedEvent(user, placed)); err != nil {
			s.logger.Warn("order placed notification", slog.Int64("order_id", placed.ID), slog.Any("error", err))
		}
	}
	return placed, nil
}

// Get returns an order the caller owns, or any order for admins.
func (s *Service) Get(ctx context.Context, user auth.User, id int64) (OrderWithItems, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return OrderWithItems{}, err
	}
	if !user.IsAdmin() && order.UserID != user.ID {
		return OrderWithItems{}, ErrForbidden
	}
	return s.withItems(ctx, order)
}

// List returns the caller's orders, or every order for admins.
func (s *Service) List(ctx context.Context, user auth.User) ([]OrderWithItems, error) {
	var (
		list []Order
		err  error
	)
	if user.IsAdmin() {
		list, err = s.repo.ListOrders(ctx)
	} else {
		list, err = s.repo.ListOrdersByUser(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]OrderWithItems, 0, len(list))
	for _, o := range list {
		full, err := s.withItems(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	return out, nil
}

// Update applies an admin's partial update. A status change must follow the
// workflow graph; setting the current status again is a no-op.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (OrderWithItems, error) {
	if err := httpx.Validate("Invalid order data", in); err != nil {
		return OrderWithItems{}, err
	}
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return OrderWithItems{}, err
	}

	previous := order.Status
	if in.Status != nil && *in.Status != order.Status {
		if !CanTransition(order.Status, *in.Status) {
			return OrderWithItems{}, &httpx.ValidationError{
				Message: fmt.Sprintf("Cannot change order status from %s to %s", order.Status, *in.Status),
				Fields:  []httpx.FieldError{{Field: "status", Message: "invalid transition"}},
				Cause:   ErrInvalidTransition,
			}
		}
		order.Status = *in.Status
	}
	if in.ShippingAddress != nil {
		order.ShippingAddress = strings.TrimSpace(*in.ShippingAddress)
	}
	if in.BillingAddress != nil {
		order.BillingAddress = strings.TrimSpace(*in.BillingAddress)
	}
	if in.PaymentMethod != nil {
		order.PaymentMethod = strings.TrimSpace(*in.PaymentMethod)
	}

	updated, err := s.repo.UpdateOrder(ctx, order)
	if err != nil {
		return OrderWithItems{}, err
	}
	if updated.Status != previous && s.notifier != nil {
		evt := StatusChangedEvent{OrderID: updated.ID, UserID: updated.UserID, From: previous, To: updated.Status, ChangedAt: s.now().UTC()}
		if err := s.notifier.OrderStatusChanged(ctx, evt); err != nil {
			s.logger.Warn("order status notification", slog.Int64("order_id", updated.ID), slog.Any("error", err))
		}
	}
	return s.withItems(ctx, updated)
}

// UpdateStatus moves an order along the workflow.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (OrderWithItems, error) {
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

func (s *Service) withItems(ctx context.Context, order Order) (OrderWithItems, error) {
	items, err := s.repo.ListOrderItems(ctx, order.ID)
	if err != nil {
		return OrderWithItems{}, err
	}
	out := OrderWithItems{Order: order, Items: make([]ItemWithProduct, 0, len(items))}
	for _, it := range items {
		line := ItemWithProduct{Item: it}
		p, err := s.repo.GetProduct(ctx, it.ProductID)
		switch {
		case err == nil:
			line.Product = &p
		case !errors.Is(err, catalog.ErrProductNotFound):
			return OrderWithItems{}, err
		}
		out.Items = append(out.Items, line)
	}
	return out, nil
}

func placedEvent(user auth.User, o OrderWithItems) OrderPlacedEvent {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	evt := OrderPlacedEvent{
		OrderID:      o.ID,
		UserID:       user.ID,
		Email:        user.Email,
		CustomerName: name,
		TotalAmount:  o.TotalAmount,
		PlacedAt:     o.OrderDate,
	}
	for _, it := range o.Items {
		line := EventLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitType: it.UnitType, UnitPrice: it.UnitPrice}
		if it.Product != nil {
			line.ProductName = it.Product.Name
		}
		evt.Lines = append(evt.Lines, line)
	}
	return evt
}
