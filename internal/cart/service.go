package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/pricing"
)

// Service implements cart operations for the authenticated caller.
type Service struct {
	repo     Repository
	recorder Recorder
}

// NewService constructs a Service. recorder may be nil.
func NewService(repo Repository, recorder Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// Add puts a product in the caller's cart, merging with an existing row for
// the same product and unit type. created is false when a row was merged.
// A merge that would exceed MaxQuantity fails with ErrQuantityLimit.
func (s *Service) Add(ctx context.Context, user auth.User, in AddInput) (Line, bool, error) {
	in.UnitType = strings.TrimSpace(in.UnitType)
	if err := httpx.Validate("Invalid cart item data", in); err != nil {
		return Line{}, false, err
	}
	product, err := s.repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		return Line{}, false, err
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	item, merged, err := s.repo.UpsertCartItem(ctx, Item{
		UserID:    user.ID,
		ProductID: in.ProductID,
		Quantity:  qty,
		UnitType:  in.UnitType,
	})
	if err != nil {
		return Line{}, false, err
	}
	s.record("add")
	return Line{Item: item, Product: catalog.ViewFor(product, user.Role)}, !merged, nil
}

// Update sets the quantity of one of the caller's rows.
func (s *Service) Update(ctx context.Context, user auth.User, id int64, in UpdateInput) (Line, error) {
	if err := httpx.Validate("Invalid cart item data", in); err != nil {
		return Line{}, err
	}
	current, err := s.owned(ctx, user, id)
	if err != nil {
		return Line{}, err
	}
	product, err := s.repo.GetProduct(ctx, current.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return Line{}, ErrItemNotFound
		}
		return Line{}, err
	}
	item, err := s.repo.UpdateCartItemQuantity(ctx, id, in.Quantity)
	if err != nil {
		return Line{}, err
	}
	s.record("update")
	return Line{Item: item, Product: catalog.ViewFor(product, user.Role)}, nil
}

// Remove deletes one of the caller's rows.
func (s *Service) Remove(ctx context.Context, user auth.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCartItem(ctx, id); err != nil {
		return err
	}
	s.record("remove")
	return nil
}

// Clear empties the caller's cart. Clearing an empty cart is not an error.
func (s *Service) Clear(ctx context.Context, user auth.User) error {
	if err := s.repo.ClearCart(ctx, user.ID); err != nil {
		return err
	}
	s.record("clear")
	return nil
}

// List returns the caller's rows joined with products priced for their role.
// Rows whose product has since been deleted are omitted.
func (s *Service) List(ctx context.Context, user auth.User) ([]Line, error) {
	items, err := s.repo.ListCartItems(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, err := s.repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, Line{Item: it, Product: catalog.ViewFor(p, user.Role)})
	}
	return lines, nil
}

// Summary returns the caller's lines and totals.
func (s *Service) Summary(ctx context.Context, user auth.User) (Summary, error) {
	lines, err := s.List(ctx, user)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Items: lines, Totals: ComputeTotals(lines, user.Role)}, nil
}

// ComputeTotals prices lines for role.
func ComputeTotals(lines []Line, role auth.Role) pricing.Totals {
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		priced = append(priced, pricing.Line{Prices: l.Product.Prices(), Quantity: l.Quantity})
	}
	return pricing.ComputeTotals(priced, role)
}

func (s *Service) owned(ctx context.Context, user auth.User, id int64) (Item, error) {
	item, err := s.repo.GetCartItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if item.UserID != user.ID {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (s *Service) record(op string) {
	if s.recorder != nil {
		s.recorder.CartMutation(op)
	}
}
