package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greengrocer/storefront/internal/catalog"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db       *pgxpool.Pool
	products *catalog.PGRepository
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db, products: catalog.NewRepository(db)}
}

var _ Repository = (*PGRepository)(nil)

const itemColumns = `id, user_id, product_id, quantity, unit_type`

func scanItem(row pgx.Row, extra ...any) (Item, error) {
	var it Item
	dest := append([]any{&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.UnitType}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *PGRepository) ListCartItems(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepository) GetCartItem(ctx context.Context, id int64) (Item, error) {
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE id = $1`, id))
}

func (r *PGRepository) UpsertCartItem(ctx context.Context, item Item) (Item, bool, error) {
	query := `INSERT INTO cart_items (user_id, product_id, quantity, unit_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id, unit_type)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
WHERE cart_items.quantity + EXCLUDED.quantity <= $5
RETURNING ` + itemColumns + `, (xmax = 0) AS inserted`
	var inserted bool
	saved, err := scanItem(r.db.QueryRow(ctx, query, item.UserID, item.ProductID, item.Quantity, item.UnitType, MaxQuantity), &inserted)
	if err != nil {
		// The conflict guard suppresses the update, leaving no row to return.
		if errors.Is(err, ErrItemNotFound) {
			return Item{}, false, ErrQuantityLimit
		}
		return Item{}, false, fmt.Errorf("cart: upsert item: %w", err)
	}
	return saved, !inserted, nil
}

func (r *PGRepository) UpdateCartItemQuantity(ctx context.Context, id int64, quantity int) (Item, error) {
	return scanItem(r.db.QueryRow(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1 RETURNING `+itemColumns, id, quantity))
}

func (r *PGRepository) DeleteCartItem(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	return err
}

func (r *PGRepository) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (r *PGRepository) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	return r.products.GetProduct(ctx, id)
}
