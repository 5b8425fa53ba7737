package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greengrocer/storefront/internal/cart"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/platform/db"
)

// Repository defines order persistence.
type Repository interface {
	// WithTx runs fn atomically. Writes made through the TxRepository are
	// discarded when fn returns an error.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]Item, error)
	UpdateOrder(ctx context.Context, order Order) (Order, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// TxRepository is the view of the store available while placing an order.
type TxRepository interface {
	ListCartItems(ctx context.Context, userID int64) ([]cart.Item, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	CreateOrder(ctx context.Context, order Order) (Order, error)
	CreateOrderItem(ctx context.Context, item Item) (Item, error)
	ClearCart(ctx context.Context, userID int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)

func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, user_id, status, total_amount, order_date, shipping_address, billing_address, payment_method`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                          Order
		status                     string
		shipping, billing, payment pgtype.Text
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.OrderDate, &shipping, &billing, &payment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	o.Status = Status(status)
	o.ShippingAddress = shipping.String
	o.BillingAddress = billing.String
	o.PaymentMethod = payment.String
	return o, nil
}

func (r *PGRepository) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PGRepository) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *PGRepository) ListOrders(ctx context.Context) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (r *PGRepository) ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *PGRepository) ListOrderItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, unit_type
FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.UnitType); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepository) UpdateOrder(ctx context.Context, o Order) (Order, error) {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $2, shipping_address = $3, billing_address = $4, payment_method = $5
WHERE id = $1`, o.ID, string(o.Status), optionalText(o.ShippingAddress), optionalText(o.BillingAddress), optionalText(o.PaymentMethod))
	if err != nil {
		return Order{}, fmt.Errorf("orders: update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *PGRepository) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := catalog.ScanProduct(r.db.QueryRow(ctx, `SELECT `+catalog.ProductColumns+` FROM products p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, err
}

// ListCartItems locks the caller's cart rows so concurrent checkouts of the
// same cart serialize.
func (r *PGRepository) ListCartItems(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, product_id, quantity, unit_type
FROM cart_items WHERE user_id = $1 ORDER BY id FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.UnitType); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepository) CreateOrder(ctx context.Context, o Order) (Order, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO orders (user_id, status, total_amount, order_date, shipping_address, billing_address, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		o.UserID, string(o.Status), o.TotalAmount, o.OrderDate,
		optionalText(o.ShippingAddress), optionalText(o.BillingAddress), optionalText(o.PaymentMethod)).Scan(&o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("orders: insert order: %w", err)
	}
	return o, nil
}

func (r *PGRepository) CreateOrderItem(ctx context.Context, it Item) (Item, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO order_items (order_id, product_id, quantity, unit_price, unit_type)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.UnitType).Scan(&it.ID)
	if err != nil {
		return Item{}, fmt.Errorf("orders: insert order item: %w", err)
	}
	return it, nil
}

func (r *PGRepository) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
