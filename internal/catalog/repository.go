package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db}
}

var _ Repository = (*PGRepository)(nil)

func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, icon FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PGRepository) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT id, name, description, icon FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	return c, err
}

func (r *PGRepository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	query := `INSERT INTO categories (name, description, icon) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRow(ctx, query, c.Name, optionalText(c.Description), optionalText(c.Icon)).Scan(&c.ID); err != nil {
		return Category{}, fmt.Errorf("catalog: insert category: %w", err)
	}
	return c, nil
}

func (r *PGRepository) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name = $2, description = $3, icon = $4 WHERE id = $1`,
		c.ID, c.Name, optionalText(c.Description), optionalText(c.Icon))
	if err != nil {
		return Category{}, fmt.Errorf("catalog: update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (r *PGRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ProductColumns is the column list understood by ScanProduct.
const ProductColumns = `p.id, p.name, p.description, p.image, p.category_id, p.retail_price, p.wholesale_price,
p.original_price, p.stock, p.unit, p.unit_options, p.status, p.is_bestseller, p.is_limited, p.is_organic,
p.is_local, p.origin, p.rating, p.created_at`

// ScanProduct reads a row selected with ProductColumns. Other packages use it
// when joining products onto their own rows.
func ScanProduct(row pgx.Row, extra ...any) (Product, error) {
	var (
		p                Product
		image, origin    pgtype.Text
		categoryID       pgtype.Int8
		original, rating pgtype.Float8
		status           string
	)
	dest := []any{&p.ID, &p.Name, &p.Description, &image, &categoryID, &p.RetailPrice, &p.WholesalePrice,
		&original, &p.Stock, &p.Unit, &p.UnitOptions, &status, &p.IsBestseller, &p.IsLimited, &p.IsOrganic,
		&p.IsLocal, &origin, &rating, &p.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Product{}, err
	}
	p.Image = image.String
	p.Origin = origin.String
	p.CategoryID = categoryID.Int64
	p.OriginalPrice = original.Float64
	p.Rating = rating.Float64
	p.Status = Status(status)
	if p.UnitOptions == nil {
		p.UnitOptions = []UnitOption{}
	}
	return p, nil
}

func (r *PGRepository) ListProducts(ctx context.Context, filters ListFilters) ([]Product, error) {
	query := `SELECT ` + ProductColumns + ` FROM products p WHERE TRUE`
	args := []any{}
	argCount := 0

	if filters.CategoryID != nil {
		argCount++
		query += ` AND p.category_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CategoryID)
	}
	if filters.Search != "" {
		argCount++
		query += ` AND (p.name ILIKE $` + strconv.Itoa(argCount) + ` OR p.description ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY ` + sortOrderProduct(filters.Sort)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PGRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := ScanProduct(r.db.QueryRow(ctx, `SELECT `+ProductColumns+` FROM products p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PGRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	query := `INSERT INTO products (name, description, image, category_id, retail_price, wholesale_price, original_price,
stock, unit, unit_options, status, is_bestseller, is_limited, is_organic, is_local, origin, rating)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, productArgs(p)...).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: insert product: %w", err)
	}
	return p, nil
}

func (r *PGRepository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	query := `UPDATE products SET name = $1, description = $2, image = $3, category_id = $4, retail_price = $5,
wholesale_price = $6, original_price = $7, stock = $8, unit = $9, unit_options = $10, status = $11,
is_bestseller = $12, is_limited = $13, is_organic = $14, is_local = $15, origin = $16, rating = $17
WHERE id = $18`
	tag, err := r.db.Exec(ctx, query, append(productArgs(p), p.ID)...)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *PGRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func productArgs(p Product) []any {
	options := p.UnitOptions
	if options == nil {
		options = []UnitOption{}
	}
	return []any{
		p.Name, p.Description, optionalText(p.Image), pgtype.Int8{Int64: p.CategoryID, Valid: p.CategoryID > 0}, p.RetailPrice, p.WholesalePrice,
		pgtype.Float8{Float64: p.OriginalPrice, Valid: p.OriginalPrice > 0},
		p.Stock, p.Unit, options, string(p.Status), p.IsBestseller, p.IsLimited, p.IsOrganic, p.IsLocal,
		optionalText(p.Origin), pgtype.Float8{Float64: p.Rating, Valid: p.Rating > 0},
	}
}

func scanCategory(row pgx.Row) (Category, error) {
	var (
		c                 Category
		description, icon pgtype.Text
	)
	if err := row.Scan(&c.ID, &c.Name, &description, &icon); err != nil {
		return Category{}, err
	}
	c.Description = description.String
	c.Icon = icon.String
	return c, nil
}

func sortOrderProduct(sortBy string) string {
	switch sortBy {
	case SortPriceAsc:
		return "p.retail_price ASC, p.id ASC"
	case SortPriceDesc:
		return "p.retail_price DESC, p.id ASC"
	case SortNewest:
		return "p.created_at DESC, p.id DESC"
	default:
		return "p.is_bestseller DESC, p.id ASC"
	}
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
