package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

// Repo reads products and categories. All queries are read-only; the
// admin CRUD that maintains this data lives outside this service.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const productColumns = `id, name, description, price, category_id, is_available, featured, COALESCE(loyalty_tier, 0), COALESCE(image_url, '')`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID,
		&p.Available, &p.Featured, &p.LoyaltyTier, &p.ImageURL)
	return p, err
}

func (r *Repo) ProductByID(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product %d: %w", id, err)
	}
	return p, nil
}

// ProductsByKind lists the available products whose category carries the
// given kind, ordered by name. The wizards use this to offer sides,
// sauces and drinks.
func (r *Repo) ProductsByKind(ctx context.Context, kind Kind) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_available
		  AND category_id IN (SELECT id FROM categories WHERE kind = $1)
		ORDER BY name`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query products by kind %s: %w", kind, err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repo) ProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category_id = $1 AND is_available
		ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query products by category %d: %w", categoryID, err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repo) CategoryByID(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, position, COALESCE(kind, 'none') FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Position, &c.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("query category %d: %w", id, err)
	}
	return c, nil
}

// Categories lists the categories that have products, in display order.
func (r *Repo) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, position, COALESCE(kind, 'none')
		FROM categories
		WHERE EXISTS (SELECT 1 FROM products WHERE products.category_id = categories.id)
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Position, &c.Kind); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
