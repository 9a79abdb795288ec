package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repo is the catalog side of the products table: plain CRUD, no stock
// protocol. Every mutation bumps the version the inventory ledger checks.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price_cents, quantity, version, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Quantity, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, quantity, version, created_at, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Quantity, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, p Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, name, price_cents, quantity)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.PriceCents, p.Quantity)
	if err != nil {
		return fmt.Errorf("create product %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name = $2, price_cents = $3, quantity = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.PriceCents, p.Quantity)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
