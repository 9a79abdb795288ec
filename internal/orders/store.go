package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// CreateOrder inserts the order row and all its items in one transaction.
func (r *Repo) CreateOrder(ctx context.Context, o Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.UserID, string(o.Status), o.TotalCents, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, i, l.ProductID, l.Quantity, l.PriceCents,
		)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// ListByUser returns the user's orders in insertion order, each with its
// items in position order.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, status, total_cents, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	ids := make([]string, 0)
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Order{}, nil
	}

	itemRows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, quantity, price_cents
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var l Line
		if err := itemRows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, err
		}
		i := index[orderID]
		out[i].Items = append(out[i].Items, l)
	}
	return out, itemRows.Err()
}

// GetStatus is a point read used by the status endpoint and its cache.
func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}
