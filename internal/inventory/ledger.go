package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderstack/go-commerce-orders/internal/orders"
)

// Ledger owns per-product available quantity and its version counter. The
// decrement is guarded by the version observed at read time, so two writers
// racing on the same product can never both succeed from a stale read. No
// in-process lock: independent service instances share the same store.
type Ledger struct{ DB *pgxpool.Pool }

// Reserve decrements stock for one order line and returns the line with the
// unit price snapshotted at read time.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int) (orders.Line, error) {
	var available int
	var version int64
	var priceCents int64
	err := l.DB.QueryRow(ctx, `
		SELECT quantity, version, price_cents FROM products WHERE id = $1`,
		productID).Scan(&available, &version, &priceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Line{}, fmt.Errorf("%w: product %s", orders.ErrNotFound, productID)
	}
	if err != nil {
		return orders.Line{}, fmt.Errorf("read product %s: %w", productID, err)
	}

	if quantity > available {
		return orders.Line{}, &orders.InsufficientStockError{
			ProductID: productID,
			Available: available,
			Requested: quantity,
		}
	}

	ct, err := l.DB.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3`,
		productID, quantity, version)
	if err != nil {
		return orders.Line{}, fmt.Errorf("decrement product %s: %w", productID, err)
	}
	if ct.RowsAffected() == 0 {
		// A concurrent writer bumped the version between our read and write.
		return orders.Line{}, fmt.Errorf("%w: product %s", orders.ErrConcurrentModification, productID)
	}

	return orders.Line{ProductID: productID, Quantity: quantity, PriceCents: priceCents}, nil
}

// Release adds quantity back after a mid-placement abort. Only the holder of
// the just-created version calls this, so no expected-version guard here.
func (l *Ledger) Release(ctx context.Context, productID string, quantity int) error {
	ct, err := l.DB.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("release product %s: %w", productID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", orders.ErrNotFound, productID)
	}
	return nil
}
