package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger guards per-product stock with a version-checked conditional write.
// Reserve fails with ErrNotFound, an *InsufficientStockError, or
// ErrConcurrentModification when another writer won the version race.
type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity int) (Line, error)
	Release(ctx context.Context, productID string, quantity int) error
}

// Store persists an order with all its line items as one atomic unit.
type Store interface {
	CreateOrder(ctx context.Context, o Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

// Users answers whether a user id exists.
type Users interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Notifier is the fire-and-forget post-commit sink. Implementations must not
// fail the placement; delivery guarantees belong to the transport.
type Notifier interface {
	OrderPlaced(o Order)
}

const (
	DefaultReserveAttempts = 3
	DefaultReserveBackoff  = 25 * time.Millisecond
)

// Engine turns a list of (product, quantity) requests into a single
// consistent order or no order at all.
type Engine struct {
	Ledger Ledger
	Store  Store
	Users  Users
	Notify Notifier
	Log    *zap.Logger

	// Bounded per-line retry on version conflicts. Liveness safeguard only;
	// the version check alone guarantees correctness.
	ReserveAttempts int
	ReserveBackoff  time.Duration
}

func (e *Engine) PlaceOrder(ctx context.Context, userID string, items []ItemRequest) (Order, error) {
	if err := validateRequest(userID, items); err != nil {
		return Order{}, err
	}

	ok, err := e.Users.Exists(ctx, userID)
	if err != nil {
		return Order{}, fmt.Errorf("%w: resolve user: %w", ErrStorageFailure, err)
	}
	if !ok {
		return Order{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	// Reserve strictly in request order so the first failing item is the one
	// named in the error.
	reserved := make([]Line, 0, len(items))
	for _, it := range items {
		line, err := e.reserveWithRetry(ctx, it)
		if err != nil {
			e.releaseAll(ctx, reserved)
			return Order{}, classifyReserveErr(err)
		}
		reserved = append(reserved, line)
	}

	var total int64
	for _, l := range reserved {
		total += l.PriceCents * int64(l.Quantity)
	}

	// Every line is reserved, so the order is confirmed at persist time.
	o := Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     StatusConfirmed,
		Items:      reserved,
		TotalCents: total,
		CreatedAt:  time.Now().UTC(),
	}

	if err := e.Store.CreateOrder(ctx, o); err != nil {
		// Reservations must not leak stock when the commit fails.
		e.releaseAll(ctx, reserved)
		return Order{}, fmt.Errorf("%w: persist order: %w", ErrStorageFailure, err)
	}

	e.Log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int64("total_cents", total))

	// Best effort, after the commit. A lost notification never reverts a
	// confirmed order.
	e.Notify.OrderPlaced(o)

	return o, nil
}

func (e *Engine) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	ok, err := e.Users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve user: %w", ErrStorageFailure, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	out, err := e.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", ErrStorageFailure, err)
	}
	return out, nil
}

func validateRequest(userID string, items []ItemRequest) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidRequest)
	}
	for i, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item %d has no product id", ErrInvalidRequest, i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrInvalidRequest, i, it.Quantity)
		}
	}
	return nil
}

func (e *Engine) reserveWithRetry(ctx context.Context, it ItemRequest) (Line, error) {
	attempts := e.ReserveAttempts
	if attempts <= 0 {
		attempts = DefaultReserveAttempts
	}
	backoff := e.ReserveBackoff
	if backoff <= 0 {
		backoff = DefaultReserveBackoff
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Line{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		line, err := e.Ledger.Reserve(ctx, it.ProductID, it.Quantity)
		if err == nil {
			return line, nil
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return Line{}, err
		}
		lastErr = err
	}
	return Line{}, lastErr
}

// releaseAll compensates in reverse order. Release failures are logged; there
// is nothing further to roll back to.
func (e *Engine) releaseAll(ctx context.Context, reserved []Line) {
	for i := len(reserved) - 1; i >= 0; i-- {
		l := reserved[i]
		if err := e.Ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
			e.Log.Error("release reservation failed",
				zap.String("product_id", l.ProductID),
				zap.Int("quantity", l.Quantity),
				zap.Error(err))
		}
	}
}

func classifyReserveErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrentModification):
		return err
	default:
		return fmt.Errorf("%w: reserve: %w", ErrStorageFailure, err)
	}
}
