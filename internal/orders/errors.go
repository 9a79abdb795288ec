package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest rejects malformed input before any reservation runs.
	ErrInvalidRequest = errors.New("invalid order request")

	// ErrNotFound covers missing users and missing products.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is the business failure: the requested quantity
	// exceeds what is available.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrentModification signals a lost version race on the product
	// row. Transient: the whole placement is safe to retry.
	ErrConcurrentModification = errors.New("concurrent stock modification")

	// ErrStorageFailure wraps infrastructure faults. No partial state is
	// left behind, so retrying the request is safe.
	ErrStorageFailure = errors.New("storage failure")
)

// InsufficientStockError names the offending product so callers can render a
// precise message. Unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
