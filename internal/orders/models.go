package orders

import "time"

// Order is created once per successful placement and immutable afterwards.
type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Status     Status    `json:"status"`
	Items      []Line    `json:"items"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// Line is one order position with the unit price captured at reservation
// time. Later catalog price changes never touch a placed order.
type Line struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// ItemRequest is one (product, quantity) pair of a placement request,
// processed strictly in request order.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
