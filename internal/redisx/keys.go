package redisx

import "time"

const (
	// Cache for order status reads: order_status:{order_id} -> status string
	KeyOrderStatus = "order_status:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
