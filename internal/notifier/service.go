package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/orderstack/go-commerce-orders/internal/kafka"
	"github.com/orderstack/go-commerce-orders/internal/orders"
	"github.com/orderstack/go-commerce-orders/internal/redisx"
)

// Dedup remembers processed event ids. The topic delivers at least once; the
// post-order work should run once per order.
type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type RedisDedup struct {
	Client  *redis.Client
	Service string
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, d.Client, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID))
}

func (d *RedisDedup) Mark(ctx context.Context, eventID string) error {
	return d.Client.Set(ctx, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID), "1", redisx.TTLDedup).Err()
}

// Service runs the post-order actions for each placed order.
type Service struct {
	Dedup Dedup
	Log   *zap.Logger
}

// HandleOrderPlaced is the consumer handler for the order.placed topic.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	seen, err := s.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		s.Log.Warn("dedup check failed", zap.String("event_id", env.EventID), zap.Error(err))
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.Log.Info("processing placed order",
		zap.String("order_id", p.OrderID),
		zap.String("user_id", p.UserID),
		zap.Int64("total_cents", p.TotalCents))

	if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
		s.Log.Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(err))
	}

	s.Log.Info("post-order actions complete", zap.String("order_id", p.OrderID))
	return nil
}
