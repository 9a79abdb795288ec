package orders

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/orderstack/go-commerce-orders/internal/kafka"
)

// EventPublisher emits OrderPlaced envelopes to the order.placed topic.
// The producer's buffered inbox keeps placement latency off the broker path.
type EventPublisher struct {
	Producer *kafkax.Producer
	Service  string
}

func (p *EventPublisher) OrderPlaced(o Order) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderPlacedPayload{
			OrderID:    o.ID,
			UserID:     o.UserID,
			TotalCents: o.TotalCents,
		}),
	}
	p.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
