package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer writes messages through a buffered inbox so callers never wait on
// the broker. Delivery is best effort: write errors are logged, not returned.
type Producer struct {
	w       *kafka.Writer
	log     *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int, log *zap.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the flush loop until Close drains the inbox.
func (p *Producer) Start() {
	go func() {
		for m := range p.inbox {
			p.write(m)
		}
		_ = p.w.Close()
		close(p.closeCh)
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("kafka publish failed",
			zap.String("topic", p.w.Topic),
			zap.ByteString("key", m.Key),
			zap.Error(err))
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close stops accepting messages; the loop flushes what is buffered and exits.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the flush loop has finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
