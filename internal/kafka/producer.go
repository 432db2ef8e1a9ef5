package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

// Producer writes envelopes synchronously so the caller learns about broker
// failures before the request returns. One writer serves every topic.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, ev catalog.Envelope) error {
	m, err := NewMessage(topic, key, ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, m)
}

func (p *Producer) Close() error { return p.w.Close() }
