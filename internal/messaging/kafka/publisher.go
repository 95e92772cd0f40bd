package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/marketplace-orders/internal/event"
)

// Publisher mirrors pipeline events to a Kafka topic, keyed by order id so
// events for the same order land on the same partition.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	meta := evt.Meta()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(meta.OrderID),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_kind", Value: []byte(evt.Kind())},
			{Key: "event_id", Value: []byte(meta.EventID)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
