package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ridebooking/internal/modules/store"
)

// Producer publishes booking change events to the broker so other
// processes (and our own consumer) see every write.
type Producer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		log: log.With(zap.String("service", "feed_producer")),
	}
}

// Emit publishes one change event keyed by booking ID, which keeps events
// for the same booking ordered within a partition.
func (p *Producer) Emit(ctx context.Context, ev store.ChangeEvent) error {
	if ev.Booking == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Booking.ID.String()),
		Value: payload,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads the change feed and routes events into the registry. One
// consumer serves every subscription; the registry decides which events
// reach the cache.
type Consumer struct {
	reader   *kafka.Reader
	registry *store.Registry
	log      *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, registry *store.Registry, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
		}),
		registry: registry,
		log:      log.With(zap.String("service", "feed_consumer")),
	}
}

// Run blocks reading the feed until the context is cancelled. Undecodable
// messages are logged and skipped; the feed is at-least-once so the cache
// must already tolerate duplicates.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var ev store.ChangeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Warn("skipping undecodable feed message",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			continue
		}

		c.registry.Dispatch(ctx, ev)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
