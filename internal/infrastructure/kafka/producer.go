package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/honeynil/ecommerce-api/internal/models"
	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes account events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AccountEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: topic}
}

// Publish writes the event keyed by user id, so events of one user keep
// their order within a partition.
func (p *Producer) Publish(ctx context.Context, event models.AccountEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("failed to send Kafka message", "topic", p.topic, "event_type", event.EventType, "user_id", event.UserID, "error", err)
		return err
	}
	slog.Info("Kafka message sent", "topic", p.topic, "event_type", event.EventType, "user_id", event.UserID)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		slog.Error("failed to close Kafka writer", "error", err)
		return err
	}
	slog.Info("Kafka writer closed")
	return nil
}

func newMessage(event models.AccountEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}, nil
}
