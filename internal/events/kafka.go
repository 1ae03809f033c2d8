package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/chrissnell/remoteclimate/pkg/config"
)

// Message header names.
const (
	HeaderEventType   = "event-type"
	HeaderProcessedAt = "processed_at"
)

// messageWriter is the part of kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces record events to a Kafka topic, keyed by station
// so each station's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a producer for the configured topic.
func NewKafkaPublisher(cfg *config.KafkaData) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           cfg.Timeout(),
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

// Publish serializes and writes the events in a single WriteMessages call.
func (p *KafkaPublisher) Publish(ctx context.Context, events []RecordEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish record events: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(e RecordEvent) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(e.StationID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(e.Kind)},
			{Key: HeaderProcessedAt, Value: []byte(e.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
