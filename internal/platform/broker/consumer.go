package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"toursApi/internal/shared/events"
)

const retryDelay = time.Second

type KafkaConsumer struct {
	reader *kafka.Reader
	prefix string
}

func NewKafkaConsumer(brokers []string, groupID, prefix, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   prefix + topic,
		}),
		prefix: prefix,
	}
}

// Consume feeds every message to handler until ctx is done.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(events.Event) error) error {
	defer func() { _ = c.reader.Close() }()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			slog.Warn("kafka read error", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}
		event := decodeEvent(m, c.prefix)
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("entity", event.Entity),
			slog.String("action", event.Action),
			slog.String("resourceId", event.ResourceID),
		)
		if err := handler(event); err != nil {
			slog.Warn("kafka handler error", slog.String("topic", event.Topic), slog.Any("error", err))
		}
	}
}

func decodeEvent(m kafka.Message, prefix string) events.Event {
	topic := strings.TrimPrefix(m.Topic, prefix)
	var event events.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		entity, action := events.SplitTopic(topic)
		return events.Event{
			Topic:     topic,
			Entity:    entity,
			Action:    firstNonEmpty(action, "unknown"),
			Data:      string(m.Value),
			Timestamp: time.Now().UTC(),
		}
	}

	entity, action := events.SplitTopic(firstNonEmpty(event.Topic, topic))
	event.Entity = firstNonEmpty(event.Entity, entity)
	event.Action = firstNonEmpty(event.Action, action, "unknown")
	if event.Topic == "" {
		event.Topic = events.Topic(event.Entity, event.Action)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = m.Time.UTC()
	}
	return event
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
