package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"toursApi/internal/shared/events"
)

// KafkaPublisher writes events to "<prefix><entity>.<action>" topics.
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
}

var _ events.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, prefix string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		prefix: prefix,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := encodeEvent(event, p.prefix)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// encodeEvent keys messages by resource so changes to one record stay
// ordered on a partition.
func encodeEvent(event events.Event, prefix string) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", event.Topic, err)
	}
	key := event.ResourceID
	if key == "" {
		key = uuid.NewString()
	}
	return kafka.Message{
		Topic: prefix + event.Topic,
		Key:   []byte(key),
		Value: value,
		Time:  event.Timestamp,
	}, nil
}
