package broker

import (
	"context"

	"toursApi/internal/shared/events"
)

// StartKafkaConsumers reads each topic in its own goroutine and dispatches
// what it reads through registry. Without brokers it does nothing.
func StartKafkaConsumers(
	ctx context.Context,
	registry *events.Registry,
	brokers []string,
	groupID string,
	prefix string,
	topics []string,
) {
	if len(brokers) == 0 {
		return
	}
	for _, topic := range topics {
		go func(tp string) {
			consumer := NewKafkaConsumer(brokers, groupID, prefix, tp)
			_ = consumer.Consume(ctx, func(event events.Event) error {
				return registry.Dispatch(ctx, event)
			})
		}(topic)
	}
}

// EntityTopics lists the created, updated and deleted topics of entities.
func EntityTopics(entities ...string) []string {
	topics := make([]string, 0, len(entities)*3)
	for _, entity := range entities {
		topics = append(topics,
			events.CreatedTopic(entity),
			events.UpdatedTopic(entity),
			events.DeletedTopic(entity),
		)
	}
	return topics
}
