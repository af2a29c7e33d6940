package domain

import (
	"strings"
	"time"

	"toursApi/internal/shared/events"
	"toursApi/internal/shared/normalization"
)

const (
	SystemEntity = "system"

	TopicSystemConnected = SystemEntity + ".connected"

	ActionConnected = "connected"
)

// Message is what live clients receive.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// FromEvent copies a store event into a message.
func FromEvent(event events.Event) *Message {
	topic := event.Topic
	if topic == "" {
		topic = events.Topic(event.Entity, event.Action)
	}
	return &Message{
		Topic:      topic,
		Entity:     event.Entity,
		Action:     event.Action,
		ResourceID: event.ResourceID,
		Metadata:   event.Metadata,
		Data:       event.Data,
		Timestamp:  event.Timestamp,
	}
}

// Collection names the resource collection the message is about, e.g.
// "bookings" for a "booking.created" message.
func (m *Message) Collection() string {
	entity := m.Entity
	if entity == "" {
		entity, _ = events.SplitTopic(m.Topic)
	}
	return normalization.NormalizeEntity(entity)
}

// Target returns the metadata key restricting delivery, if any.
func (m *Message) Target(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(m.Metadata[key])
}

// Connected greets a client that just attached. An empty list of
// collections means every collection.
func Connected(sessionID, userID string, collections []string) *Message {
	subscribed := collections
	if len(subscribed) == 0 {
		subscribed = []string{events.Wildcard}
	}
	return &Message{
		Topic:  TopicSystemConnected,
		Entity: SystemEntity,
		Action: ActionConnected,
		Metadata: map[string]string{
			"sessionId": sessionID,
			"userId":    userID,
		},
		Data:      map[string]any{"collections": subscribed},
		Timestamp: time.Now().UTC(),
	}
}
