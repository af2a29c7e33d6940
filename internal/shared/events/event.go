package events

import (
	"context"
	"strings"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	// Wildcard handlers receive every event.
	Wildcard = "*"
)

// Event describes a change to a stored record.
type Event struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// New stamps an event for entity/action.
func New(entity, action, resourceID string, data any) Event {
	return Event{
		Topic:      Topic(entity, action),
		Entity:     strings.TrimSpace(entity),
		Action:     strings.TrimSpace(action),
		ResourceID: resourceID,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}
}

// Publisher hands events to whoever is interested in them.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler reacts to events on one topic, or on every topic when Topic
// returns Wildcard.
type Handler interface {
	Topic() string
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc struct {
	Name string
	Fn   func(ctx context.Context, event Event) error
}

func (h HandlerFunc) Topic() string {
	return h.Name
}

func (h HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.Fn(ctx, event)
}

// Topic returns the canonical "<entity>.<action>" topic.
func Topic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.TrimSpace(action)
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}

func CreatedTopic(entity string) string {
	return Topic(entity, ActionCreated)
}

func UpdatedTopic(entity string) string {
	return Topic(entity, ActionUpdated)
}

func DeletedTopic(entity string) string {
	return Topic(entity, ActionDeleted)
}

// SplitTopic is the inverse of Topic.
func SplitTopic(topic string) (string, string) {
	idx := strings.LastIndex(topic, ".")
	if idx <= 0 || idx == len(topic)-1 {
		return strings.TrimSpace(topic), ""
	}
	return topic[:idx], topic[idx+1:]
}
