package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry routes events to the handlers registered for their topic.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Topic()] = append(r.handlers[h.Topic()], h)
}

// Topics lists the concrete topics with at least one handler.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		if topic != Wildcard {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Dispatch runs every matching handler and joins their failures.
func (r *Registry) Dispatch(ctx context.Context, event Event) error {
	r.mu.RLock()
	targets := make([]Handler, 0, len(r.handlers[event.Topic])+len(r.handlers[Wildcard]))
	targets = append(targets, r.handlers[event.Topic]...)
	targets = append(targets, r.handlers[Wildcard]...)
	r.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if err := h.Handle(ctx, event); err != nil {
			slog.Warn("event handler failed",
				slog.String("topic", event.Topic),
				slog.String("handler", h.Topic()),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", h.Topic(), err))
		}
	}
	return errors.Join(errs...)
}

// LocalPublisher dispatches events in-process.
type LocalPublisher struct {
	registry *Registry
}

func NewLocalPublisher(registry *Registry) *LocalPublisher {
	return &LocalPublisher{registry: registry}
}

func (p *LocalPublisher) Publish(ctx context.Context, event Event) error {
	return p.registry.Dispatch(ctx, event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error {
	return nil
}
