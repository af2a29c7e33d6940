package handler

import (
	"context"
	"log/slog"
	"strings"

	"toursApi/internal/modules/realtime/application/usecase"
	"toursApi/internal/modules/realtime/domain"
	"toursApi/internal/shared/events"
)

// EventForwarder relays every store event to the live clients. Actions can
// be narrowed to cut noise.
type EventForwarder struct {
	allowedActions map[string]struct{}
	broadcastUC    *usecase.BroadcastUseCase
}

func NewEventForwarder(broadcastUC *usecase.BroadcastUseCase, allowedActions ...string) *EventForwarder {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &EventForwarder{allowedActions: actionSet, broadcastUC: broadcastUC}
}

func (h *EventForwarder) Topic() string { return events.Wildcard }

func (h *EventForwarder) Handle(ctx context.Context, event events.Event) error {
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(event.Action)]; !ok {
			return nil
		}
	}
	msg := domain.FromEvent(event)
	slog.Debug("live event forwarded", slog.String("topic", msg.Topic), slog.String("resourceId", msg.ResourceID))
	h.broadcastUC.Execute(ctx, msg)
	return nil
}

var _ events.Handler = (*EventForwarder)(nil)
