package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/modules/realtime/application/usecase"
	"toursApi/internal/modules/realtime/domain"
	"toursApi/internal/shared/events"
)

type captured struct {
	messages []*domain.Message
}

func (c *captured) Broadcast(_ context.Context, msg *domain.Message) {
	c.messages = append(c.messages, msg)
}

func TestForwarderRelaysEvents(t *testing.T) {
	sink := &captured{}
	registry := events.NewRegistry()
	registry.Register(NewEventForwarder(usecase.NewBroadcastUseCase(sink)))

	event := events.New("booking", events.ActionCreated, "662a1d5b0190b214360dc000", map[string]any{"price": 497.0})
	require.NoError(t, registry.Dispatch(context.Background(), event))

	require.Len(t, sink.messages, 1)
	msg := sink.messages[0]
	assert.Equal(t, "booking.created", msg.Topic)
	assert.Equal(t, "bookings", msg.Collection())
	assert.Equal(t, "662a1d5b0190b214360dc000", msg.ResourceID)
}

func TestForwarderFiltersActions(t *testing.T) {
	sink := &captured{}
	forwarder := NewEventForwarder(usecase.NewBroadcastUseCase(sink), "Created")

	require.NoError(t, forwarder.Handle(context.Background(), events.New("review", events.ActionDeleted, "x", nil)))
	require.NoError(t, forwarder.Handle(context.Background(), events.New("review", events.ActionCreated, "y", nil)))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "review.created", sink.messages[0].Topic)
}
