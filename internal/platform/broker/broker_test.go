package broker

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/shared/events"
)

const prefix = "tours-api."

func TestEncodeDecodeEvent(t *testing.T) {
	event := events.New("booking", events.ActionCreated, "662a1d5b0190b214360dc000", map[string]any{"price": 497.0})

	msg, err := encodeEvent(event, prefix)
	require.NoError(t, err)
	assert.Equal(t, "tours-api.booking.created", msg.Topic)
	assert.Equal(t, "662a1d5b0190b214360dc000", string(msg.Key))

	decoded := decodeEvent(msg, prefix)
	assert.Equal(t, "booking.created", decoded.Topic)
	assert.Equal(t, "booking", decoded.Entity)
	assert.Equal(t, events.ActionCreated, decoded.Action)
	assert.Equal(t, event.ResourceID, decoded.ResourceID)
	assert.Equal(t, 497.0, decoded.Data.(map[string]any)["price"])
}

func TestEncodeWithoutResourceUsesRandomKey(t *testing.T) {
	msg, err := encodeEvent(events.New("tour", events.ActionUpdated, "", nil), prefix)
	require.NoError(t, err)
	assert.Len(t, msg.Key, 36)
}

func TestDecodeInfersFromTopic(t *testing.T) {
	tests := []struct {
		name   string
		msg    kafka.Message
		topic  string
		entity string
		action string
	}{
		{
			name:  "raw payload",
			msg:   kafka.Message{Topic: prefix + "review.deleted", Value: []byte("not json")},
			topic: "review.deleted", entity: "review", action: "deleted",
		},
		{
			name:  "bare json",
			msg:   kafka.Message{Topic: prefix + "tour.updated", Value: []byte(`{"resourceId":"x"}`), Time: time.Unix(0, 0)},
			topic: "tour.updated", entity: "tour", action: "updated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := decodeEvent(tt.msg, prefix)
			if event.Topic != tt.topic || event.Entity != tt.entity || event.Action != tt.action {
				t.Fatalf("expected %s/%s/%s, got %s/%s/%s", tt.topic, tt.entity, tt.action, event.Topic, event.Entity, event.Action)
			}
		})
	}
}

func TestEntityTopics(t *testing.T) {
	assert.Equal(t, []string{"review.created", "review.updated", "review.deleted"}, EntityTopics("review"))
}
