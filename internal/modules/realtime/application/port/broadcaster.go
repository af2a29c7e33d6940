package port

import (
	"context"

	"toursApi/internal/modules/realtime/domain"
)

// Broadcaster delivers messages to connected live clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}
