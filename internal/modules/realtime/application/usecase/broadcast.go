package usecase

import (
	"context"

	"toursApi/internal/modules/realtime/application/port"
	"toursApi/internal/modules/realtime/domain"
)

type BroadcastUseCase struct {
	broadcaster port.Broadcaster
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, msg *domain.Message) {
	if msg == nil || msg.Topic == "" {
		return
	}
	uc.broadcaster.Broadcast(ctx, msg)
}
