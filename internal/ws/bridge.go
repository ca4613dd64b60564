package ws

import (
	"context"

	"go.uber.org/zap"

	"marketplace-chat-service/internal/notifier"
)

// Bridge pumps notifier events into the hub, so subscribers attached to
// this instance see messages published from any instance.
type Bridge struct {
	events notifier.Notifier
	hub    *Hub
	logger *zap.Logger
}

// NewBridge constructs a Bridge.
func NewBridge(events notifier.Notifier, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{events: events, hub: hub, logger: logger}
}

// Run blocks consuming events until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	err := b.events.Subscribe(ctx, b.hub.Broadcast)
	if err != nil && ctx.Err() == nil {
		b.logger.Error("notifier subscription ended", zap.Error(err))
	}
}
