package notifier

import (
	"context"
	"fmt"

	"marketplace-chat-service/internal/models"
)

// Notifier fans message events out to live subscribers. Delivery is
// best-effort: subscribers connected at publish time observe the event at
// least once, nothing is retained for subscribers that reconnect later.
type Notifier interface {
	Publish(ctx context.Context, event models.MessageEvent) error
	// Subscribe blocks, invoking handler for every event until ctx is done.
	Subscribe(ctx context.Context, handler func(models.MessageEvent)) error
}

// ChannelFor names the pub/sub channel carrying one conversation's events.
func ChannelFor(conversationID int) string {
	return fmt.Sprintf("conversation.events.%d", conversationID)
}

// ChannelPattern matches every conversation channel.
const ChannelPattern = "conversation.events.*"
