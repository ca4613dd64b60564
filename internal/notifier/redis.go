package notifier

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplace-chat-service/internal/models"
)

// RedisNotifier implements Notifier over Redis pub/sub, so events reach
// subscribers attached to any instance of the service.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier constructs a RedisNotifier.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

// Publish sends the event on the conversation's channel.
func (n *RedisNotifier) Publish(ctx context.Context, event models.MessageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, ChannelFor(event.ConversationID), payload).Err()
}

// Subscribe consumes every conversation channel until ctx is cancelled.
func (n *RedisNotifier) Subscribe(ctx context.Context, handler func(models.MessageEvent)) error {
	sub := n.client.PSubscribe(ctx, ChannelPattern)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var event models.MessageEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			n.logger.Warn("notifier: dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		handler(event)
	}
}
