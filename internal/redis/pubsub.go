package redisc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "chat:room:"

// Bus carries room events over Redis pub/sub.
type Bus struct {
	client *redis.Client
}

func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

func (b *Bus) Publish(ctx context.Context, roomID string, data []byte) error {
	return b.client.Publish(ctx, roomChannelPrefix+roomID, data).Err()
}

// Subscribe delivers every room event to handler until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, handler func(roomID string, data []byte)) error {
	pubsub := b.client.PSubscribe(ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			roomID := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
			slog.Debug("pubsub message", "room_id", roomID)
			handler(roomID, []byte(msg.Payload))
		}
	}
}

func (b *Bus) Close() error {
	return b.client.Close()
}
