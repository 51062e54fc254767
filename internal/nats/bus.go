package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "chat.room."

// Bus carries room events over NATS subjects chat.room.<id>. Room ids
// must not contain dots.
type Bus struct {
	conn *nats.Conn
}

func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("horizon"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Bus{conn: nc}, nil
}

func Subject(roomID string) string {
	return subjectPrefix + roomID
}

func (b *Bus) Publish(ctx context.Context, roomID string, data []byte) error {
	if strings.Contains(roomID, ".") {
		return fmt.Errorf("room id %q cannot be used as a NATS subject", roomID)
	}
	return b.conn.Publish(Subject(roomID), data)
}

// Subscribe delivers every room event to handler until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, handler func(roomID string, data []byte)) error {
	sub, err := b.conn.Subscribe(subjectPrefix+"*", func(msg *nats.Msg) {
		handler(strings.TrimPrefix(msg.Subject, subjectPrefix), msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

func (b *Bus) Close() error {
	b.conn.Close()
	return nil
}
