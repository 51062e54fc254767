package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/umar/horizon-chat/internal/chat"
	"github.com/umar/horizon-chat/internal/models"
)

var (
	ErrForbidden = errors.New("not allowed")
	ErrNotFound  = errors.New("not found")
)

// Documents is the document store behind the backend.
type Documents interface {
	RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	Message(ctx context.Context, id string) (*models.Message, error)
	InsertMessage(ctx context.Context, m models.Message) (*models.Message, error)
	AppendReader(ctx context.Context, messageID, userID string) (*models.Message, error)
	RemoveMessage(ctx context.Context, id string) (*models.Message, error)
	RoomsFor(ctx context.Context, userID string) ([]models.Room, error)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}

// Bus is the realtime channel every write is announced on.
type Bus interface {
	Publish(ctx context.Context, roomID string, data []byte) error
	Subscribe(ctx context.Context, handler func(roomID string, data []byte)) error
	Close() error
}

// Backend is the document store plus its change feed. Every successful
// write is published as a Created, Updated or Deleted event.
type Backend struct {
	docs Documents
	bus  Bus
	log  *slog.Logger
}

func New(docs Documents, bus Bus, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{docs: docs, bus: bus, log: logger}
}

func (b *Backend) Snapshot(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	return b.docs.RecentMessages(ctx, roomID, limit)
}

func (b *Backend) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return b.docs.Message(ctx, id)
}

func (b *Backend) ListRooms(ctx context.Context, viewerID string) ([]models.Room, error) {
	return b.docs.RoomsFor(ctx, viewerID)
}

func (b *Backend) CreateMessage(ctx context.Context, m models.Message) (*models.Message, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	member, err := b.docs.IsMember(ctx, m.RoomID, m.SenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("%w: not a member of room %s", ErrForbidden, m.RoomID)
	}

	created, err := b.docs.InsertMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	b.publish(ctx, chat.Created{Message: *created})
	return created, nil
}

// AppendReader adds viewerID to the message's read-set. A message that is
// gone or already read is left alone.
func (b *Backend) AppendReader(ctx context.Context, messageID, viewerID string) error {
	updated, err := b.docs.AppendReader(ctx, messageID, viewerID)
	if err != nil {
		return err
	}
	if updated != nil {
		b.publish(ctx, chat.Updated{Message: *updated})
	}
	return nil
}

// DeleteMessage removes a message sent by viewerID.
func (b *Backend) DeleteMessage(ctx context.Context, viewerID, messageID string) error {
	m, err := b.docs.Message(ctx, messageID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if m.SenderID != viewerID {
		return fmt.Errorf("%w: message %s belongs to another sender", ErrForbidden, messageID)
	}

	deleted, err := b.docs.RemoveMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrNotFound
	}
	b.publish(ctx, chat.Deleted{Message: *deleted})
	return nil
}

// Subscribe decodes the change feed and hands typed events to handler
// until ctx is done. Frames that do not decode are logged and skipped.
func (b *Backend) Subscribe(ctx context.Context, handler func(chat.Event)) error {
	return b.bus.Subscribe(ctx, func(roomID string, data []byte) {
		ev, err := chat.DecodeEvent(data)
		if err != nil {
			b.log.Warn("dropping undecodable event", "room_id", roomID, "error", err)
			return
		}
		handler(ev)
	})
}

func (b *Backend) publish(ctx context.Context, ev chat.Event) {
	data, err := chat.EncodeEvent(ev)
	if err != nil {
		b.log.Error("failed to encode event", "message_id", ev.Msg().ID, "error", err)
		return
	}
	if err := b.bus.Publish(ctx, ev.Msg().RoomID, data); err != nil {
		b.log.Error("failed to publish event", "room_id", ev.Msg().RoomID, "error", err)
	}
}
