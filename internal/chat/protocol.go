package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/umar/horizon-chat/internal/models"
)

// Stream event names.
const (
	TypeMessageNew     = "message.new"
	TypeMessageUpdated = "message.updated"
	TypeMessageDeleted = "message.deleted"
)

// Frames pushed to local UI clients.
const (
	TypeRoomActivated = "room.activated"
	TypeUnreadUpdate  = "unread.update"
	TypeNotification  = "notification"
	TypeError         = "error"
)

var ErrUnknownEvent = errors.New("unknown event type")

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one change notification from the stream. The set of
// implementations is closed: Created, Updated and Deleted.
type Event interface {
	Msg() models.Message
	eventType() string
}

type Created struct{ Message models.Message }
type Updated struct{ Message models.Message }
type Deleted struct{ Message models.Message }

func (e Created) Msg() models.Message { return e.Message }
func (e Updated) Msg() models.Message { return e.Message }
func (e Deleted) Msg() models.Message { return e.Message }

func (Created) eventType() string { return TypeMessageNew }
func (Updated) eventType() string { return TypeMessageUpdated }
func (Deleted) eventType() string { return TypeMessageDeleted }

type UnreadUpdatePayload struct {
	RoomID string `json:"room_id"`
	Count  int    `json:"count"`
}

type NotificationPayload struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Sender   string `json:"sender"`
	Body     string `json:"body"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// DecodeEvent turns one raw stream frame into a typed Event. Both the
// short names (message.new) and document-collection names ending in
// .create/.update/.delete are accepted.
func DecodeEvent(data []byte) (Event, error) {
	var env WSMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	var msg models.Message
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("event %q has no payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("event %q payload has no id", env.Type)
	}

	switch {
	case env.Type == TypeMessageNew || strings.HasSuffix(env.Type, ".create"):
		return Created{Message: msg}, nil
	case env.Type == TypeMessageUpdated || strings.HasSuffix(env.Type, ".update"):
		return Updated{Message: msg}, nil
	case env.Type == TypeMessageDeleted || strings.HasSuffix(env.Type, ".delete"):
		return Deleted{Message: msg}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

func EncodeEvent(ev Event) ([]byte, error) {
	return NewWSMessage(ev.eventType(), ev.Msg())
}

func NewWSMessage(msgType string, payload interface{}) ([]byte, error) {
	var p json.RawMessage
	if payload != nil {
		var err error
		p, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	msg := WSMessage{Type: msgType, Payload: p}
	return json.Marshal(msg)
}
