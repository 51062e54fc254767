package models

import (
	"errors"
	"time"
)

var ErrEmptyMessage = errors.New("message needs a body or an attachment")

type Message struct {
	ID                string    `json:"id"`
	RoomID            string    `json:"room_id"`
	SenderID          string    `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	Body              string    `json:"body,omitempty"`
	AttachmentID      string    `json:"attachment_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	ReadBy            []string  `json:"read_by"`
}

func (m Message) Validate() error {
	if m.Body == "" && m.AttachmentID == "" {
		return ErrEmptyMessage
	}
	return nil
}

// HasReader reports whether viewerID is in the read-set.
func (m Message) HasReader(viewerID string) bool {
	for _, id := range m.ReadBy {
		if id == viewerID {
			return true
		}
	}
	return false
}
