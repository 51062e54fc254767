package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/umar/horizon-chat/internal/app"
	"github.com/umar/horizon-chat/internal/backend"
	"github.com/umar/horizon-chat/internal/drafts"
	"github.com/umar/horizon-chat/internal/models"
)

// Session is the slice of a viewer session the HTTP API drives.
type Session interface {
	Activate(ctx context.Context, roomID string) (*app.Activation, error)
	Send(ctx context.Context, body, attachmentID string) (*models.Message, error)
	Delete(ctx context.Context, messageID string) error
	ActiveRoom() string
	Messages() []models.Message
	Rooms() []models.RoomWithUnread
	ReloadRooms(ctx context.Context) ([]models.RoomWithUnread, error)
	PendingReceipts() int
	Draft() string
	UpdateDraft(text string) error
	Theme() (string, error)
	SetTheme(theme string) error
}

// statusFor maps session errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyMessage),
		errors.Is(err, app.ErrNoActiveRoom),
		errors.Is(err, drafts.ErrInvalidTheme):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeSessionError reports err to the client. Unexpected errors are
// logged with logArgs and hidden behind a generic message.
func writeSessionError(w http.ResponseWriter, err error, logMsg string, logArgs ...interface{}) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(logMsg, append(logArgs, "error", err)...)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
