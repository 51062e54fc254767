package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umar/horizon-chat/internal/app"
	"github.com/umar/horizon-chat/internal/auth"
	"github.com/umar/horizon-chat/internal/backend"
	"github.com/umar/horizon-chat/internal/drafts"
	"github.com/umar/horizon-chat/internal/models"
)

type fakeSession struct {
	active  string
	msgs    []models.Message
	draft   string
	theme   string
	sendErr error
	deleted []string
	reloads int
}

func (f *fakeSession) Activate(ctx context.Context, roomID string) (*app.Activation, error) {
	if roomID != "ops" {
		return nil, fmt.Errorf("%w: not a member", backend.ErrForbidden)
	}
	f.active = roomID
	return &app.Activation{RoomID: roomID, Draft: f.draft, Messages: f.msgs}, nil
}

func (f *fakeSession) Send(ctx context.Context, body, attachmentID string) (*models.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	m := models.Message{ID: "new", RoomID: f.active, Body: body, AttachmentID: attachmentID}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (f *fakeSession) Delete(ctx context.Context, messageID string) error {
	if messageID == "missing" {
		return backend.ErrNotFound
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) ActiveRoom() string { return f.active }
func (f *fakeSession) Messages() []models.Message { return f.msgs }
func (f *fakeSession) Draft() string { return f.draft }

func (f *fakeSession) Rooms() []models.RoomWithUnread {
	return []models.RoomWithUnread{{Room: models.Room{ID: "ops", Name: "Ops"}, UnreadCount: 3}}
}

func (f *fakeSession) ReloadRooms(ctx context.Context) ([]models.RoomWithUnread, error) {
	f.reloads++
	return f.Rooms(), nil
}

func (f *fakeSession) PendingReceipts() int { return 4 }

func (f *fakeSession) UpdateDraft(text string) error {
	if f.active == "" {
		return app.ErrNoActiveRoom
	}
	f.draft = text
	return nil
}

func (f *fakeSession) Theme() (string, error) { return f.theme, nil }

func (f *fakeSession) SetTheme(theme string) error {
	if theme != drafts.ThemeLight && theme != drafts.ThemeDark {
		return drafts.ErrInvalidTheme
	}
	f.theme = theme
	return nil
}

const testSecret = "handler-secret"

var anon = models.Viewer{ID: "anon-1", DisplayName: "Anonymous", Anonymous: true}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := &fakeSession{active: "ops"}
	rec := do(t, NewRouter(s, RouterConfig{Viewer: anon, Bus: "nats"}), "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "nats", body["bus"])
	assert.Equal(t, "ops", body["active_room"])
	assert.Equal(t, float64(4), body["pending_receipts"])
}

func TestReloadRooms(t *testing.T) {
	s := &fakeSession{}
	r := NewRouter(s, RouterConfig{Viewer: anon})

	rec := do(t, r, "POST", "/api/rooms/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.reloads)
	assert.Contains(t, rec.Body.String(), `"id":"ops"`)
}

func TestMetricsRoute(t *testing.T) {
	rec := do(t, NewRouter(&fakeSession{}, RouterConfig{Viewer: anon}), "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "horizon_receipt_queue_depth")
}

func TestActivateAndList(t *testing.T) {
	s := &fakeSession{draft: "half", msgs: []models.Message{{ID: "m1", RoomID: "ops", Body: "hi"}}}
	r := NewRouter(s, RouterConfig{Viewer: anon})

	rec := do(t, r, "POST", "/api/rooms/secret/activate", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, r, "POST", "/api/rooms/ops/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var act app.Activation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &act))
	assert.Equal(t, "half", act.Draft)
	assert.Len(t, act.Messages, 1)

	rec = do(t, r, "GET", "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread_count":3`)
	assert.Contains(t, rec.Body.String(), `"active_room":"ops"`)
}

func TestSendMessage(t *testing.T) {
	s := &fakeSession{active: "ops"}
	r := NewRouter(s, RouterConfig{Viewer: anon})

	rec := do(t, r, "POST", "/api/messages", `{"body":"hello"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, "POST", "/api/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, "POST", "/api/messages", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.sendErr = fmt.Errorf("%w: denied", backend.ErrForbidden)
	rec = do(t, r, "POST", "/api/messages", `{"body":"hello"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")

	s.sendErr = fmt.Errorf("connection reset")
	rec = do(t, r, "POST", "/api/messages", `{"body":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestDeleteMessage(t *testing.T) {
	s := &fakeSession{active: "ops"}
	r := NewRouter(s, RouterConfig{Viewer: anon})

	assert.Equal(t, http.StatusNoContent, do(t, r, "DELETE", "/api/messages/m1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "DELETE", "/api/messages/missing", "").Code)
	assert.Equal(t, []string{"m1"}, s.deleted)
}

func TestDraftAndTheme(t *testing.T) {
	s := &fakeSession{theme: drafts.ThemeLight}
	r := NewRouter(s, RouterConfig{Viewer: anon})

	assert.Equal(t, http.StatusBadRequest, do(t, r, "PUT", "/api/draft", `{"text":"x"}`).Code)
	s.active = "ops"
	assert.Equal(t, http.StatusNoContent, do(t, r, "PUT", "/api/draft", `{"text":"x"}`).Code)
	assert.Contains(t, do(t, r, "GET", "/api/draft", "").Body.String(), `"text":"x"`)

	assert.Equal(t, http.StatusBadRequest, do(t, r, "PUT", "/api/theme", `{"theme":"neon"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, r, "PUT", "/api/theme", `{"theme":"dark"}`).Code)
	assert.Contains(t, do(t, r, "GET", "/api/theme", "").Body.String(), `"theme":"dark"`)
}

func TestAPIRequiresViewerToken(t *testing.T) {
	viewer := models.Viewer{ID: "u-ada", DisplayName: "Ada"}
	r := NewRouter(&fakeSession{}, RouterConfig{Viewer: viewer, JWTSecret: testSecret})

	assert.Equal(t, http.StatusUnauthorized, do(t, r, "GET", "/api/me", "").Code)

	token, err := auth.GenerateToken(viewer, testSecret, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u-ada"`)
}
