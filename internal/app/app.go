package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/umar/horizon-chat/internal/backend"
	"github.com/umar/horizon-chat/internal/chat"
	"github.com/umar/horizon-chat/internal/drafts"
	"github.com/umar/horizon-chat/internal/hub"
	"github.com/umar/horizon-chat/internal/metrics"
	"github.com/umar/horizon-chat/internal/models"
	"github.com/umar/horizon-chat/internal/receipts"
	"github.com/umar/horizon-chat/internal/rooms"
)

var ErrNoActiveRoom = errors.New("no room is active")

// Backend is everything a session needs from the backing store.
type Backend interface {
	chat.Snapshotter
	receipts.Store
	rooms.Source
	CreateMessage(ctx context.Context, m models.Message) (*models.Message, error)
	DeleteMessage(ctx context.Context, viewerID, messageID string) error
	Subscribe(ctx context.Context, handler func(chat.Event)) error
}

// Prefs is the local key/value store for drafts and the theme.
type Prefs interface {
	drafts.KV
	Theme() (string, error)
	SetTheme(theme string) error
}

type Options struct {
	SnapshotLimit   int
	ReceiptInterval time.Duration
	Logger          *slog.Logger
}

// App is one viewer session: every coordination component is built here
// and handed its collaborators explicitly.
type App struct {
	Viewer models.Viewer
	Hub    *hub.Hub

	backend    Backend
	prefs      Prefs
	rooms      *rooms.Cache
	reconciler *chat.Reconciler
	receipts   *receipts.Queue
	composer   *drafts.Composer
	log        *slog.Logger

	// activateMu keeps the composer and the reconciler on the same room.
	activateMu sync.Mutex
}

func New(viewer models.Viewer, be Backend, prefs Prefs, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("viewer_id", viewer.ID)

	roomCache := rooms.NewCache(be, viewer.ID)
	h := hub.New(roomCache, logger)
	queue := receipts.NewQueue(be, viewer.ID, opts.ReceiptInterval, logger)

	return &App{
		Viewer:   viewer,
		Hub:      h,
		backend:  be,
		prefs:    prefs,
		rooms:    roomCache,
		receipts: queue,
		composer: drafts.NewComposer(prefs, logger),
		reconciler: chat.NewReconciler(chat.Options{
			Viewer:        viewer,
			Snapshots:     be,
			Receipts:      queue,
			Notifier:      h,
			SnapshotLimit: opts.SnapshotLimit,
			Logger:        logger,
		}),
		log: logger,
	}
}

// Run loads the room list and drives the hub, the receipt queue and the
// event subscription until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.rooms.Load(ctx); err != nil {
		a.log.Error("room list unavailable", "error", err)
	}
	metrics.TrackQueueDepth(a.receipts.Len)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.Hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := a.receipts.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("receipt queue stopped", "error", err)
		}
	}()

	err := a.backend.Subscribe(ctx, a.handleEvent)
	cancel()
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleEvent applies one feed event. The bus carries every room, so
// events for rooms outside the viewer's membership are dropped here.
func (a *App) handleEvent(ev chat.Event) {
	room := ev.Msg().RoomID
	if !a.rooms.Has(room) {
		a.log.Debug("dropping event for foreign room", "room_id", room, "message_id", ev.Msg().ID)
		return
	}

	outcome := a.reconciler.Apply(ev)
	switch outcome {
	case chat.Appended, chat.Replaced, chat.Removed:
		data, err := chat.EncodeEvent(ev)
		if err != nil {
			a.log.Error("failed to encode event", "error", err)
			return
		}
		a.Hub.Broadcast(data)
	case chat.Counted:
		a.Hub.Send(chat.TypeUnreadUpdate, chat.UnreadUpdatePayload{
			RoomID: room,
			Count:  a.reconciler.Unread(room),
		})
	}
}

type Activation struct {
	RoomID   string           `json:"room_id"`
	Draft    string           `json:"draft"`
	Messages []models.Message `json:"messages"`
}

// Activate switches the session to roomID. A failed snapshot leaves the
// list empty and is not reported as an error.
func (a *App) Activate(ctx context.Context, roomID string) (*Activation, error) {
	if err := a.rooms.Load(ctx); err != nil {
		return nil, err
	}
	if !a.rooms.Has(roomID) {
		return nil, fmt.Errorf("%w: not a member of room %s", backend.ErrForbidden, roomID)
	}

	a.activateMu.Lock()
	defer a.activateMu.Unlock()
	draft := a.composer.Activate(roomID)
	_ = a.reconciler.Activate(ctx, roomID)

	a.Hub.Send(chat.TypeRoomActivated, map[string]string{"room_id": roomID})
	a.Hub.Send(chat.TypeUnreadUpdate, chat.UnreadUpdatePayload{RoomID: roomID, Count: 0})
	return &Activation{RoomID: roomID, Draft: draft, Messages: a.reconciler.Messages()}, nil
}

// Send posts a message to the active room and clears its draft.
func (a *App) Send(ctx context.Context, body, attachmentID string) (*models.Message, error) {
	roomID := a.reconciler.ActiveRoom()
	if roomID == "" {
		return nil, ErrNoActiveRoom
	}
	m := models.Message{
		ID:                uuid.NewString(),
		RoomID:            roomID,
		SenderID:          a.Viewer.ID,
		SenderDisplayName: a.Viewer.DisplayName,
		Body:              body,
		AttachmentID:      attachmentID,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	created, err := a.backend.CreateMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := a.composer.Sent(roomID); err != nil {
		a.log.Error("failed to clear draft", "room_id", roomID, "error", err)
	}
	return created, nil
}

// ReloadRooms drops the cached membership list and fetches it again,
// for when the viewer joined or left rooms elsewhere.
func (a *App) ReloadRooms(ctx context.Context) ([]models.RoomWithUnread, error) {
	a.rooms.Reset(a.Viewer.ID)
	if err := a.rooms.Load(ctx); err != nil {
		return nil, err
	}
	return a.Rooms(), nil
}

func (a *App) Delete(ctx context.Context, messageID string) error {
	return a.backend.DeleteMessage(ctx, a.Viewer.ID, messageID)
}

func (a *App) ActiveRoom() string {
	return a.reconciler.ActiveRoom()
}

func (a *App) Messages() []models.Message {
	return a.reconciler.Messages()
}

func (a *App) Rooms() []models.RoomWithUnread {
	counts := a.reconciler.UnreadCounts()
	list := a.rooms.List()
	out := make([]models.RoomWithUnread, 0, len(list))
	for _, r := range list {
		out = append(out, models.RoomWithUnread{Room: r, UnreadCount: counts[r.ID]})
	}
	return out
}

func (a *App) Draft() string {
	return a.composer.Text()
}

func (a *App) UpdateDraft(text string) error {
	if a.composer.ActiveRoom() == "" {
		return ErrNoActiveRoom
	}
	return a.composer.Update(text)
}

func (a *App) Theme() (string, error) {
	return a.prefs.Theme()
}

func (a *App) SetTheme(theme string) error {
	return a.prefs.SetTheme(theme)
}

func (a *App) PendingReceipts() int {
	return a.receipts.Len()
}
