package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/umar/horizon-chat/internal/metrics"
	"github.com/umar/horizon-chat/internal/models"
)

const DefaultSnapshotLimit = 50

// Outcome describes what Apply did with an event.
type Outcome int

const (
	Ignored Outcome = iota
	Appended
	Replaced
	Removed
	Counted
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	case Counted:
		return "counted"
	}
	return "ignored"
}

type Snapshotter interface {
	Snapshot(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

type ReceiptQueue interface {
	Enqueue(msg models.Message) bool
}

type Notifier interface {
	Notify(msg models.Message)
}

type Options struct {
	Viewer        models.Viewer
	Snapshots     Snapshotter
	Receipts      ReceiptQueue
	Notifier      Notifier
	SnapshotLimit int
	Logger        *slog.Logger
}

// Reconciler keeps the message list of the active room and the unread
// counters of every other room.
type Reconciler struct {
	viewer    models.Viewer
	snapshots Snapshotter
	receipts  ReceiptQueue
	notifier  Notifier
	limit     int
	log       *slog.Logger

	mu         sync.Mutex
	activeRoom string
	generation uint64
	messages   []models.Message
	unread     map[string]int
}

func NewReconciler(opts Options) *Reconciler {
	limit := opts.SnapshotLimit
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		viewer:    opts.Viewer,
		snapshots: opts.Snapshots,
		receipts:  opts.Receipts,
		notifier:  opts.Notifier,
		limit:     limit,
		log:       logger,
		unread:    make(map[string]int),
	}
}

// Activate makes roomID the active room. The previous list is dropped
// before the snapshot is requested; a snapshot that returns after another
// room was activated is discarded.
func (r *Reconciler) Activate(ctx context.Context, roomID string) error {
	r.mu.Lock()
	r.activeRoom = roomID
	r.generation++
	gen := r.generation
	r.messages = nil
	delete(r.unread, roomID)
	r.mu.Unlock()

	snapshot, err := r.snapshots.Snapshot(ctx, roomID, r.limit)
	if err != nil {
		r.log.Error("failed to load snapshot", "room_id", roomID, "error", err)
		metrics.SnapshotFailures.Inc()
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		r.log.Debug("discarding stale snapshot", "room_id", roomID)
		return nil
	}
	r.messages = make([]models.Message, len(snapshot))
	copy(r.messages, snapshot)
	for _, m := range r.messages {
		r.trackRead(m)
	}
	return nil
}

func (r *Reconciler) Apply(ev Event) Outcome {
	msg := ev.Msg()

	r.mu.Lock()
	outcome := Ignored
	notify := false
	active := msg.RoomID == r.activeRoom && r.activeRoom != ""

	switch ev.(type) {
	case Created:
		if active {
			r.messages = append(r.messages, msg)
			r.trackRead(msg)
			outcome = Appended
		} else if msg.SenderID != r.viewer.ID {
			r.unread[msg.RoomID]++
			outcome = Counted
			notify = true
		}
	case Updated:
		if active {
			if i := r.indexOf(msg.ID); i >= 0 {
				msg.ReadBy = mergeReaders(r.messages[i].ReadBy, msg.ReadBy)
				r.messages[i] = msg
				r.trackRead(msg)
				outcome = Replaced
			}
		}
	case Deleted:
		if active {
			if i := r.indexOf(msg.ID); i >= 0 {
				r.messages = append(r.messages[:i], r.messages[i+1:]...)
				outcome = Removed
			}
		}
	}
	r.mu.Unlock()

	metrics.EventsApplied.WithLabelValues(outcome.String()).Inc()
	if notify && r.notifier != nil {
		r.notifier.Notify(msg)
	}
	return outcome
}

// trackRead hands messages the viewer has not read yet to the receipt
// queue. Callers hold r.mu.
func (r *Reconciler) trackRead(m models.Message) {
	if r.receipts == nil || m.HasReader(r.viewer.ID) {
		return
	}
	r.receipts.Enqueue(m)
}

// mergeReaders unions two read-sets so that a reordered update never
// drops a reader already seen.
func mergeReaders(have, incoming []string) []string {
	out := make([]string, 0, len(have)+len(incoming))
	seen := make(map[string]struct{}, len(have)+len(incoming))
	for _, list := range [][]string{have, incoming} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (r *Reconciler) indexOf(id string) int {
	for i := range r.messages {
		if r.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) ActiveRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeRoom
}

func (r *Reconciler) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Reconciler) Unread(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread[roomID]
}

func (r *Reconciler) UnreadCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.unread))
	for k, v := range r.unread {
		out[k] = v
	}
	return out
}
