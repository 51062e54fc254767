package receipts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/umar/horizon-chat/internal/metrics"
	"github.com/umar/horizon-chat/internal/models"
	"golang.org/x/time/rate"
)

const DefaultInterval = 500 * time.Millisecond

var ErrAlreadyRunning = errors.New("receipt queue is already draining")

// Store is the part of the backing store the queue writes through.
// GetMessage returns nil, nil when the message no longer exists.
type Store interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	AppendReader(ctx context.Context, messageID, viewerID string) error
}

// Queue marks messages as read by one viewer. Enqueue may be called from
// any goroutine; Run is the only consumer.
type Queue struct {
	store    Store
	viewerID string
	limiter  *rate.Limiter
	log      *slog.Logger

	mu     sync.Mutex
	items  []models.Message
	queued map[string]struct{}

	wake    chan struct{}
	running atomic.Bool
}

func NewQueue(store Store, viewerID string, interval time.Duration, logger *slog.Logger) *Queue {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		store:    store,
		viewerID: viewerID,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		log:      logger,
		queued:   make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue adds msg unless the viewer already read it or it is already
// waiting. It reports whether the message was added.
func (q *Queue) Enqueue(msg models.Message) bool {
	if msg.HasReader(q.viewerID) {
		return false
	}

	q.mu.Lock()
	if _, ok := q.queued[msg.ID]; ok {
		q.mu.Unlock()
		return false
	}
	q.queued[msg.ID] = struct{}{}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run drains the queue until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)

	for {
		msg, ok := q.peek()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
				continue
			}
		}

		if err := q.limiter.Wait(ctx); err != nil {
			return err
		}
		q.process(ctx, msg)
		q.pop()
	}
}

func (q *Queue) peek() (models.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.Message{}, false
	}
	return q.items[0], true
}

// pop removes the head. The id stays in queued until now so that an
// Enqueue during processing is a no-op.
func (q *Queue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	head := q.items[0]
	q.items[0] = models.Message{}
	q.items = q.items[1:]
	delete(q.queued, head.ID)
}

func (q *Queue) process(ctx context.Context, msg models.Message) {
	current, err := q.store.GetMessage(ctx, msg.ID)
	if err != nil {
		q.log.Error("failed to re-check read receipt", "message_id", msg.ID, "error", err)
		metrics.ReceiptsProcessed.WithLabelValues("failed").Inc()
		return
	}
	if current == nil {
		metrics.ReceiptsProcessed.WithLabelValues("gone").Inc()
		return
	}
	if current.HasReader(q.viewerID) {
		metrics.ReceiptsProcessed.WithLabelValues("skipped").Inc()
		return
	}

	if err := q.store.AppendReader(ctx, msg.ID, q.viewerID); err != nil {
		q.log.Error("failed to mark message read", "message_id", msg.ID, "room_id", msg.RoomID, "error", err)
		metrics.ReceiptsProcessed.WithLabelValues("failed").Inc()
		return
	}
	metrics.ReceiptsProcessed.WithLabelValues("written").Inc()
}
