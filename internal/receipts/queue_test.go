package receipts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umar/horizon-chat/internal/metrics"
	"github.com/umar/horizon-chat/internal/models"
)

type write struct {
	id string
	at time.Time
}

type fakeStore struct {
	mu       sync.Mutex
	messages map[string]*models.Message
	failOn   map[string]bool
	writes   []write
}

func newFakeStore(msgs ...models.Message) *fakeStore {
	s := &fakeStore{messages: make(map[string]*models.Message), failOn: make(map[string]bool)}
	for i := range msgs {
		m := msgs[i]
		s.messages[m.ID] = &m
	}
	return s
}

func (s *fakeStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.ReadBy = append([]string(nil), m.ReadBy...)
	return &cp, nil
}

func (s *fakeStore) AppendReader(ctx context.Context, messageID, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[messageID] {
		return errors.New("permission denied")
	}
	s.writes = append(s.writes, write{id: messageID, at: time.Now()})
	if m, ok := s.messages[messageID]; ok {
		m.ReadBy = append(m.ReadBy, viewerID)
	}
	return nil
}

func (s *fakeStore) written() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]write(nil), s.writes...)
}

func writtenIDs(ws []write) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.id)
	}
	return out
}

func unread(id string, readBy ...string) models.Message {
	return models.Message{ID: id, RoomID: "ops", SenderID: "peer", Body: id, ReadBy: readBy}
}

func startQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestEnqueueIsIdempotent(t *testing.T) {
	q := NewQueue(newFakeStore(), "me", time.Millisecond, nil)

	assert.True(t, q.Enqueue(unread("m1")))
	assert.False(t, q.Enqueue(unread("m1")))
	assert.False(t, q.Enqueue(unread("m2", "me")))
	assert.True(t, q.Enqueue(unread("m3")))
	assert.Equal(t, 2, q.Len())
}

func TestDuplicateEnqueueWritesOnce(t *testing.T) {
	store := newFakeStore(unread("m1"), unread("m2"))
	q := NewQueue(store, "me", time.Millisecond, nil)

	q.Enqueue(unread("m1"))
	q.Enqueue(unread("m1"))
	q.Enqueue(unread("m2"))
	startQueue(t, q)

	require.Eventually(t, func() bool { return q.Len() == 0 && len(store.written()) == 2 }, time.Second, 5*time.Millisecond)

	// a stale copy arriving after the write is re-checked and skipped
	q.Enqueue(unread("m1"))
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []string{"m1", "m2"}, writtenIDs(store.written()))
}

func TestDrainIsThrottled(t *testing.T) {
	const interval = 40 * time.Millisecond
	store := newFakeStore(unread("a"), unread("b"), unread("c"))
	q := NewQueue(store, "me", interval, nil)

	start := time.Now()
	q.Enqueue(unread("a"))
	q.Enqueue(unread("b"))
	q.Enqueue(unread("c"))
	startQueue(t, q)

	require.Eventually(t, func() bool { return len(store.written()) == 3 }, 2*time.Second, 5*time.Millisecond)
	ws := store.written()
	assert.Equal(t, []string{"a", "b", "c"}, writtenIDs(ws))
	assert.True(t, ws[2].at.Sub(start) >= 2*interval, "drain finished after %s", ws[2].at.Sub(start))
}

func TestFailedItemIsDroppedAndDrainContinues(t *testing.T) {
	store := newFakeStore(unread("k"), unread("k1"))
	store.failOn["k"] = true
	q := NewQueue(store, "me", time.Millisecond, nil)
	before := testutil.ToFloat64(metrics.ReceiptsProcessed.WithLabelValues("failed"))

	q.Enqueue(unread("k"))
	q.Enqueue(unread("k1"))
	startQueue(t, q)

	require.Eventually(t, func() bool { return len(store.written()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"k1"}, writtenIDs(store.written()))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReceiptsProcessed.WithLabelValues("failed")))
}

func TestRecheckSkipsReadAndDeletedMessages(t *testing.T) {
	store := newFakeStore(unread("other-device", "me"), unread("fresh"))
	q := NewQueue(store, "me", time.Millisecond, nil)

	q.Enqueue(unread("other-device"))
	q.Enqueue(unread("deleted"))
	q.Enqueue(unread("fresh"))
	startQueue(t, q)

	require.Eventually(t, func() bool { return q.Len() == 0 && len(store.written()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fresh"}, writtenIDs(store.written()))
}

func TestRunRejectsSecondConsumer(t *testing.T) {
	q := NewQueue(newFakeStore(), "me", time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	require.Eventually(t, q.running.Load, time.Second, time.Millisecond)

	assert.ErrorIs(t, q.Run(ctx), ErrAlreadyRunning)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
