package drafts

import (
	"log/slog"
	"sync"
)

type KV interface {
	Draft(roomID string) (string, bool, error)
	SaveDraft(roomID, text string) (bool, error)
	DeleteDraft(roomID string) error
}

// Composer holds the composition of the active room. A room's stored
// draft is read from disk at most once per process.
type Composer struct {
	store KV
	log   *slog.Logger

	mu         sync.Mutex
	activeRoom string
	lastLoaded string
	loaded     map[string]bool
	texts      map[string]string
}

func NewComposer(store KV, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		store:  store,
		log:    logger,
		loaded: make(map[string]bool),
		texts:  make(map[string]string),
	}
}

// Activate switches to roomID and returns the text to seed the input with.
func (c *Composer) Activate(roomID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeRoom = roomID
	if roomID == c.lastLoaded || c.loaded[roomID] {
		return c.texts[roomID]
	}

	text, _, err := c.store.Draft(roomID)
	if err != nil {
		c.log.Error("failed to load draft", "room_id", roomID, "error", err)
	}
	c.loaded[roomID] = true
	c.lastLoaded = roomID
	c.texts[roomID] = text
	return text
}

// Update records a composition change for the active room. Without an
// active room nothing is stored.
func (c *Composer) Update(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom == "" {
		return nil
	}
	if c.texts[c.activeRoom] == text {
		return nil
	}
	c.texts[c.activeRoom] = text
	_, err := c.store.SaveDraft(c.activeRoom, text)
	return err
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.texts[c.activeRoom]
}

func (c *Composer) ActiveRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRoom
}

// Sent drops the draft of roomID after its message went out.
func (c *Composer) Sent(roomID string) error {
	c.mu.Lock()
	delete(c.texts, roomID)
	c.mu.Unlock()
	return c.store.DeleteDraft(roomID)
}
