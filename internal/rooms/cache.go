package rooms

import (
	"context"
	"fmt"
	"sync"

	"github.com/umar/horizon-chat/internal/models"
)

type Source interface {
	ListRooms(ctx context.Context, viewerID string) ([]models.Room, error)
}

// Cache holds the rooms a viewer belongs to. It is filled once per
// session; server-side membership changes need a Reset and a new Load.
type Cache struct {
	source   Source
	viewerID string

	mu     sync.RWMutex
	loaded bool
	order  []models.Room
	byID   map[string]models.Room
}

func NewCache(source Source, viewerID string) *Cache {
	return &Cache{
		source:   source,
		viewerID: viewerID,
		byID:     make(map[string]models.Room),
	}
}

// Load fetches the membership list unless it was already fetched this
// session. A failed fetch leaves the cache unloaded.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	rooms, err := c.source.ListRooms(ctx, c.viewerID)
	if err != nil {
		return fmt.Errorf("failed to load rooms: %w", err)
	}
	c.order = rooms
	c.byID = make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		c.byID[r.ID] = r
	}
	c.loaded = true
	return nil
}

// Reset forgets the cached list, for use at logout or login.
func (c *Cache) Reset(viewerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewerID = viewerID
	c.loaded = false
	c.order = nil
	c.byID = make(map[string]models.Room)
}

func (c *Cache) Get(id string) (models.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.byID[id]
	return r, ok
}

func (c *Cache) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *Cache) List() []models.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Room, len(c.order))
	copy(out, c.order)
	return out
}
