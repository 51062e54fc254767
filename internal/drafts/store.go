package drafts

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/umar/horizon-chat/internal/metrics"
)

const (
	draftPrefix = "draft:"
	draftEnd    = "draft;"
	themeKey    = "theme"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

// Store persists unsent compositions and the display theme on disk.
type Store struct {
	db  *pebble.DB
	log *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	logger.Info("draft store opened", "path", path)
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool, error) {
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer closer.Close()
	return string(v), true, nil
}

// Draft returns the stored composition for roomID.
func (s *Store) Draft(roomID string) (string, bool, error) {
	return s.get(draftPrefix + roomID)
}

// SaveDraft writes text for roomID unless the stored value is already
// equal. It reports whether a write happened.
func (s *Store) SaveDraft(roomID, text string) (bool, error) {
	current, ok, err := s.Draft(roomID)
	if err != nil {
		return false, err
	}
	if ok && current == text {
		return false, nil
	}
	if err := s.db.Set([]byte(draftPrefix+roomID), []byte(text), pebble.Sync); err != nil {
		return false, fmt.Errorf("failed to save draft: %w", err)
	}
	metrics.DraftWrites.Inc()
	return true, nil
}

func (s *Store) DeleteDraft(roomID string) error {
	if err := s.db.Delete([]byte(draftPrefix+roomID), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Drafts returns every stored draft keyed by room id.
func (s *Store) Drafts() (map[string]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(draftPrefix),
		UpperBound: []byte(draftEnd),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer iter.Close()

	out := make(map[string]string)
	for iter.First(); iter.Valid(); iter.Next() {
		room := string(iter.Key()[len(draftPrefix):])
		out[room] = string(iter.Value())
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return out, nil
}

// Theme returns the persisted theme, light when none was chosen.
func (s *Store) Theme() (string, error) {
	v, ok, err := s.get(themeKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return ThemeLight, nil
	}
	return v, nil
}

func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	if err := s.db.Set([]byte(themeKey), []byte(theme), pebble.Sync); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}
