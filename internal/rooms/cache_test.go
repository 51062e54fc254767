package rooms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umar/horizon-chat/internal/models"
)

type fakeSource struct {
	calls   []string
	rooms   []models.Room
	failing bool
}

func (f *fakeSource) ListRooms(ctx context.Context, viewerID string) ([]models.Room, error) {
	f.calls = append(f.calls, viewerID)
	if f.failing {
		return nil, errors.New("team service unavailable")
	}
	return f.rooms, nil
}

func TestLoadFetchesOncePerSession(t *testing.T) {
	src := &fakeSource{rooms: []models.Room{
		{ID: "ops", Name: "Ops", TotalMemberCount: 4},
		{ID: "signals", Name: "Signals", TotalMemberCount: 2},
	}}
	c := NewCache(src, "me")

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, []string{"me"}, src.calls)

	r, ok := c.Get("ops")
	require.True(t, ok)
	assert.Equal(t, 4, r.TotalMemberCount)
	assert.True(t, c.Has("signals"))
	assert.False(t, c.Has("random"))
	assert.Len(t, c.List(), 2)
}

func TestResetAllowsReloadForNewViewer(t *testing.T) {
	src := &fakeSource{rooms: []models.Room{{ID: "ops", Name: "Ops"}}}
	c := NewCache(src, "me")
	require.NoError(t, c.Load(context.Background()))

	src.rooms = []models.Room{{ID: "lab", Name: "Lab"}}
	c.Reset("you")
	assert.Empty(t, c.List())

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, []string{"me", "you"}, src.calls)
	assert.True(t, c.Has("lab"))
	assert.False(t, c.Has("ops"))
}

func TestLoadFailureCanBeRetried(t *testing.T) {
	src := &fakeSource{failing: true}
	c := NewCache(src, "me")

	assert.Error(t, c.Load(context.Background()))
	assert.Empty(t, c.List())

	src.failing = false
	src.rooms = []models.Room{{ID: "ops"}}
	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Has("ops"))
}
