package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umar/horizon-chat/internal/models"
)

func TestDecodeEventShortNames(t *testing.T) {
	cases := map[string]Event{
		`{"type":"message.new","payload":{"id":"m1","room_id":"r1"}}`:     Created{},
		`{"type":"message.updated","payload":{"id":"m1","room_id":"r1"}}`: Updated{},
		`{"type":"message.deleted","payload":{"id":"m1","room_id":"r1"}}`: Deleted{},
	}
	for raw, want := range cases {
		ev, err := DecodeEvent([]byte(raw))
		require.NoError(t, err, raw)
		assert.IsType(t, want, ev)
		assert.Equal(t, "m1", ev.Msg().ID)
		assert.Equal(t, "r1", ev.Msg().RoomID)
	}
}

func TestDecodeEventCollectionNames(t *testing.T) {
	raw := `{"type":"databases.main.collections.messages.documents.m9.update","payload":{"id":"m9","room_id":"ops","read_by":["u1"]}}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	upd, ok := ev.(Updated)
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, upd.Message.ReadBy)
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"typing.start","payload":{"id":"m1"}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"message.new"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"message.new","payload":{"room_id":"r1"}}`))
	assert.Error(t, err)
}

func TestEncodeEventRoundTrip(t *testing.T) {
	msg := models.Message{
		ID:        "m1",
		RoomID:    "ops",
		SenderID:  "u1",
		Body:      "deploy done",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ReadBy:    []string{},
	}
	data, err := EncodeEvent(Deleted{Message: msg})
	require.NoError(t, err)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, Deleted{Message: msg}, ev)
}
