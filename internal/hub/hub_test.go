package hub

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umar/horizon-chat/internal/chat"
	"github.com/umar/horizon-chat/internal/models"
)

type roomsStub map[string]models.Room

func (r roomsStub) Get(id string) (models.Room, bool) {
	room, ok := r[id]
	return room, ok
}

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	h := New(roomsStub{"ops": {ID: "ops", Name: "Ops"}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(ServeWS(h, ""))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		srv.Close()
	})
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return h, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chat.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame chat.WSMessage
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestNotifyReachesClient(t *testing.T) {
	h, conn := startHub(t)

	h.Notify(models.Message{ID: "m1", RoomID: "ops", SenderID: "u2", SenderDisplayName: "Grace", Body: "pager fired"})

	frame := readFrame(t, conn)
	assert.Equal(t, chat.TypeNotification, frame.Type)
	var p chat.NotificationPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &p))
	assert.Equal(t, chat.NotificationPayload{RoomID: "ops", RoomName: "Ops", Sender: "Grace", Body: "pager fired"}, p)
}

func TestSendKeepsOrder(t *testing.T) {
	h, conn := startHub(t)

	h.Send(chat.TypeUnreadUpdate, chat.UnreadUpdatePayload{RoomID: "ops", Count: 1})
	h.Send(chat.TypeUnreadUpdate, chat.UnreadUpdatePayload{RoomID: "ops", Count: 2})

	for _, want := range []int{1, 2} {
		frame := readFrame(t, conn)
		var p chat.UnreadUpdatePayload
		require.NoError(t, json.Unmarshal(frame.Payload, &p))
		assert.Equal(t, want, p.Count)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h, conn := startHub(t)
	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
