package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/umar/horizon-chat/internal/chat"
	"github.com/umar/horizon-chat/internal/metrics"
	"github.com/umar/horizon-chat/internal/models"
)

// RoomNamer resolves room ids for notifications.
type RoomNamer interface {
	Get(id string) (models.Room, bool)
}

// Hub fans frames out to every connected local UI client.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	rooms RoomNamer
	log   *slog.Logger
}

func New(rooms RoomNamer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		rooms:      rooms,
		log:        logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(n))
			h.log.Info("ui client connected", "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(n))
			h.log.Info("ui client disconnected", "clients", n)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an encoded frame for every client. A full buffer
// drops the frame.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("hub buffer full, dropping frame")
	}
}

// Send encodes payload as a msgType frame and broadcasts it.
func (h *Hub) Send(msgType string, payload interface{}) {
	data, err := chat.NewWSMessage(msgType, payload)
	if err != nil {
		h.log.Error("failed to encode frame", "type", msgType, "error", err)
		return
	}
	h.Broadcast(data)
}

// Notify raises a notification for a message in a room the viewer is
// not looking at.
func (h *Hub) Notify(msg models.Message) {
	name := msg.RoomID
	if h.rooms != nil {
		if room, ok := h.rooms.Get(msg.RoomID); ok && room.Name != "" {
			name = room.Name
		}
	}
	sender := msg.SenderDisplayName
	if sender == "" {
		sender = msg.SenderID
	}
	h.log.Info("notification", "room_id", msg.RoomID, "sender", sender)
	h.Send(chat.TypeNotification, chat.NotificationPayload{
		RoomID:   msg.RoomID,
		RoomName: name,
		Sender:   sender,
		Body:     msg.Body,
	})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSClients.Set(0)
}
