package websockets

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type delivery struct {
	userIDs []uuid.UUID
	message []byte
}

// Hub tracks live connections per user and pushes server events to them.
type Hub struct {
	clients map[*Client]bool

	users map[uuid.UUID]map[*Client]bool

	register chan *Client

	unregister chan *Client

	direct chan delivery

	// done is closed when Run returns.
	done chan struct{}

	log *zap.Logger

	mu sync.RWMutex
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan delivery, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		users:      make(map[uuid.UUID]map[*Client]bool),
		log:        log,
	}
}

// Notify queues an event for every connection of the given users. Events for
// offline users are dropped; so are events that find the queue full.
func (h *Hub) Notify(userIDs []uuid.UUID, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("Failed to marshal websocket payload", zap.String("type", event), zap.Error(err))
		return
	}
	message, err := json.Marshal(Message{Type: MessageType(event), Data: payload})
	if err != nil {
		h.log.Error("Failed to marshal websocket message", zap.String("type", event), zap.Error(err))
		return
	}

	select {
	case h.direct <- delivery{userIDs: userIDs, message: message}:
	default:
		h.log.Warn("Websocket queue full, dropping event", zap.String("type", event))
	}
}

// IsOnline reports whether userID has at least one open connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Run owns the client maps until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.users[client.userID]; !ok {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.remove(client)
			}
			h.mu.Unlock()
		case d := <-h.direct:
			h.mu.Lock()
			for _, userID := range d.userIDs {
				for client := range h.users[userID] {
					select {
					case client.send <- d.message:
					default:
						h.remove(client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	if conns, ok := h.users[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.users, client.userID)
		}
	}
	close(client.send)
}
