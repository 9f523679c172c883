package ws

import (
	"encoding/json"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// EventSource is the part of the task store the hub listens to.
type EventSource interface {
	Subscribe(fn func(domain.Event)) func()
}

// Hub fans store events out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	unsubscribe func()
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Attach subscribes the hub to src. Call Close to detach.
func (h *Hub) Attach(src EventSource) {
	h.unsubscribe = src.Subscribe(h.Broadcast)
}

// Register adds c; from now on it receives every broadcast.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(n))
	logger.Debug("ws client registered", "clients", n)
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.Send)
	n := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(n))
	logger.Debug("ws client unregistered", "clients", n)
}

// Broadcast never blocks: the store calls it while holding its lock.
// A client whose queue is full is dropped.
func (h *Hub) Broadcast(ev domain.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "error", err, "type", ev.Kind)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws: dropping slow client")
		droppedClients.Inc()
		h.Unregister(c)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches from the store and disconnects every client.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
	}
	h.mu.Unlock()
	connectedClients.Set(0)
}
