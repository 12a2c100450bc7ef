package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub manages the set of active clients and broadcasts display updates.
type Hub struct {
	logger     *logrus.Entry
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	last       *DisplayState
	register   chan *Client
	unregister chan *Client
	broadcast  chan DisplayState
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub(logger *logrus.Entry) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan DisplayState),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer h.logger.Info("hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllConnections()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.WithField("client", client.id).Debug("client registered")
		case client := <-h.unregister:
			h.remove(client)
			h.logger.WithField("client", client.id).Debug("client unregistered")
		case state := <-h.broadcast:
			h.broadcastState(state)
		}
	}
}

// Broadcast sends a display update to all connected clients. It returns without
// sending once the hub has stopped.
func (h *Hub) Broadcast(state DisplayState) {
	select {
	case h.broadcast <- state:
	case <-h.done:
	}
}

// Last returns the most recent broadcast state.
func (h *Hub) Last() (DisplayState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.last == nil {
		return DisplayState{}, false
	}
	return *h.last, true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcastState handles the actual message sending. Clients that cannot keep up are dropped.
func (h *Hub) broadcastState(state DisplayState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &state
	if len(h.clients) == 0 {
		return
	}

	payload, err := json.Marshal(state)
	if err != nil {
		h.logger.WithError(err).Error("failed to encode display state")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.WithField("client", client.id).Warn("client send buffer full, dropping client")
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// closeAllConnections closes all active client connections during shutdown.
func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if err := client.conn.Close(); err != nil {
			h.logger.WithError(err).WithField("client", client.id).Warn("error closing client connection during shutdown")
		}
		delete(h.clients, client)
	}
}
