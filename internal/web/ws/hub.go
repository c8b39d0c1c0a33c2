package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/partyrooms/internal/model"
)

// MessageHandler receives inbound frames and disconnects from the hub
type MessageHandler interface {
	HandleMessage(conn model.ConnectionID, data []byte)
	Disconnect(conn model.ConnectionID)
}

// IDSource mints connection ids
type IDSource interface {
	NewConnectionID() model.ConnectionID
}

// Hub tracks every open websocket and delivers events to them by connection id
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	handler MessageHandler
	ids     IDSource
	logger  *slog.Logger
	closed  bool
}

// NewHub creates a new Hub
func NewHub(handler MessageHandler, ids IDSource, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		handler: handler,
		ids:     ids,
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// SetHandler installs the inbound handler
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// Run waits for ctx and then closes every client
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub started")
	<-ctx.Done()
	h.Close()
}

// Register adds a client to the hub. Returns false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("connection_id", string(client.id)),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[client.id]; !ok || existing != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("connection_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Send queues an event for one connection. Unknown connections are ignored
// and a full buffer drops the event.
func (h *Hub) Send(conn model.ConnectionID, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[conn]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("connection_id", string(conn)),
			slog.String("event", string(event.Type)))
	}
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clientCount := len(h.clients)
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
