package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a change notification broadcast to every connected client.
type Message struct {
	Type  string         `json:"type"`
	ID    int64          `json:"id,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

func ItemCreated(id int64) Message { return Message{Type: "item_created", ID: id} }
func ItemUpdated(id int64) Message { return Message{Type: "item_updated", ID: id} }
func ItemDeleted(id int64) Message { return Message{Type: "item_deleted", ID: id} }

func InventoryCleared() Message { return Message{Type: "inventory_cleared"} }

func ImportCompleted(imported int) Message {
	return Message{Type: "import_completed", Extra: map[string]any{"imported": imported}}
}

func SettingsChanged() Message { return Message{Type: "settings_changed"} }

func UpdateAvailable(version string) Message {
	return Message{Type: "update_available", Extra: map[string]any{"version": version}}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
