package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"wastetrack-backend/internal/events"
	"wastetrack-backend/internal/models"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Inbound messages from clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message represents a message to broadcast to a specific user
type Message struct {
	UserID string
	Data   interface{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Printf("✅ [WEBSOCKET] Client CONNECTED")
			log.Printf("   User ID: %s", client.UserID)
			log.Printf("   Role: %s", client.UserRole)
			log.Printf("   Total connected clients: %d", total)
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		case client := <-h.unregister:
			// Unregister only ever arrives from the client's own read
			// pump after it has exited, so this is the one place the
			// send channel may be closed. The pointer compare keeps a
			// stale unregister from evicting a reconnected client.
			h.mu.Lock()
			if cur, ok := h.clients[client.UserID]; ok && cur == client {
				delete(h.clients, client.UserID)
			}
			close(client.send)
			remaining := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔴 [WEBSOCKET] Client DISCONNECTED: %s (%s), %d remaining",
				client.UserID, client.UserRole, remaining)

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				log.Printf("❌ Failed to marshal message: %v", err)
				continue
			}

			var doomed *Client
			h.mu.RLock()
			if client, ok := h.clients[message.UserID]; ok {
				select {
				case client.send <- data:
				default:
					doomed = client
				}
			}
			h.mu.RUnlock()

			if doomed != nil {
				h.drop(doomed)
			}
		}
	}
}

// drop evicts a client whose send buffer is full. The map entry goes
// away under the write lock; closing the connection wakes the read
// pump, whose unregister path then closes the send channel.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[client.UserID]; ok && cur == client {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()
	client.conn.Close()
	log.Printf("⚠️ Client buffer full, disconnecting: %s", client.UserID)
}

// BroadcastToUser sends a message to a specific user.
// Delivery is at-most-once: if the user is not connected the message is dropped.
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	h.broadcast <- &Message{
		UserID: userID,
		Data:   data,
	}
}

// BroadcastToRole sends a message to all connected users with a specific role
func (h *Hub) BroadcastToRole(role models.Role, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dataBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	for _, client := range h.clients {
		if client.UserRole == role {
			select {
			case client.send <- dataBytes:
			default:
				// Buffer full, skip this client
			}
		}
	}
}

// HandleEvent routes a pickup lifecycle event to the interested parties.
// Drivers and admins hear about new pickups; the reporter, the assigned
// collector and admins hear about status changes and collections.
func (h *Hub) HandleEvent(evt events.Event) {
	switch evt.Kind {
	case events.KindNewPickup:
		h.BroadcastToRole(models.RoleDriver, evt)
		h.BroadcastToRole(models.RoleAdmin, evt)

	case events.KindStatusUpdate, events.KindPickupCollected:
		if evt.Data.ReporterID != nil {
			h.BroadcastToUser(*evt.Data.ReporterID, evt)
		}
		if evt.Data.CollectorID != nil && (evt.Data.ReporterID == nil || *evt.Data.CollectorID != *evt.Data.ReporterID) {
			h.BroadcastToUser(*evt.Data.CollectorID, evt)
		}
		h.BroadcastToRole(models.RoleAdmin, evt)

	default:
		log.Printf("⚠️ Unknown event kind: %s", evt.Kind)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetConnectedClientIDs returns a list of all connected client IDs
func (h *Hub) GetConnectedClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}
