package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"wastetrack-backend/internal/models"
	"wastetrack-backend/internal/store"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048 // Room for location_update messages
)

// Client represents a WebSocket client connection
type Client struct {
	UserID    string
	UserRole  models.Role
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	locations store.LocationStore
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"` // For location_update data
}

// NewClient creates a new WebSocket client
func NewClient(userID string, userRole models.Role, conn *websocket.Conn, hub *Hub, locations store.LocationStore) *Client {
	return &Client{
		UserID:    userID,
		UserRole:  userRole,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, 256),
		locations: locations,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		// Mark driver as disconnected when the WebSocket closes
		c.markAsDisconnected()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			response := map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			}
			responseData, _ := json.Marshal(response)
			select {
			case c.send <- responseData:
			default:
				// Buffer full, skip the reply rather than wedge the read pump
			}

		case "location_update":
			c.handleLocationUpdate(msg.Data)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleLocationUpdate processes driver location updates received via WebSocket
func (c *Client) handleLocationUpdate(data map[string]interface{}) {
	if c.UserRole != models.RoleDriver {
		log.Printf("⚠️ Ignoring location_update from non-driver %s", c.UserID)
		return
	}

	latitude, ok := data["latitude"].(float64)
	if !ok {
		log.Printf("❌ Invalid latitude in location update")
		return
	}

	longitude, ok := data["longitude"].(float64)
	if !ok {
		log.Printf("❌ Invalid longitude in location update")
		return
	}

	// Optional fields (may be nil)
	var heading, speed, accuracy *float64
	if h, ok := data["heading"].(float64); ok {
		heading = &h
	}
	if s, ok := data["speed"].(float64); ok {
		speed = &s
	}
	if a, ok := data["accuracy"].(float64); ok {
		accuracy = &a
	}

	var entryID *string
	if eid, ok := data["entry_id"].(string); ok {
		entryID = &eid
	}

	timestamp, ok := data["timestamp"].(float64)
	if !ok {
		log.Printf("❌ Invalid timestamp in location update")
		return
	}

	loc := &models.DriverLocation{
		DriverID:  c.UserID,
		Latitude:  latitude,
		Longitude: longitude,
		Heading:   heading,
		Speed:     speed,
		Accuracy:  accuracy,
		EntryID:   entryID,
		Timestamp: int64(timestamp),
	}

	if err := c.locations.UpsertDriverLocation(context.Background(), loc); err != nil {
		log.Printf("❌ Error saving location to database: %v", err)
		return
	}

	locationUpdate := map[string]interface{}{
		"type": "driver_location_update",
		"data": map[string]interface{}{
			"driver_id": c.UserID,
			"latitude":  latitude,
			"longitude": longitude,
			"heading":   heading,
			"speed":     speed,
			"accuracy":  accuracy,
			"entry_id":  entryID,
			"timestamp": int64(timestamp),
		},
	}

	// Admins watch the fleet map live
	c.hub.BroadcastToRole(models.RoleAdmin, locationUpdate)
}

// markAsDisconnected marks the driver as disconnected in the database
// This preserves their last known location for admins to see
func (c *Client) markAsDisconnected() {
	if c.UserRole != models.RoleDriver {
		return
	}

	if err := c.locations.MarkDriverDisconnected(context.Background(), c.UserID); err != nil {
		log.Printf("❌ Error marking driver as disconnected: %v", err)
		return
	}

	log.Printf("🔴 Driver %s marked as disconnected (last position preserved)", c.UserID)
}
