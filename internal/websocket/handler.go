package websocket

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"wastetrack-backend/internal/middleware"
	"wastetrack-backend/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Restrict in production
		return true
	},
}

// HandleWebSocket upgrades an HTTP connection to a WebSocket. The JWT
// travels in the URI path (/waste/ws/{token}) because browser WebSocket
// clients cannot set an Authorization header.
func HandleWebSocket(hub *Hub, locations store.LocationStore, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := chi.URLParam(r, "token")
		if tokenString == "" {
			log.Println("❌ No token in WebSocket URI")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userClaims, err := middleware.ParseToken(tokenString, jwtSecret)
		if err != nil {
			log.Printf("❌ Invalid WebSocket token: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(userClaims.UserID, userClaims.Role, conn, hub, locations)

		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ WebSocket connection established for user: %s (%s)", userClaims.Email, userClaims.UserID)
	}
}
