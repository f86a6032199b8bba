package socket

import (
	"context"
	"log"

	"luvlang_server/models"

	socketio "github.com/googollee/go-socket.io"
)

const toastEvent = "toast"

// Hub pushes notifications to connected clients. Each client joins the room
// of its own user id.
type Hub struct {
	Server *socketio.Server
	// Authenticate maps the token sent with "join" to a user id. When nil the
	// payload is taken as the user id.
	Authenticate func(token string) (string, error)
}

func userRoom(userID string) string {
	return "user:" + userID
}

// NewHub initializes the Socket.IO server and its handlers.
func NewHub(authenticate func(token string) (string, error)) *Hub {
	server := socketio.NewServer(nil)
	hub := &Hub{Server: server, Authenticate: authenticate}

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, token string) {
		userID, err := hub.resolve(token)
		if err != nil || userID == "" {
			log.Printf("❌ Rejected join from %s: %v", c.ID(), err)
			c.Emit("error", "unauthorized")
			return
		}
		log.Printf("👥 Socket %s joined room for %s", c.ID(), userID)
		c.Join(userRoom(userID))
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("⚠️ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return hub
}

func (h *Hub) resolve(token string) (string, error) {
	if h.Authenticate == nil {
		return token, nil
	}
	return h.Authenticate(token)
}

// Notify emits a toast to every socket of userID. Delivery is best effort.
func (h *Hub) Notify(_ context.Context, userID string, n models.Notification) {
	if !h.Server.BroadcastToRoom("/", userRoom(userID), toastEvent, n) {
		log.Printf("ℹ️ No live socket for %s, toast %q not delivered", userID, n.Title)
	}
}

// Serve runs the Socket.IO event loop until Close.
func (h *Hub) Serve() {
	if err := h.Server.Serve(); err != nil {
		log.Printf("❌ Socket server stopped: %v", err)
	}
}

func (h *Hub) Close() error {
	return h.Server.Close()
}
