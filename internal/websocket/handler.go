package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, role Role) {
	if role != RoleViewer {
		role = RoleUI
	}
	client := &Client{Hub: hub, Conn: c, ID: uuid.New(), Role: role, Send: make(chan []byte, 256)}
	client.Hub.Register(client)

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump()
}
