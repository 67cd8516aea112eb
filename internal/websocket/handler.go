package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to a surface and pumps frames until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, surfaceID uuid.UUID, userID string, greeting ...[]byte) {
	client := &Client{Hub: hub, Conn: c, SurfaceID: surfaceID, UserID: userID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	for _, frame := range greeting {
		client.Send <- frame
	}

	go client.writePump()
	client.readPump()
}
