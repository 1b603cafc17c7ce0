package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a websocket connection to the live feed of one case.
func ServeWs(hub *Hub, c *websocket.Conn, caseId uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, CaseId: caseId, Send: make(chan []byte, 256)}
	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
