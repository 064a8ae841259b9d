package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/freestyle-cup/registration/internal/live"
)

// RequireUpgrade rejects plain HTTP requests on websocket routes before the
// upgrade handler runs.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// LiveTimeplan returns the websocket handler for GET /live/timeplan.
// Connected clients receive a small JSON notification whenever the operator
// advances or rewinds the timeplan; they are expected to re-fetch the
// prediction in response. The connection carries no inbound protocol — reads
// only serve to detect the peer going away.
func LiveTimeplan(hub *live.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &live.Client{
			Topic: live.TopicTimeplan,
			Send:  make(chan []byte, 16),
		}
		hub.Register(client)
		defer hub.Unregister(client)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					// The hub dropped us (slow consumer).
					conn.Close()
					<-closed
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					<-closed
					return
				}
			case <-closed:
				return
			}
		}
	})
}
