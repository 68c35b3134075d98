package handlers

import (
	"log"

	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ServeWs authenticates the socket with its first message, either
// {"type":"auth","token":"<key>"} or the ?token= query parameter, then keeps
// it registered for order events until the client disconnects.
func ServeWs(c *websocketcontrib.Conn) {
	key := c.Query("token")
	if key == "" {
		var authMsg wsAuthMessage
		if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
			log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
			_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
			c.Close()
			return
		}
		key = authMsg.Token
	}

	user, err := middleware.UserForKey(key)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	if err := c.WriteJSON(fiber.Map{"type": "connected", "user_id": user.ID}); err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{UserID: user.ID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// order events only flow server to client; reads just detect the close
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket read error for client %d: %v", user.ID, err)
			}
			return
		}
	}
}
