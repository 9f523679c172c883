package ws

import (
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Snapshot hands out the hello state with its source locked, so a client
// registered inside fn sees every later event.
type Snapshot interface {
	Watch(fn func(filter domain.Filter, visible []*domain.Task, stats domain.Stats))
}

// Subscribe registers client with a hello built from snap, atomically.
func Subscribe(snap Snapshot, client *Client) error {
	var err error
	snap.Watch(func(filter domain.Filter, visible []*domain.Task, stats domain.Stats) {
		var hello []byte
		if hello, err = EncodeHello(filter, visible, stats); err != nil {
			return
		}
		client.Join(hello)
	})
	return err
}

// HandleWS upgrades the request and streams store events.
// With requireAuth the token comes from ?token= since browsers cannot set
// headers on a WebSocket handshake.
func HandleWS(hub *Hub, snap Snapshot, requireAuth bool, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		if requireAuth {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
				return
			}
			if _, err := service.ParseJWT(token); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(conn, hub)
		if err := Subscribe(snap, client); err != nil {
			logger.Error("ws: encode hello", "error", err)
			_ = conn.Close()
			return
		}
		go client.Run()
	}
}
