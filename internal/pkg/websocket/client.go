package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Streams are server to client only, inbound frames are control frames
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin checks are left to the reverse proxy
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between one live subscription and a websocket connection
type Client struct {
	hub *Hub

	// The WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound frames, closed by forward
	send chan []byte

	// Closed by stop
	done     chan struct{}
	stopOnce sync.Once

	// Releases the live subscription
	cancel func()

	userID string
	stream Stream

	logger zerolog.Logger
}

// stop releases the subscription. forward then drains and closes send,
// which makes writePump close the connection.
func (c *Client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

// forward encodes every snapshot from updates into send until updates is closed.
func forward[T any](c *Client, updates <-chan T) {
	defer close(c.send)

	for v := range updates {
		data, err := json.Marshal(Message{Type: c.stream, Data: v, Timestamp: time.Now()})
		if err != nil {
			c.logger.Error().Err(err).Str("stream", string(c.stream)).Msg("Failed to marshal snapshot")
			continue
		}
		select {
		case c.send <- data:
		case <-c.done:
		}
	}
}

// readPump watches the connection for close and pong frames
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			// Don't log normal close conditions as warnings
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().
					Str("userID", c.userID).
					Str("stream", string(c.stream)).
					Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().
					Err(err).
					Str("userID", c.userID).
					Str("stream", string(c.stream)).
					Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().
					Err(err).
					Str("userID", c.userID).
					Str("stream", string(c.stream)).
					Msg("WebSocket read error")
			}
			return
		}
	}
}

// writePump pumps snapshots to the websocket connection
func (c *Client) writePump() {
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
				// The subscription ended
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.stop()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}
