package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one websocket connection. The read pump feeds inbound frames
// to the server's dispatcher; the write pump drains the send channel.
type Client struct {
	PlayerID  string
	Name      string
	SessionID string
	RoomCode  string

	server *Server
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// Enqueue queues a frame for delivery, dropping it if the client's buffer
// is full. A slow consumer never blocks the game loop.
func (c *Client) Enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("send buffer full, dropping frame",
			zap.String("player_id", c.PlayerID),
		)
	}
}

// Send marshals payload into an envelope and queues it.
func (c *Client) Send(event string, payload any) {
	frame, err := NewEnvelope(event, payload)
	if err != nil {
		c.logger.Error("failed to encode frame",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}
	c.Enqueue(frame)
}

// SendError queues an error event for the client.
func (c *Client) SendError(event, message, code string) {
	c.Send(event, ErrorPayload{Message: message, Code: code})
}

// readPump pumps inbound frames to the dispatcher. It runs in its own
// goroutine per connection; exit triggers unregistration.
func (c *Client) readPump() {
	defer func() {
		c.server.handleDisconnect(c)
		c.server.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("player_id", c.PlayerID),
					zap.Error(err),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.SendError(EvtErrorInvalidAction, "invalid message format", "BAD_ENVELOPE")
			continue
		}
		c.server.dispatch(c, env)
	}
}

// writePump drains the send channel to the connection, interleaving pings.
// It runs in its own goroutine per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
