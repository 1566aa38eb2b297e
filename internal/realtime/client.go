package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is the slice of *websocket.Conn the gateway relies on. Tests
// substitute an in-memory implementation.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one live connection. A user may hold several at once; each gets
// its own outbound queue so one slow tab cannot stall another.
type Client struct {
	userID uint64
	conn   wsConn
	send   chan []byte
	gw     *Gateway
}

func (c *Client) UserID() uint64 { return c.userID }

// enqueue hands an already-marshaled frame to the writer. Delivery is
// fire-and-forget: when the queue is full the frame is dropped and the
// client reconciles from the durable store on its next fetch.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump consumes inbound frames until the connection dies, then triggers
// the synchronous teardown of presence and room membership.
func (c *Client) readPump() {
	defer func() {
		c.gw.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(c.gw.cfg.MaxMessageBytes))
	pongWait := time.Duration(c.gw.cfg.PongWaitSeconds) * time.Second
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.logger.Debug().Uint64("user_id", c.userID).Err(err).Msg("websocket read error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.gw.logger.Debug().Uint64("user_id", c.userID).Msg("dropping malformed frame")
			continue
		}
		c.gw.handleClientEvent(c, env)
	}
}

// writePump drains the outbound queue onto the wire. Frames are written in
// queue order, which preserves per-room broadcast order for this client.
func (c *Client) writePump() {
	writeWait := time.Duration(c.gw.cfg.WriteWaitSeconds) * time.Second
	pingPeriod := time.Duration(c.gw.cfg.PongWaitSeconds) * time.Second * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
