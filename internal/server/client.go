package server

import (
	"time"

	"github.com/gorilla/websocket"

	"harp/internal/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 20 // uploads arrive inline, base64-encoded
	sendBuffer     = 32
)

// client is one connected websocket session.
type client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	done      chan struct{}
	log       core.Logger

	// dispatch handles one inbound frame; wired by the server.
	dispatch func(sessionID string, frame []byte)
}

// enqueue hands a frame to the write pump. A session that has gone away or
// cannot keep up has its frame dropped; state is re-sent whole on the next
// update anyway.
func (c *client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.log.Warn("slow session, frame dropped", "session", c.sessionID)
	}
}

// readPump pulls frames off the socket and dispatches them until the
// connection dies. Runs as the connection's goroutine.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("session read error", "session", c.sessionID, "error", err.Error())
			}
			return
		}
		c.dispatch(c.sessionID, frame)
	}
}

// writePump pushes queued frames and keepalive pings to the socket.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
