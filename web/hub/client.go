package hub

import (
	"sync"
	"time"

	"raffle-panel/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 16
	pingInterval = 15 * time.Second
	writeWait    = 10 * time.Second
)

type Client struct {
	id   string
	conn *websocket.Conn

	outbound  chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *Client {
	c := &Client{
		id:       uuid.NewString(),
		conn:     conn,
		outbound: make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
	go c.writePump()
	return c
}

// send queues a frame without blocking. A full buffer means the client is
// not draining its connection; the frame is dropped and the client will
// catch up from the next snapshot it does receive.
func (c *Client) send(frame []byte) {
	select {
	case c.outbound <- frame:
	case <-c.done:
	default:
		logger.Debugf("client %s send buffer full, dropping frame", c.id)
	}
}

func (c *Client) sendEvent(event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		logger.Error("marshal event:", err)
		return
	}
	c.send(frame)
}

func (c *Client) sendError(err error) {
	c.sendEvent(EventError, map[string]string{"message": err.Error()})
}

// run reads commands until the connection drops.
func (c *Client) run(dispatch func(*Client, *Message)) {
	defer c.close()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		msg := &Message{}
		if err := json.Unmarshal(raw, msg); err != nil {
			logger.Debugf("client %s sent malformed frame: %v", c.id, err)
			continue
		}
		dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
