package hub

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/tclive/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512
	sendBufferSize = 256
)

// Registrar is the part of the hub a client needs.
type Registrar interface {
	Unregister(c *Client)
}

// Client is one websocket connection.
type Client struct {
	ID     string
	Send   chan models.Event
	conn   *websocket.Conn
	hub    Registrar
	logger *log.Logger

	mu          sync.Mutex
	connectedAt time.Time
	sent        int64
	received    int64
}

// NewClient creates a client for conn.
func NewClient(id string, conn *websocket.Conn, hub Registrar, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		ID:          id,
		Send:        make(chan models.Event, sendBufferSize),
		conn:        conn,
		hub:         hub,
		logger:      logger,
		connectedAt: time.Now(),
	}
}

// TrySend queues an event without blocking. Returns false if the buffer is full or closed.
func (c *Client) TrySend(e models.Event) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.Send <- e:
		return true
	default:
		return false
	}
}

// ReadPump reads client messages until the connection fails or ctx is done.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("client unexpected close", "id", c.ID, "error", err)
			}
			return
		}

		c.mu.Lock()
		c.received++
		c.mu.Unlock()

		c.handle(msg)
	}
}

// WritePump writes queued events and pings until the send channel closes or ctx is done.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case e, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				c.logger.Debug("client write error", "id", c.ID, "error", err)
				return
			}

			c.mu.Lock()
			c.sent++
			c.mu.Unlock()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(msg models.ClientMessage) {
	switch msg.Type {
	case "ping":
		c.TrySend(models.NewEvent(models.EventPong, nil))
	default:
		c.TrySend(models.NewEvent(models.EventError, map[string]string{
			"code":    "unknown_message_type",
			"message": "unknown message type: " + msg.Type,
		}))
	}
}
