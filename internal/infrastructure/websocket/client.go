package websocket

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	DefaultSendBuffer = 256
)

// Client is one live websocket connection. A user may own several.
type Client struct {
	ID       string
	Identity entity.Identity

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps conn. conn may be nil for connections that are never pumped.
func NewClient(conn *websocket.Conn, identity entity.Identity, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:       uuid.New().String(),
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) UserID() string {
	return c.Identity.UserID
}

// Outgoing exposes queued frames. WritePump is its only consumer in production.
func (c *Client) Outgoing() <-chan []byte {
	return c.send
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Enqueue queues a frame without blocking. A full buffer means the peer is not
// keeping up; the connection is dropped and false returned.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		logger.Warn(logger.Conn(c.ID, c.UserID(), "send buffer full, dropping connection"))
		c.abort()
		return false
	}
}

// Close is safe to call more than once and from any goroutine. It never
// blocks; the close handshake runs in the background.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}
		go func() {
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			c.conn.Close()
		}()
	})
}

// abort tears the connection down without a close frame. A stalled writer may
// hold the connection's write lock, so nothing here waits on it.
func (c *Client) abort() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// ReadPump reads frames and hands each to handle in arrival order. It
// unregisters the client when the connection ends.
func (c *Client) ReadPump(ctx context.Context, m *Manager, handle func(context.Context, *Client, []byte)) {
	defer func() {
		m.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn(logger.Conn(c.ID, c.UserID(), "read error: %v", err))
			}
			return
		}
		c.safeHandle(ctx, handle, message)
	}
}

// safeHandle isolates a failing handler to the one frame that triggered it.
func (c *Client) safeHandle(ctx context.Context, handle func(context.Context, *Client, []byte), message []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.Conn(c.ID, c.UserID(), "handler panic: %v\n%s", r, debug.Stack()))
		}
	}()
	handle(ctx, c, message)
}

// WritePump drains the send buffer to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				logger.Debug(logger.Conn(c.ID, c.UserID(), "write error: %v", err))
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) participant() Participant {
	return Participant{
		UserID:       c.Identity.UserID,
		DisplayName:  c.Identity.Name,
		AvatarURL:    c.Identity.AvatarURL,
		ConnectionID: c.ID,
	}
}
