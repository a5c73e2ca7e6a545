package clients

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"deskbridge/internal/logx"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	readLimit     = 8 << 20 // 8MB, room for processImage uploads
)

var (
	// ErrClosed is returned when sending to a client that has gone away.
	ErrClosed = errors.New("client closed")
	// ErrQueueFull is returned when the outbound queue has no room.
	ErrQueueFull = errors.New("send queue full")
)

// Client is one connected device: its websocket, a bounded outbound queue
// drained by a single writer goroutine, and a done signal.
type Client struct {
	ID     string
	Remote string

	conn *websocket.Conn
	send chan []byte
	log  logx.Logger

	readTimeout  time.Duration
	pingInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// New wraps conn. queue is the outbound buffer length.
func New(conn *websocket.Conn, remote string, queue int, log logx.Logger) *Client {
	if queue <= 0 {
		queue = 16
	}
	return &Client{
		ID:     uuid.NewString(),
		Remote: remote,
		conn:   conn,
		send:   make(chan []byte, queue),
		log:    log,
		done:   make(chan struct{}),

		readTimeout:  readDeadline,
		pingInterval: pingInterval,
	}
}

// SetReadTimeout changes how long the connection may stay silent before it
// is considered dead. Pings go out at half that period. Call it before
// starting ReadLoop and WritePump.
func (c *Client) SetReadTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.readTimeout = d
	c.pingInterval = d / 2
}

// TrySend queues a text frame without blocking.
func (c *Client) TrySend(b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close tears down the connection; safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

// ReadLoop hands every inbound frame to handle, in arrival order, until the
// connection fails or is closed. handle runs on the calling goroutine and the
// read deadline restarts once it returns, so time spent in handle never
// counts against the peer.
func (c *Client) ReadLoop(handle func(msg []byte)) {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Infof("client %s read error: %v", c.ID, err)
			}
			return
		}
		handle(msg)
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}

// WritePump drains the outbound queue and keeps the connection alive with
// pings. It is the only writer on the connection and closes the client when
// a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Infof("client %s write error: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
