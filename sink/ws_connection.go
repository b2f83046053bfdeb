package sink

import (
	"chat-relay/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WebsocketOptions struct {
	SendBufferSize  int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageBytes int64
}

func (o WebsocketOptions) pingPeriod() time.Duration {
	return o.PongTimeout * 9 / 10
}

// WebsocketConnection is one client socket with a bounded outgoing queue.
//
// Send only enqueues and never blocks, so a slow client cannot stall a room
// broadcast: once its queue is full Send fails and the connection gets evicted.
// A single writer goroutine (WritePump) owns every write to the socket.
type WebsocketConnection struct {
	id      string
	log     *slog.Logger
	socket  *websocket.Conn
	options WebsocketOptions

	mu     sync.RWMutex
	closed bool
	send   chan []byte
	done   chan struct{}
}

func NewWebsocketConnection(log *slog.Logger, socket *websocket.Conn, options WebsocketOptions) *WebsocketConnection {
	id := uuid.NewString()
	conn := &WebsocketConnection{
		id:      id,
		log:     log.With("connection_id", id),
		socket:  socket,
		options: options,
		send:    make(chan []byte, options.SendBufferSize),
		done:    make(chan struct{}),
	}
	conn.prepareRead()
	return conn
}

func (c *WebsocketConnection) ID() string { return c.id }

func (c *WebsocketConnection) Send(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.ErrConnectionClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errors.ErrSendQueueFull
	}
}

// Close stops accepting frames. The writer flushes what is queued,
// sends a close frame and releases the socket. Safe to call more than once.
func (c *WebsocketConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// Done is closed once the writer released the socket.
func (c *WebsocketConnection) Done() <-chan struct{} {
	return c.done
}

// ReadMessage returns the next frame sent by the client.
// Only the session goroutine reads.
func (c *WebsocketConnection) ReadMessage() ([]byte, error) {
	_, data, err := c.socket.ReadMessage()
	return data, err
}

func (c *WebsocketConnection) prepareRead() {
	if c.options.MaxMessageBytes > 0 {
		c.socket.SetReadLimit(c.options.MaxMessageBytes)
	}
	if c.options.PongTimeout > 0 {
		_ = c.socket.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
		c.socket.SetPongHandler(func(string) error {
			return c.socket.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
		})
	}
}

// WritePump drains the queue to the socket until Close is called or a write fails.
func (c *WebsocketConnection) WritePump() {
	var ticks <-chan time.Time
	if period := c.options.pingPeriod(); period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		ticks = ticker.C
	}
	defer func() {
		_ = c.socket.Close()
		close(c.done)
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.setWriteDeadline()
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Write failed, closing connection", "error", err)
				_ = c.Close()
				return
			}
		case <-ticks:
			c.setWriteDeadline()
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed, closing connection", "error", err)
				_ = c.Close()
				return
			}
		}
	}
}

func (c *WebsocketConnection) setWriteDeadline() {
	if c.options.WriteTimeout > 0 {
		_ = c.socket.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
	}
}
