package gateway

import (
	"sync"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"
)

// frameWriter is the write side of a websocket connection.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type queued struct {
	frame call.Frame
	live  bool
}

// client is one websocket connection. Frames are queued in memory and written
// by a single goroutine; Send and Replay never block.
//
// Live frames are bounded by the outbox size. A replayed chat backlog is
// queued as one unit outside that bound.
type client struct {
	id      string
	conn    frameWriter
	limiter *rate.Limiter
	logger  types.Logger

	pingInterval time.Duration
	writeTimeout time.Duration
	outboxSize   int

	mu     sync.Mutex
	queue  []queued
	live   int
	closed bool
	kicked bool
	wake   chan struct{}
	kick   chan struct{}
}

func newClient(conn frameWriter, opts Options, logger types.Logger) *client {
	return &client{
		conn:         conn,
		limiter:      rate.NewLimiter(rate.Limit(opts.ChatRatePerSec), opts.ChatBurst),
		logger:       logger,
		pingInterval: opts.PingInterval,
		writeTimeout: opts.WriteTimeout,
		outboxSize:   opts.OutboxSize,
		wake:         make(chan struct{}, 1),
		kick:         make(chan struct{}),
	}
}

// Send queues a live frame. A full outbox means the client cannot keep up;
// the frame is dropped and the connection is closed so the client rejoins
// with a consistent view of the room.
func (c *client) Send(frame call.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return call.ErrPeerGone
	}
	if c.live >= c.outboxSize {
		if !c.kicked {
			c.kicked = true
			close(c.kick)
		}
		return call.ErrPeerBacklogged
	}
	c.queue = append(c.queue, queued{frame: frame, live: true})
	c.live++
	c.signal()
	return nil
}

// Replay queues a chat backlog behind everything already queued.
func (c *client) Replay(frames []call.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return call.ErrPeerGone
	}
	for _, f := range frames {
		c.queue = append(c.queue, queued{frame: f})
	}
	c.signal()
	return nil
}

// signal wakes the write loop. Callers hold c.mu.
func (c *client) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// close stops accepting frames. The write loop flushes what is queued and exits.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.signal()
}

// next pops the oldest queued frame. done is true once the client is closed
// and the queue is drained.
func (c *client) next() (frame call.Frame, ok, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		c.queue = nil
		return call.Frame{}, false, c.closed
	}
	q := c.queue[0]
	c.queue[0] = queued{}
	c.queue = c.queue[1:]
	if q.live {
		c.live--
	}
	return q.frame, true, false
}

// allowChat reports whether the client may post another chat message now.
func (c *client) allowChat() bool {
	return c.limiter.Allow()
}

// writeLoop drains the queue until the client is closed or a write fails.
func (c *client) writeLoop() {
	var tick <-chan time.Time
	if c.pingInterval > 0 {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.wake:
			if !c.flush() {
				return
			}
		case <-tick:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("WebSocket ping failed", "connectionID", c.id, "error", err)
				_ = c.conn.Close()
				return
			}
		case <-c.kick:
			c.logger.Warn("Closing slow WebSocket client", "connectionID", c.id)
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
			_ = c.conn.Close()
			return
		}
	}
}

// flush writes every queued frame. It returns false when the loop must stop.
func (c *client) flush() bool {
	for {
		frame, ok, done := c.next()
		if done {
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return false
		}
		if !ok {
			return true
		}

		data, err := frame.Encode()
		if err != nil {
			c.logger.Error("Failed to encode frame", "connectionID", c.id, "type", frame.Type, "error", err)
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.Debug("WebSocket write failed", "connectionID", c.id, "error", err)
			_ = c.conn.Close()
			return false
		}
	}
}
