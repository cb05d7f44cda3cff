// Package client is the peer side of the message channel: the connection to the
// relay, the session built on top of it and the typed dispatcher every core
// concern subscribes to.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

const (
	writeWait     = 10 * time.Second
	inboundBuffer = 256
)

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Conn owns one websocket to the relay for its whole lifetime. Once closed it
// stays closed; nothing reconnects.
type Conn struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	logger *zap.Logger

	mu      sync.Mutex
	ws      *websocket.Conn
	state   State
	lastErr error

	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	inbound chan protocol.Message
	// closed by Close so a reader blocked on a full inbound can exit
	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(url string, logger *zap.Logger) *Conn {
	return &Conn{
		url:     url,
		dialer:  websocket.DefaultDialer,
		header:  http.Header{},
		logger:  logger.Named("conn"),
		state:   StateConnecting,
		inbound: make(chan protocol.Message, inboundBuffer),
		done:    make(chan struct{}),
	}
}

// Connect dials the relay. Calling it while already open returns without
// dialing a second socket.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateOpen:
		return nil
	case StateClosed:
		return domain.ErrSessionClosed
	}

	ws, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		c.state = StateClosed
		c.lastErr = err
		close(c.inbound)
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.ws = ws
	c.state = StateOpen
	c.logger.Info("connected", zap.String("url", c.url))

	go c.readLoop(ws)
	return nil
}

// Send encodes and writes one message. It reports false, and only logs, when
// the channel is not open or the write fails.
func (c *Conn) Send(msg protocol.Message) bool {
	c.mu.Lock()
	ws, state := c.ws, c.state
	c.mu.Unlock()

	if state != StateOpen {
		c.logger.Warn("send on closed channel dropped", zap.String("kind", string(msg.Kind())), zap.Stringer("state", state))
		return false
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("encode failed", zap.Error(err))
		return false
	}

	c.writeMu.Lock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	err = ws.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()

	if err != nil {
		c.logger.Warn("write failed", zap.String("kind", string(msg.Kind())), zap.Error(err))
		c.markClosed(err)
		return false
	}
	return true
}

// Inbound yields decoded messages in arrival order. It is closed when the
// connection ends.
func (c *Conn) Inbound() <-chan protocol.Message {
	return c.inbound
}

func (c *Conn) IsOpen() bool {
	return c.State() == StateOpen
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that closed the connection, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close tears the channel down with a normal closure frame.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	if c.state != StateOpen {
		if c.state == StateConnecting {
			c.state = StateClosed
			close(c.inbound)
		}
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	ws := c.ws
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return ws.Close()
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	defer close(c.inbound)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection dropped", zap.Error(err))
			}
			c.markClosed(err)
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("inbound message dropped", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}

		select {
		case c.inbound <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) markClosed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.lastErr = err
	if c.ws != nil {
		c.ws.Close()
	}
}
