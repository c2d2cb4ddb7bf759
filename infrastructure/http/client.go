package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-desk/domain/event"
	cderrors "chat-desk/errors"
)

// WSConfig tunes the websocket pumps.
type WSConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// Client is one live connection. It implements contract.EventSink: pushes
// land on a buffered channel drained by the write pump, so a stalled
// socket never blocks the sender's request path.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	log    *slog.Logger
	cfg    WSConfig

	mu     sync.RWMutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn, log *slog.Logger, cfg WSConfig) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		log:    log,
		cfg:    cfg,
	}
}

// Push enqueues the event for the write pump. Non-blocking: a full buffer
// means the consumer is too slow and the event is dropped (the persisted
// record remains the source of truth).
func (c *Client) Push(evt event.DomainEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cderrors.ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return cderrors.ErrSlowConsumer
	}
}

// shutdown closes the outbound channel exactly once so the write pump
// drains and exits. Safe against concurrent Push.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump consumes the socket until the peer goes away, then runs
// onClose (unregister) and tears the connection down. Inbound frames are
// only used for liveness; clients talk to the REST surface for commands.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		onClose()
		c.shutdown()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read ended", "user", c.userID, "error", err)
			}
			return
		}
	}
}

// WritePump serializes all socket writes: queued events plus pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
