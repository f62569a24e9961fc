package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/chessbroker/internal/model"
)

const (
	// writeWait is the deadline for a single write to the peer
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before declaring the
	// connection dead
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// sendBufferSize bounds the outbound queue; a slow client drops
	// messages rather than blocking the dispatcher
	sendBufferSize = 256
)

// Client is one live WebSocket connection. It implements the
// directory Handle so session broadcasts can be pushed to it.
type Client struct {
	id       string
	identity model.Identity

	conn       *websocket.Conn
	sendCh     chan []byte
	dispatcher *Dispatcher
	logger     *slog.Logger

	closeOnce sync.Once
	closedMu  sync.Mutex
	closed    bool
}

func newClient(id string, identity model.Identity, conn *websocket.Conn, dispatcher *Dispatcher, logger *slog.Logger) *Client {
	return &Client{
		id:         id,
		identity:   identity,
		conn:       conn,
		sendCh:     make(chan []byte, sendBufferSize),
		dispatcher: dispatcher,
		logger: logger.With(
			slog.String("component", "ws_client"),
			slog.String("handle_id", id),
			slog.String("identity", string(identity)),
		),
	}
}

// HandleID distinguishes sequential connections from the same identity
func (c *Client) HandleID() string {
	return c.id
}

// Identity returns the authenticated identity behind the connection
func (c *Client) Identity() model.Identity {
	return c.identity
}

// Send queues a message for delivery. If the client's buffer is full
// the message is dropped; the ping/pong cycle will reap a connection
// that has stopped draining.
func (c *Client) Send(message []byte) {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.sendCh <- message:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}

// run starts the read and write pumps and blocks until the read pump
// exits, then tears the connection down.
func (c *Client) run(ctx context.Context) {
	c.dispatcher.HandleConnect(c)

	go c.writePump()
	c.readPump(ctx)

	c.dispatcher.HandleDisconnect(ctx, c)
	c.close()
}

// readPump reads inbound messages and hands them to the dispatcher.
// It exits on any read error, including the pong deadline expiring.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		c.dispatcher.HandleMessage(ctx, c, message)
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain anything already queued before the next blocking read
			for i := 0; i < len(c.sendCh); i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.sendCh); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		close(c.sendCh)
		c.closedMu.Unlock()
		_ = c.conn.Close()
	})
}
