package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/chessrooms/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size; positions and moves are small
	maxMessageSize = 8192

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

var (
	errClientClosed = errors.New("client closed")
	errSendBuffer   = errors.New("client send buffer full")
)

// Client is one websocket transport. It is the handle stored in the
// connection registry under the client's logical identity.
type Client struct {
	id     model.ConnectionID
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newClient(id model.ConnectionID, ws *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the logical identity the client was registered under
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Send queues an event for the write pump. It never blocks: a client whose
// buffer is full loses the event.
func (c *Client) Send(event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	msg, err := json.Marshal(model.Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errClientClosed
	default:
		c.logger.Warn("message dropped - client buffer full",
			slog.String("connection_id", string(c.id)),
			slog.String("event", string(event)))
		return errSendBuffer
	}
}

// close stops the write pump; safe to call more than once
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
