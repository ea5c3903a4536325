// Package realtime serves the websocket endpoint players use for matchmaking,
// move relay and in-game engine hints.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/services/connection"
	"github.com/mcoot/chessrooms/internal/services/engine"
	"github.com/mcoot/chessrooms/internal/services/room"
)

// ReconnectParam is the query parameter carrying the identity of a previous connection
const ReconnectParam = "previousSocketId"

const welcomeMessage = "Welcome to the chess server!"

// Config holds configuration for the websocket endpoint
type Config struct {
	// AllowedOrigin restricts browser origins; empty allows any
	AllowedOrigin string
}

// Handler upgrades connections and dispatches their events
type Handler struct {
	connections *connection.Registry
	rooms       room.ManagerInterface
	engine      engine.MoveFinder
	upgrader    websocket.Upgrader
	logger      *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler creates a new websocket handler
func NewHandler(connections *connection.Registry, rooms room.ManagerInterface, finder engine.MoveFinder, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		connections: connections,
		rooms:       rooms,
		engine:      finder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigin),
		},
		logger:  logger.With(slog.String("component", "realtime")),
		clients: make(map[*Client]struct{}),
	}
}

// Shutdown sends a close frame to every live client; their read loops then
// unwind through the normal disconnect path.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.logger.Info("closing websocket clients", slog.Int("count", len(clients)))
}

func (h *Handler) track(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Handler) untrack(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowed == "" || origin == "" || origin == allowed
	}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	var client *Client
	hint := model.ConnectionID(r.URL.Query().Get(ReconnectParam))
	h.connections.RegisterWith(model.ConnectionID(uuid.NewString()), hint, func(id model.ConnectionID) connection.Conn {
		client = newClient(id, ws, h.logger)
		return client
	})

	h.logger.Info("client connected",
		slog.String("connection_id", string(client.id)),
		slog.Bool("resumed", hint != "" && client.id == hint),
		slog.Int("total_clients", h.connections.Count()))

	h.track(client)
	go client.writePump()
	_ = client.Send(model.EventWelcome, model.WelcomePayload{Message: welcomeMessage, UserID: client.id})
	go h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	// searches started by this client die with it
	ctx, cancel := context.WithCancel(context.Background())
	connectedAt := time.Now()
	defer func() {
		cancel()
		h.untrack(c)
		h.rooms.Disconnect(c.id, c)
		c.close()
		h.logger.Info("client disconnected",
			slog.String("connection_id", string(c.id)),
			slog.Duration("connection_duration", time.Since(connectedAt)))
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed",
					slog.String("connection_id", string(c.id)),
					slog.String("error", err.Error()))
			}
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("malformed frame ignored", slog.String("connection_id", string(c.id)))
			continue
		}
		h.dispatch(ctx, c, env)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *Client, env model.Envelope) {
	var err error
	switch env.Event {
	case model.EventCreateRoom:
		err = h.createRoom(c, env.Data)
	case model.EventJoinRoom:
		err = h.joinRoom(c, env.Data)
	case model.EventMove:
		var req model.MoveRequest
		if err = decode(env.Data, &req); err == nil {
			err = h.rooms.Move(req.RoomID, c.id, req.Move)
		}
	case model.EventGameOver:
		var req model.RoomRequest
		if err = decode(env.Data, &req); err == nil {
			h.rooms.GameOver(req.RoomID)
		}
	case model.EventGameResign:
		var req model.RoomRequest
		if err = decode(env.Data, &req); err == nil {
			err = h.rooms.Resign(req.RoomID, c.id)
		}
	case model.EventGetBestMove:
		var req model.BestMoveRequest
		if err = decode(env.Data, &req); err == nil {
			go h.bestMove(ctx, c, req)
		}
	default:
		h.logger.Debug("unknown event ignored",
			slog.String("connection_id", string(c.id)),
			slog.String("event", string(env.Event)))
		return
	}

	if err != nil {
		h.logger.Info("event not applied",
			slog.String("connection_id", string(c.id)),
			slog.String("event", string(env.Event)),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) createRoom(c *Client, data json.RawMessage) error {
	var req model.CreateRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.rooms.Create(req.GameType, model.Player{
		ConnectionID: c.id,
		Name:         req.User,
		Rating:       req.Rating,
	})
	return err
}

func (h *Handler) joinRoom(c *Client, data json.RawMessage) error {
	var req model.JoinRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	_, err := h.rooms.Join(req.RoomID, c.id)
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return c.Send(model.EventRoomError, model.RoomErrorPayload{Message: "Room not found"})
	case errors.Is(err, model.ErrRoomFull):
		return c.Send(model.EventRoomError, model.RoomErrorPayload{Message: "Room is full"})
	}
	return err
}

// bestMove answers with a null move whenever the engine produced nothing usable
func (h *Handler) bestMove(ctx context.Context, c *Client, req model.BestMoveRequest) {
	var reply model.BestMovePayload
	move, err := h.engine.BestMove(ctx, engine.Request{Position: req.Position, Depth: req.Depth})
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("engine search failed",
			slog.String("connection_id", string(c.id)),
			slog.String("error", err.Error()))
	case move != "":
		reply.BestMove = &move
	}
	_ = c.Send(model.EventBestMove, reply)
}

func decode(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return model.ErrMissingField
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(model.ErrBadRequest, err)
	}
	return nil
}
