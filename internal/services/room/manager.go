// Package room implements matchmaking and move relay between the two players of a room.
package room

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/chessrooms/internal/dependencies/clock"
	"github.com/mcoot/chessrooms/internal/dependencies/random"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/services/connection"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 16
	// maxIDAttempts bounds retries when a generated id collides
	maxIDAttempts = 10
)

var errRoomIDExhausted = errors.New("could not generate a unique room id")

// Manager owns the room table. Every operation runs under one mutex and
// delivers its notifications after the lock is released.
type Manager struct {
	mu    sync.Mutex
	rooms map[model.RoomID]*model.Room
	order []model.RoomID

	connections *connection.Registry
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
}

// ManagerInterface defines the room operations used by the realtime layer
type ManagerInterface interface {
	Create(gameType model.GameType, player model.Player) (*model.Room, error)
	Join(roomID model.RoomID, id model.ConnectionID) (*model.Room, error)
	Move(roomID model.RoomID, sender model.ConnectionID, move []byte) error
	GameOver(roomID model.RoomID)
	Resign(roomID model.RoomID, resigner model.ConnectionID) error
	Disconnect(id model.ConnectionID, conn connection.Conn)
}

var _ ManagerInterface = (*Manager)(nil)

type notification struct {
	to      model.ConnectionID
	event   model.EventType
	payload any
}

// NewManager creates a new room manager
func NewManager(connections *connection.Registry, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		rooms:       make(map[model.RoomID]*model.Room),
		connections: connections,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "room-manager")),
	}
}

// Create seats player in the first waiting room of the same game type, in
// creation order, or opens a new waiting room with player as white. When
// that first room is one the player already waits in, it is reused and
// room-created is sent again.
func (m *Manager) Create(gameType model.GameType, player model.Player) (*model.Room, error) {
	player.GameType = gameType

	m.mu.Lock()
	var notes []notification
	room := m.firstWaitingLocked(gameType)
	switch {
	case room != nil && room.HasPlayer(player.ConnectionID):
		notes = append(notes, notification{player.ConnectionID, model.EventRoomCreated, model.RoomCreatedPayload{RoomID: room.ID, UserID: player.ConnectionID}})
		m.logger.Info("player already waiting",
			slog.String("room_id", string(room.ID)),
			slog.String("game_type", string(gameType)))
	case room != nil:
		opponent := room.Players[0]
		player.Color = model.ColorForSeat(len(room.Players))
		player.RoomID = room.ID
		room.Players = append(room.Players, player)

		notes = append(notes,
			notification{player.ConnectionID, model.EventRoomCreated, model.RoomCreatedPayload{RoomID: room.ID, UserID: player.ConnectionID}},
			notification{opponent.ConnectionID, model.EventPlay, player},
			notification{player.ConnectionID, model.EventPlay, opponent},
		)
		m.logger.Info("players paired",
			slog.String("room_id", string(room.ID)),
			slog.String("game_type", string(gameType)))
	default:
		id, err := m.newIDLocked()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		player.Color = model.ColorWhite
		player.RoomID = id
		room = &model.Room{
			ID:        id,
			GameType:  gameType,
			Players:   []model.Player{player},
			CreatedAt: m.clock.Now(),
		}
		m.rooms[id] = room
		m.order = append(m.order, id)

		notes = append(notes, notification{player.ConnectionID, model.EventRoomCreated, model.RoomCreatedPayload{RoomID: id, UserID: player.ConnectionID}})
		m.logger.Info("room created",
			slog.String("room_id", string(id)),
			slog.String("game_type", string(gameType)))
	}
	snapshot := room.Clone()
	m.mu.Unlock()

	m.deliver(notes)
	return snapshot, nil
}

// Join seats id in a known room and sends the roster to every member
func (m *Manager) Join(roomID model.RoomID, id model.ConnectionID) (*model.Room, error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, model.ErrRoomNotFound
	}
	if !room.HasPlayer(id) {
		if room.IsFull() {
			m.mu.Unlock()
			return nil, model.ErrRoomFull
		}
		room.Players = append(room.Players, model.Player{
			ConnectionID: id,
			Color:        model.ColorForSeat(len(room.Players)),
			GameType:     room.GameType,
			RoomID:       room.ID,
		})
	}

	snapshot := room.Clone()
	payload := model.RoomJoinedPayload{RoomID: room.ID, Players: snapshot.Players}
	notes := make([]notification, 0, len(snapshot.Players))
	for _, p := range snapshot.Players {
		notes = append(notes, notification{p.ConnectionID, model.EventRoomJoined, payload})
	}
	m.mu.Unlock()

	m.deliver(notes)
	return snapshot, nil
}

// Move relays move to every member of the room except sender
func (m *Manager) Move(roomID model.RoomID, sender model.ConnectionID, move []byte) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return model.ErrRoomNotFound
	}
	var notes []notification
	for _, other := range room.Others(sender) {
		notes = append(notes, notification{other, model.EventOppMove, model.OppMovePayload{Move: move}})
	}
	m.mu.Unlock()

	m.deliver(notes)
	return nil
}

// GameOver removes the room unconditionally
func (m *Manager) GameOver(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteLocked(roomID) {
		m.logger.Info("room closed", slog.String("room_id", string(roomID)), slog.String("reason", "game over"))
	}
}

// Resign removes resigner, tells the remaining player and closes the room.
// A resigner that holds no seat leaves the room untouched.
func (m *Manager) Resign(roomID model.RoomID, resigner model.ConnectionID) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return model.ErrRoomNotFound
	}
	if !room.RemovePlayer(resigner) {
		m.mu.Unlock()
		return model.ErrNotInRoom
	}

	var notes []notification
	if len(room.Players) > 0 {
		notes = append(notes, notification{room.Players[0].ConnectionID, model.EventOppResign, model.OppResignPayload{RoomID: roomID}})
	}
	m.deleteLocked(roomID)
	m.mu.Unlock()

	m.logger.Info("room closed", slog.String("room_id", string(roomID)), slog.String("reason", "resignation"))
	m.deliver(notes)
	return nil
}

// Disconnect drops the identity from the connection registry. Rooms the
// identity is seated in are left as they are until game-over or game-resign.
func (m *Manager) Disconnect(id model.ConnectionID, conn connection.Conn) {
	m.connections.Unregister(id, conn)
}

// Get returns a snapshot of the room
func (m *Manager) Get(roomID model.RoomID) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

// List returns snapshots of all rooms in creation order
func (m *Manager) List() []*model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]*model.Room, 0, len(m.order))
	for _, id := range m.order {
		rooms = append(rooms, m.rooms[id].Clone())
	}
	return rooms
}

// Count returns the number of open rooms
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *Manager) firstWaitingLocked(gameType model.GameType) *model.Room {
	for _, id := range m.order {
		room := m.rooms[id]
		if room.State() == model.RoomStateWaiting && room.GameType == gameType {
			return room
		}
	}
	return nil
}

func (m *Manager) newIDLocked() (model.RoomID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := model.RoomID(m.random.String(RoomIDLength, random.Alphanumeric))
		if id == "" {
			continue
		}
		if _, exists := m.rooms[id]; !exists {
			return id, nil
		}
	}
	return "", errRoomIDExhausted
}

func (m *Manager) deleteLocked(roomID model.RoomID) bool {
	if _, ok := m.rooms[roomID]; !ok {
		return false
	}
	delete(m.rooms, roomID)
	for i, id := range m.order {
		if id == roomID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *Manager) deliver(notes []notification) {
	for _, n := range notes {
		if err := m.connections.Send(n.to, n.event, n.payload); err != nil {
			m.logger.Warn("room notification not delivered",
				slog.String("to", string(n.to)),
				slog.String("event", string(n.event)),
				slog.String("error", err.Error()))
		}
	}
}
