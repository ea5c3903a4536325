package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// ConnectionID is the logical identity of a realtime client
type ConnectionID string

// GameType tags rooms so only compatible players are matched (e.g. "blitz")
type GameType string

// Color is the side a player controls
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// RoomState is derived from the number of seated players
type RoomState string

const (
	RoomStateEmpty   RoomState = "empty"
	RoomStateWaiting RoomState = "waiting"
	RoomStateActive  RoomState = "active"
)

// MaxRoomPlayers is the seat count of a room
const MaxRoomPlayers = 2

// Player is a room-scoped seat
type Player struct {
	ConnectionID ConnectionID `json:"id"`
	Name         string       `json:"name,omitempty"`
	Rating       int          `json:"rating,omitempty"`
	Color        Color        `json:"color"`
	GameType     GameType     `json:"gameType,omitempty"`
	RoomID       RoomID       `json:"roomId"`
}

// Room holds up to two players and relays their moves
type Room struct {
	ID        RoomID    `json:"id"`
	GameType  GameType  `json:"gameType"`
	Players   []Player  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// ColorForSeat returns the color of the n-th seat (0-based)
func ColorForSeat(n int) Color {
	if n == 0 {
		return ColorWhite
	}
	return ColorBlack
}

// State derives the lifecycle state from the seat count
func (r *Room) State() RoomState {
	switch len(r.Players) {
	case 0:
		return RoomStateEmpty
	case 1:
		return RoomStateWaiting
	default:
		return RoomStateActive
	}
}

// IsFull returns true if both seats are taken
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxRoomPlayers
}

// HasPlayer returns true if the identity holds a seat
func (r *Room) HasPlayer(id ConnectionID) bool {
	return r.playerIndex(id) >= 0
}

// RemovePlayer drops the identity's seat, returning false if it had none
func (r *Room) RemovePlayer(id ConnectionID) bool {
	idx := r.playerIndex(id)
	if idx < 0 {
		return false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	return true
}

// Others returns the identities seated in the room other than id
func (r *Room) Others(id ConnectionID) []ConnectionID {
	var others []ConnectionID
	for _, p := range r.Players {
		if p.ConnectionID != id {
			others = append(others, p.ConnectionID)
		}
	}
	return others
}

// Clone returns a deep copy safe to hand out of a lock
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	return &c
}

func (r *Room) playerIndex(id ConnectionID) int {
	for i, p := range r.Players {
		if p.ConnectionID == id {
			return i
		}
	}
	return -1
}
