package model

import "encoding/json"

// EventType names a realtime event
type EventType string

// Client -> server events
const (
	EventCreateRoom  EventType = "create-room"
	EventJoinRoom    EventType = "join-room"
	EventMove        EventType = "move"
	EventGameOver    EventType = "game-over"
	EventGameResign  EventType = "game-resign"
	EventGetBestMove EventType = "get-best-move"
)

// Server -> client events
const (
	EventWelcome     EventType = "welcome"
	EventRoomCreated EventType = "room-created"
	EventPlay        EventType = "play"
	EventRoomJoined  EventType = "room-joined"
	EventRoomError   EventType = "room-error"
	EventOppMove     EventType = "oppMove"
	EventOppResign   EventType = "oppResign"
	EventBestMove    EventType = "best-move"
)

// Envelope is the frame carried over the realtime transport
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateRoomRequest is the payload of create-room
type CreateRoomRequest struct {
	User     string   `json:"user"`
	Rating   int      `json:"rating"`
	GameType GameType `json:"gameType"`
}

// JoinRoomRequest is the payload of join-room
type JoinRoomRequest struct {
	RoomID RoomID       `json:"roomId"`
	UserID ConnectionID `json:"userId"`
}

// MoveRequest is the payload of move
type MoveRequest struct {
	RoomID RoomID          `json:"roomId"`
	Move   json.RawMessage `json:"move"`
}

// RoomRequest is the payload of game-over and game-resign
type RoomRequest struct {
	RoomID RoomID `json:"roomId"`
}

// BestMoveRequest is the payload of get-best-move and POST /bestmove
type BestMoveRequest struct {
	Position string `json:"position"`
	Depth    int    `json:"depth"`
}

// WelcomePayload greets a new connection with its identity
type WelcomePayload struct {
	Message string       `json:"message"`
	UserID  ConnectionID `json:"userId"`
}

// RoomCreatedPayload tells the creator which room it waits in
type RoomCreatedPayload struct {
	RoomID RoomID       `json:"roomId"`
	UserID ConnectionID `json:"userId"`
}

// RoomJoinedPayload carries the roster after an explicit join
type RoomJoinedPayload struct {
	RoomID  RoomID   `json:"roomId"`
	Players []Player `json:"players"`
}

// RoomErrorPayload reports a failed join
type RoomErrorPayload struct {
	Message string `json:"message"`
}

// OppMovePayload relays a move to the opponent
type OppMovePayload struct {
	Move json.RawMessage `json:"move"`
}

// OppResignPayload tells the remaining player its opponent resigned
type OppResignPayload struct {
	RoomID RoomID `json:"roomId"`
}

// BestMovePayload carries the engine result; nil means no move was found
type BestMovePayload struct {
	BestMove *string `json:"bestMove"`
}
