package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrBadRequest      = errors.New("bad request")
	ErrMissingField    = errors.New("missing required field")
	ErrKeyWrap         = errors.New("failed to wrap session key")

	// Account errors
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotInRoom    = errors.New("player is not in room")

	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")
)
