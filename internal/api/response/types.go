package response

import "github.com/mcoot/chessrooms/internal/services/keyexchange"

// Message is a plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// AESKey carries the session key wrapped with the caller's public key
type AESKey struct {
	AESKey string `json:"aesKey"`
}

// Encrypted wraps an encrypted reply
type Encrypted struct {
	Data keyexchange.Envelope `json:"data"`
}

// BestMove is the reply of POST /bestmove; a null move means none was found
type BestMove struct {
	BestMove *string `json:"bestmove"`
}

// GameRecorded is the decrypted reply of POST /games
type GameRecorded struct {
	Updated bool `json:"updated"`
}

// Health is the reply of the health endpoint
type Health struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
