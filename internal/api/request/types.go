package request

import "github.com/mcoot/chessrooms/internal/model"

// AESKeyRequest is the request body for POST /get-aes-key
type AESKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// BestMoveRequest is the request body for POST /bestmove
type BestMoveRequest struct {
	Position string `json:"position"`
	Depth    int    `json:"depth"`
}

// GamePayload travels inside an encrypted {encryptedData, iv} envelope.
type GamePayload struct {
	Username string           `json:"username"`
	Rating   int              `json:"rating"`
	Game     model.GameRecord `json:"game"`
}
