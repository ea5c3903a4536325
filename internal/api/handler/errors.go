package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/chessrooms/internal/api/apierr"
	"github.com/mcoot/chessrooms/internal/api/response"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
)

// maxBodyBytes bounds request bodies; the largest is a PEM public key
const maxBodyBytes = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	}
	return nil
}

// sealer reads and writes bodies encrypted under the session key
type sealer struct {
	keys *keyexchange.Service
}

func (s sealer) open(r *http.Request, key string, out any) error {
	var env keyexchange.Envelope
	if err := decodeJSON(r, &env); err != nil {
		return err
	}
	return s.keys.Decrypt(env, key, out)
}

func (s sealer) write(w http.ResponseWriter, key string, payload any) {
	env, err := s.keys.Encrypt(payload, key)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Encrypted{Data: env})
}
