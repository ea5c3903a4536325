package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessrooms/internal/model"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrSessionNotFound, http.StatusForbidden},
		{model.ErrBadRequest, http.StatusBadRequest},
		{fmt.Errorf("decode: %w", model.ErrBadRequest), http.StatusBadRequest},
		{model.ErrMissingField, http.StatusBadRequest},
		{model.ErrCredentialMismatch, http.StatusBadRequest},
		{model.ErrAccountNotFound, http.StatusBadRequest},
		{model.ErrUserExists, http.StatusConflict},
		{model.ErrKeyWrap, http.StatusInternalServerError},
		{errors.New("mongo: connection refused"), http.StatusInternalServerError},
		{NewInvalidRequestError("publicKey is required"), http.StatusBadRequest},
		{NewNotFoundError(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestCredentialErrorsAreIndistinguishable(t *testing.T) {
	unknown := httptest.NewRecorder()
	WriteError(unknown, model.ErrAccountNotFound)
	wrong := httptest.NewRecorder()
	WriteError(wrong, model.ErrCredentialMismatch)

	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestWriteErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("lookup: %w", model.ErrSessionNotFound))

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeSessionNotFound, resp.Error.Code)
	assert.Equal(t, "Session Not Found", resp.Error.Message)
}
