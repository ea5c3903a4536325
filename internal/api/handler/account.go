package handler

import (
	"net/http"

	"github.com/mcoot/chessrooms/internal/api/middleware"
	"github.com/mcoot/chessrooms/internal/api/request"
	"github.com/mcoot/chessrooms/internal/api/response"
	"github.com/mcoot/chessrooms/internal/services/account"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
)

// AccountHandler handles the encrypted account endpoints
type AccountHandler struct {
	accounts *account.Service
	sealer   sealer
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *account.Service, keys *keyexchange.Service) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sealer:   sealer{keys: keys},
	}
}

// Register handles POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	var reg account.Registration
	if err := h.sealer.open(r, sess.Key, &reg); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sealer.write(w, sess.Key, user.Profile())
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	var creds account.Credentials
	if err := h.sealer.open(r, sess.Key, &creds); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), creds)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sealer.write(w, sess.Key, user.Profile())
}

// RecordGame handles POST /games
func (h *AccountHandler) RecordGame(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	var req request.GamePayload
	if err := h.sealer.open(r, sess.Key, &req); err != nil {
		WriteError(w, err)
		return
	}

	updated, err := h.accounts.RecordGame(r.Context(), req.Username, req.Rating, req.Game)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sealer.write(w, sess.Key, response.GameRecorded{Updated: updated})
}
