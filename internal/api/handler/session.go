package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/chessrooms/internal/api/middleware"
	"github.com/mcoot/chessrooms/internal/api/request"
	"github.com/mcoot/chessrooms/internal/api/response"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
	"github.com/mcoot/chessrooms/internal/services/session"
)

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Secure bool
}

// SessionHandler handles the session handshake endpoints
type SessionHandler struct {
	sessions *session.Registry
	keys     *keyexchange.Service
	cookie   CookieConfig
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Registry, keys *keyexchange.Service, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		keys:     keys,
		cookie:   cookie,
	}
}

// Establish handles GET /establish-connection
func (h *SessionHandler) Establish(w http.ResponseWriter, r *http.Request) {
	sess, created, err := h.sessions.Establish(r.Context(), middleware.SessionToken(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	if !created {
		response.JSON(w, http.StatusOK, response.Message{Message: "Session Established"})
		return
	}

	http.SetCookie(w, h.sessionCookie(sess.Token, h.sessions.TTL()))
	response.JSON(w, http.StatusOK, response.Message{Message: "Session Set"})
}

// AESKey handles POST /get-aes-key
func (h *SessionHandler) AESKey(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	var req request.AESKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	wrapped, err := h.keys.WrapKey(sess.Key, req.PublicKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AESKey{AESKey: wrapped})
}

// Logout handles GET /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), middleware.SessionToken(r)); err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	response.JSON(w, http.StatusOK, response.Message{Message: "Logged Out"})
}

// sessionCookie builds the session cookie; a negative ttl deletes it
func (h *SessionHandler) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl / time.Second)
	}
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
