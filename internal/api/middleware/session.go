package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/chessrooms/internal/api/apierr"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/services/session"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "sessionKey"

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects requests without a live session and puts the
// session in the request context
func RequireSession(sessions *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Lookup(r.Context(), SessionToken(r))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken returns the session token sent with the request, if any
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *model.Session {
	sess := GetSession(ctx)
	if sess == nil {
		panic("no session in context - session middleware not applied?")
	}
	return sess
}
