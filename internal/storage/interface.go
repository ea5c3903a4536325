package storage

import (
	"context"
	"time"

	"github.com/mcoot/chessrooms/internal/model"
)

// SessionStore persists handshake sessions
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	// GetSession returns model.ErrSessionNotFound for unknown tokens
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes sessions expired at now and returns how many were removed
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// UserStore persists registered accounts
type UserStore interface {
	// SaveUser returns false if the username, email or user id is already taken
	SaveUser(ctx context.Context, user *model.User) (bool, error)
	// FindUserByUsername returns model.ErrUserNotFound when absent
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	// FindUserByEmail returns model.ErrUserNotFound when absent
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateRatingAndAppendGame sets the rating and appends game, returning false if nothing changed
	UpdateRatingAndAppendGame(ctx context.Context, username string, rating int, game model.GameRecord) (bool, error)
}
