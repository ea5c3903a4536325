// Package session owns the token -> symmetric key table behind the handshake.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/chessrooms/internal/dependencies/clock"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage"
)

// KeyGenerator mints symmetric session keys
type KeyGenerator interface {
	GenerateKey() (string, error)
}

// Config holds configuration for the session registry
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// DefaultConfig returns the default session lifetime and sweep cadence
func DefaultConfig() Config {
	return Config{
		TTL:           24 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}

// Registry maps session tokens to symmetric keys with explicit expiry
type Registry struct {
	store  storage.SessionStore
	keys   KeyGenerator
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a new session registry
func New(store storage.SessionStore, keys KeyGenerator, clk clock.Clock, cfg Config, logger *slog.Logger) *Registry {
	defaults := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	return &Registry{
		store:  store,
		keys:   keys,
		clock:  clk,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "session-registry")),
	}
}

// TTL returns the configured session lifetime
func (r *Registry) TTL() time.Duration {
	return r.cfg.TTL
}

// Establish returns the live session for token, or mints a new one when token
// is empty, unknown or expired. The boolean reports whether a session was created.
func (r *Registry) Establish(ctx context.Context, token string) (*model.Session, bool, error) {
	if token != "" {
		existing, err := r.Lookup(ctx, token)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, model.ErrSessionNotFound) {
			return nil, false, err
		}
	}

	key, err := r.keys.GenerateKey()
	if err != nil {
		return nil, false, err
	}

	now := r.clock.Now()
	session := &model.Session{
		Token:     uuid.NewString(),
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(r.cfg.TTL),
	}
	if err := r.store.SaveSession(ctx, session); err != nil {
		return nil, false, fmt.Errorf("save session: %w", err)
	}

	r.logger.Debug("session established", slog.Time("expires_at", session.ExpiresAt))
	return session, true, nil
}

// Lookup returns the session for token, deleting it if it has expired
func (r *Registry) Lookup(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}

	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(r.clock.Now()) {
		_ = r.store.DeleteSession(ctx, token)
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

// Destroy removes the session for token if present
func (r *Registry) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return r.store.DeleteSession(ctx, token)
}

// Sweep removes every expired session
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	return r.store.DeleteExpiredSessions(ctx, r.clock.Now())
}

// StartSweeper runs Sweep every SweepInterval until ctx is done
func (r *Registry) StartSweeper(ctx context.Context) {
	ticks, stop := r.clock.Ticker(r.cfg.SweepInterval)
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				removed, err := r.Sweep(ctx)
				if err != nil {
					r.logger.Warn("session sweep failed", slog.String("error", err.Error()))
					continue
				}
				if removed > 0 {
					r.logger.Info("expired sessions removed", slog.Int("count", removed))
				}
			}
		}
	}()
}
