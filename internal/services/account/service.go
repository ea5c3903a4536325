package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/chessrooms/internal/dependencies/clock"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage"
)

// Config holds configuration for the account service
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default account configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Registration is the decrypted body of a register request
type Registration struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RegisterAt string `json:"registerAt"`
}

// Credentials is the decrypted body of a login request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service handles account registration, login and game history
type Service struct {
	users  storage.UserStore
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a new account service
func New(users storage.UserStore, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		users:  users,
		clock:  clk,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "account-service")),
	}
}

// Register creates an account. Registering again with the same email, username
// and password returns the existing account instead of failing.
func (s *Service) Register(ctx context.Context, reg Registration) (*model.User, error) {
	if reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.RegisterAt == "" {
		return nil, model.ErrMissingField
	}

	existing, err := s.users.FindUserByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		if existing.Username == reg.Username && s.passwordMatches(existing, reg.Password) {
			return existing, nil
		}
		return nil, model.ErrCredentialMismatch
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		UserID:       uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Rating:       model.DefaultRating,
		Games:        []model.GameRecord{},
		CreatedAt:    s.registeredAt(reg.RegisterAt),
	}

	saved, err := s.users.SaveUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if !saved {
		return nil, model.ErrUserExists
	}

	s.logger.Info("user registered", slog.String("user_id", user.UserID))
	return user, nil
}

// Login checks the credentials against the account registered under the email
func (s *Service) Login(ctx context.Context, creds Credentials) (*model.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, model.ErrMissingField
	}

	user, err := s.users.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.passwordMatches(user, creds.Password) {
		return nil, model.ErrCredentialMismatch
	}
	return user, nil
}

// RecordGame stores the new rating and appends the finished game to the history
func (s *Service) RecordGame(ctx context.Context, username string, rating int, game model.GameRecord) (bool, error) {
	if username == "" {
		return false, model.ErrMissingField
	}
	if game.Date.IsZero() {
		game.Date = s.clock.Now()
	}
	return s.users.UpdateRatingAndAppendGame(ctx, username, rating, game)
}

func (s *Service) passwordMatches(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// registeredAt parses the client supplied timestamp, falling back to now
func (s *Service) registeredAt(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.UTC()
		}
	}
	return s.clock.Now()
}
