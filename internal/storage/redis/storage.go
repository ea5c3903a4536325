package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage"
)

// Storage is a Redis-backed session and user store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

var (
	_ storage.SessionStore = (*Storage)(nil)
	_ storage.UserStore    = (*Storage)(nil)
)

// Session operations

// SaveSession stores the session with a TTL matching its lifetime, so Redis
// evicts it on its own.
func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.Token), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// DeleteExpiredSessions is a no-op: key TTLs already evict sessions.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// User operations

// SaveUser claims the username, email and user id index keys with SETNX,
// releasing any already claimed if a later one is taken.
func (s *Storage) SaveUser(ctx context.Context, user *model.User) (bool, error) {
	if user.Games == nil {
		user.Games = []model.GameRecord{}
	}
	data, err := json.Marshal(user)
	if err != nil {
		return false, err
	}

	claims := []struct {
		key   string
		value any
	}{
		{userKey(user.Username), data},
		{emailIndexKey(user.Email), user.Username},
		{userIDIndexKey(user.UserID), user.Username},
	}

	var claimed []string
	for _, c := range claims {
		ok, err := s.client.SetNX(ctx, c.key, c.value, 0).Result()
		if err != nil || !ok {
			if len(claimed) > 0 {
				_ = s.client.Del(ctx, claimed...).Err()
			}
			return false, err
		}
		claimed = append(claimed, c.key)
	}
	return true, nil
}

func (s *Storage) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	username, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.FindUserByUsername(ctx, username)
}

// UpdateRatingAndAppendGame rewrites the user record inside a WATCH transaction,
// retrying when a concurrent writer touches the key first.
func (s *Storage) UpdateRatingAndAppendGame(ctx context.Context, username string, rating int, game model.GameRecord) (bool, error) {
	key := userKey(username)
	updated := false

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var user model.User
		if err := json.Unmarshal(data, &user); err != nil {
			return err
		}
		user.Rating = rating
		user.Games = append(user.Games, game)

		next, err := json.Marshal(&user)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = true
		}
		return err
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, err
		}
		return updated, nil
	}
	return false, fmt.Errorf("update user %s: too many concurrent writers", username)
}
