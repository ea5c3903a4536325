package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage"
)

// Storage is an in-memory implementation of the session and user stores
type Storage struct {
	mu sync.RWMutex

	sessions   map[string]model.Session
	users      map[string]model.User
	emailIndex map[string]string
	idIndex    map[string]string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:   make(map[string]model.Session),
		users:      make(map[string]model.User),
		emailIndex: make(map[string]string),
		idIndex:    make(map[string]string),
	}
}

var (
	_ storage.SessionStore = (*Storage)(nil)
	_ storage.UserStore    = (*Storage)(nil)
)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return false, nil
	}
	if _, exists := s.emailIndex[user.Email]; exists {
		return false, nil
	}
	if _, exists := s.idIndex[user.UserID]; exists {
		return false, nil
	}

	stored := *user
	stored.Games = append([]model.GameRecord{}, user.Games...)
	s.users[user.Username] = stored
	s.emailIndex[user.Email] = user.Username
	s.idIndex[user.UserID] = user.Username
	return true, nil
}

func (s *Storage) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(username)
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.userLocked(username)
}

func (s *Storage) UpdateRatingAndAppendGame(ctx context.Context, username string, rating int, game model.GameRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return false, nil
	}
	user.Rating = rating
	user.Games = append(append([]model.GameRecord{}, user.Games...), game)
	s.users[username] = user
	return true, nil
}

// userLocked returns a copy of the user; caller must hold the lock
func (s *Storage) userLocked(username string) (*model.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user.Games = append([]model.GameRecord{}, user.Games...)
	return &user, nil
}
