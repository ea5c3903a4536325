package factory

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/services/account"
	"github.com/mcoot/chessrooms/internal/services/engine"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
)

type recordingConn struct {
	mu     sync.Mutex
	events []model.EventType
}

func (c *recordingConn) Send(event model.EventType, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type fixedFinder string

func (f fixedFinder) BestMove(context.Context, engine.Request) (string, error) {
	return string(f), nil
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(fixedFinder("e2e4"))
	s.app.Engine.Start()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// Test: Handshake, registration and login share one session key
func (s *IntegrationSuite) TestHandshakeAndRegistration() {
	s.app.MockRandom.QueueBytes([]byte("0123456789abcdef"))

	// Step 1: Establish a session
	sess, created, err := s.app.Sessions.Establish(s.ctx, "")
	s.Require().NoError(err)
	s.True(created)
	s.Equal("30313233343536373839616263646566", sess.Key)

	// Step 2: Deliver the key under the client's public key
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	pemKey, err := keyexchange.MarshalPublicKey(&priv.PublicKey)
	s.Require().NoError(err)
	wrapped, err := s.app.KeyExchange.WrapKey(sess.Key, pemKey)
	s.Require().NoError(err)
	clientKey, err := keyexchange.UnwrapKey(wrapped, priv)
	s.Require().NoError(err)
	s.Equal(sess.Key, clientKey)

	// Step 3: Client encrypts a registration, server decrypts it
	env, err := s.app.KeyExchange.Encrypt(account.Registration{
		Username:   "magnus",
		Email:      "magnus@example.com",
		Password:   "e4e5nf3",
		RegisterAt: "2024-01-01T12:00:00Z",
	}, clientKey)
	s.Require().NoError(err)

	var reg account.Registration
	s.Require().NoError(s.app.KeyExchange.Decrypt(env, sess.Key, &reg))
	user, err := s.app.Accounts.Register(s.ctx, reg)
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, user.Rating)

	// Step 4: Login against the same store
	loggedIn, err := s.app.Accounts.Login(s.ctx, account.Credentials{Email: "magnus@example.com", Password: "e4e5nf3"})
	s.Require().NoError(err)
	s.Equal(user.UserID, loggedIn.UserID)
}

// Test: Sessions vanish once the clock passes their lifetime
func (s *IntegrationSuite) TestSessionExpiry() {
	sess, _, err := s.app.Sessions.Establish(s.ctx, "")
	s.Require().NoError(err)

	s.app.MockClock.Advance(24*time.Hour + time.Nanosecond)

	_, err = s.app.Sessions.Lookup(s.ctx, sess.Token)
	s.True(errors.Is(err, model.ErrSessionNotFound))
}

// Test: Matchmaking through the shared connection registry
func (s *IntegrationSuite) TestMatchmaking() {
	s.app.MockRandom.QueueString("AAAAAAAAAAAAAAAA")

	white, black := &recordingConn{}, &recordingConn{}
	whiteID := s.app.Connections.Register("white", "", white)
	blackID := s.app.Connections.Register("black", "", black)

	_, err := s.app.Rooms.Create("blitz", model.Player{ConnectionID: whiteID, Name: "alice"})
	s.Require().NoError(err)
	r, err := s.app.Rooms.Create("blitz", model.Player{ConnectionID: blackID, Name: "bob"})
	s.Require().NoError(err)

	s.Equal(model.RoomID("AAAAAAAAAAAAAAAA"), r.ID)
	s.Equal(model.RoomStateActive, r.State())
	s.Equal([]model.EventType{model.EventRoomCreated, model.EventPlay}, white.events)
	s.Equal([]model.EventType{model.EventRoomCreated, model.EventPlay}, black.events)
}

// Test: Searches go through the worker pool
func (s *IntegrationSuite) TestEngineThroughPool() {
	move, err := s.app.Engine.BestMove(s.ctx, engine.Request{Position: "8/8/8/8/8/8/8/K6k w - - 0 1", Depth: 3})
	s.Require().NoError(err)
	s.Equal("e2e4", move)
}

// Test: Unknown backends are rejected before anything connects
func (s *IntegrationSuite) TestInvalidStoreSelection() {
	_, err := New(s.ctx, Config{SessionStore: "mongo"})
	s.Error(err)

	_, err = New(s.ctx, Config{UserStore: "redis"})
	s.ErrorContains(err, "RedisConfig required")
}
