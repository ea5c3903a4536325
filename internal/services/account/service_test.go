package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/chessrooms/internal/dependencies/mocks"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage/memory"
	"github.com/mcoot/chessrooms/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.store, s.clock, Config{BcryptCost: bcrypt.MinCost}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) registration() Registration {
	return Registration{
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "correct horse",
		RegisterAt: "2024-01-01T11:59:00Z",
	}
}

func (s *ServiceSuite) TestRegisterSucceeds() {
	user, err := s.service.Register(s.ctx, s.registration())
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
	s.Equal(model.DefaultRating, user.Rating)
	s.NotEmpty(user.UserID)
	s.NotEqual("correct horse", user.PasswordHash)
	s.Equal(time.Date(2024, 1, 1, 11, 59, 0, 0, time.UTC), user.CreatedAt)
}

func (s *ServiceSuite) TestRegisterPersistsUser() {
	user, _ := s.service.Register(s.ctx, s.registration())

	stored, err := s.store.FindUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(user.UserID, stored.UserID)
}

func (s *ServiceSuite) TestRegisterTwiceIsIdempotent() {
	first, err := s.service.Register(s.ctx, s.registration())
	s.Require().NoError(err)

	second, err := s.service.Register(s.ctx, s.registration())
	s.Require().NoError(err)

	s.Equal(first.Profile(), second.Profile())
}

func (s *ServiceSuite) TestRegisterExistingEmailWrongPassword() {
	_, _ = s.service.Register(s.ctx, s.registration())

	reg := s.registration()
	reg.Password = "wrong"
	_, err := s.service.Register(s.ctx, reg)
	s.ErrorIs(err, model.ErrCredentialMismatch)
}

func (s *ServiceSuite) TestRegisterExistingEmailDifferentUsername() {
	_, _ = s.service.Register(s.ctx, s.registration())

	reg := s.registration()
	reg.Username = "mallory"
	_, err := s.service.Register(s.ctx, reg)
	s.ErrorIs(err, model.ErrCredentialMismatch)
}

func (s *ServiceSuite) TestRegisterTakenUsername() {
	_, _ = s.service.Register(s.ctx, s.registration())

	reg := s.registration()
	reg.Email = "other@example.com"
	_, err := s.service.Register(s.ctx, reg)
	s.ErrorIs(err, model.ErrUserExists)
}

func (s *ServiceSuite) TestRegisterRequiresAllFields() {
	for _, mutate := range []func(*Registration){
		func(r *Registration) { r.Username = "" },
		func(r *Registration) { r.Email = "" },
		func(r *Registration) { r.Password = "" },
		func(r *Registration) { r.RegisterAt = "" },
	} {
		reg := s.registration()
		mutate(&reg)
		_, err := s.service.Register(s.ctx, reg)
		s.ErrorIs(err, model.ErrMissingField)
	}
}

func (s *ServiceSuite) TestRegisterUnparseableDateFallsBackToClock() {
	reg := s.registration()
	reg.RegisterAt = "yesterday-ish"

	user, err := s.service.Register(s.ctx, reg)
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), user.CreatedAt)
}

func (s *ServiceSuite) TestLoginSucceeds() {
	registered, _ := s.service.Register(s.ctx, s.registration())

	user, err := s.service.Login(s.ctx, Credentials{Email: "alice@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal(registered.UserID, user.UserID)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, _ = s.service.Register(s.ctx, s.registration())

	_, err := s.service.Login(s.ctx, Credentials{Email: "alice@example.com", Password: "nope"})
	s.ErrorIs(err, model.ErrCredentialMismatch)
}

func (s *ServiceSuite) TestLoginUnknownAccount() {
	_, err := s.service.Login(s.ctx, Credentials{Email: "ghost@example.com", Password: "x"})
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *ServiceSuite) TestRecordGame() {
	_, _ = s.service.Register(s.ctx, s.registration())

	updated, err := s.service.RecordGame(s.ctx, "alice", 1015, model.GameRecord{
		Result:         "win",
		Opponent:       "bob",
		Moves:          "1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7#",
		OpponentRating: 1000,
	})
	s.Require().NoError(err)
	s.True(updated)

	user, _ := s.store.FindUserByUsername(s.ctx, "alice")
	s.Equal(1015, user.Rating)
	s.Require().Len(user.Games, 1)
	s.Equal(s.clock.Now(), user.Games[0].Date)
}

func (s *ServiceSuite) TestRecordGameUnknownUser() {
	updated, err := s.service.RecordGame(s.ctx, "ghost", 1000, model.GameRecord{})
	s.Require().NoError(err)
	s.False(updated)
}
