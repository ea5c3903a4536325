package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessrooms/internal/dependencies/mocks"
	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage/memory"
	"github.com/mcoot/chessrooms/internal/testutil"
)

type fixedKeys struct {
	keys []string
	err  error
}

func (f *fixedKeys) GenerateKey() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(f.keys) == 0 {
		return "0123456789abcdef0123456789abcdef", nil
	}
	k := f.keys[0]
	f.keys = f.keys[1:]
	return k, nil
}

type RegistrySuite struct {
	suite.Suite
	store    *memory.Storage
	clock    *mocks.MockClock
	keys     *fixedKeys
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.keys = &fixedKeys{}
	s.registry = New(s.store, s.keys, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RegistrySuite) TestEstablishCreatesSession() {
	s.keys.keys = []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}

	session, created, err := s.registry.Establish(s.ctx, "")
	s.Require().NoError(err)
	s.True(created)
	s.NotEmpty(session.Token)
	s.Equal("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", session.Key)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *RegistrySuite) TestEstablishIsIdempotentForLiveToken() {
	first, _, err := s.registry.Establish(s.ctx, "")
	s.Require().NoError(err)

	again, created, err := s.registry.Establish(s.ctx, first.Token)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.Token, again.Token)
	s.Equal(first.Key, again.Key)
}

func (s *RegistrySuite) TestEstablishReplacesUnknownToken() {
	session, created, err := s.registry.Establish(s.ctx, "stale-cookie")
	s.Require().NoError(err)
	s.True(created)
	s.NotEqual("stale-cookie", session.Token)
}

func (s *RegistrySuite) TestLookupAtCreationTime() {
	session, _, _ := s.registry.Establish(s.ctx, "")

	got, err := s.registry.Lookup(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.Key, got.Key)
}

func (s *RegistrySuite) TestLookupAfterTTLFails() {
	session, _, _ := s.registry.Establish(s.ctx, "")

	s.clock.Advance(24*time.Hour + time.Nanosecond)

	_, err := s.registry.Lookup(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)

	// lazy delete removed it from the store
	_, err = s.store.GetSession(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestLookupJustBeforeExpiry() {
	session, _, _ := s.registry.Establish(s.ctx, "")

	s.clock.Advance(24*time.Hour - time.Second)

	_, err := s.registry.Lookup(s.ctx, session.Token)
	s.NoError(err)
}

func (s *RegistrySuite) TestLookupEmptyToken() {
	_, err := s.registry.Lookup(s.ctx, "")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestEstablishAfterExpiryMintsNewSession() {
	old, _, _ := s.registry.Establish(s.ctx, "")
	s.clock.Advance(25 * time.Hour)

	fresh, created, err := s.registry.Establish(s.ctx, old.Token)
	s.Require().NoError(err)
	s.True(created)
	s.NotEqual(old.Token, fresh.Token)
}

func (s *RegistrySuite) TestDestroy() {
	session, _, _ := s.registry.Establish(s.ctx, "")
	s.Require().NoError(s.registry.Destroy(s.ctx, session.Token))

	_, err := s.registry.Lookup(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestSweepRemovesOnlyExpired() {
	old, _, _ := s.registry.Establish(s.ctx, "")
	s.clock.Advance(12 * time.Hour)
	young, _, _ := s.registry.Establish(s.ctx, "")
	s.clock.Advance(13 * time.Hour)

	removed, err := s.registry.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.GetSession(s.ctx, old.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.store.GetSession(s.ctx, young.Token)
	s.NoError(err)
}

func (s *RegistrySuite) TestSweeperRunsOnTick() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	session, _, _ := s.registry.Establish(s.ctx, "")
	s.registry.StartSweeper(ctx)

	s.clock.Advance(25 * time.Hour)
	s.clock.Tick()

	s.Eventually(func() bool {
		_, err := s.store.GetSession(s.ctx, session.Token)
		return errors.Is(err, model.ErrSessionNotFound)
	}, time.Second, 10*time.Millisecond)
}

func (s *RegistrySuite) TestEstablishPropagatesKeyError() {
	s.keys.err = errors.New("entropy exhausted")

	_, _, err := s.registry.Establish(s.ctx, "")
	s.Error(err)
}
