package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/chessrooms/internal/dependencies/mocks"
	"github.com/mcoot/chessrooms/internal/services/account"
	"github.com/mcoot/chessrooms/internal/services/engine"
	"github.com/mcoot/chessrooms/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Storage    *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// finder stands in for the engine; nil answers every search with no move.
func NewTestApp(finder engine.MoveFinder) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	if finder == nil {
		finder = noMoveFinder{}
	}

	cfg := Config{
		Account: account.Config{BcryptCost: 4},
		Pool:    engine.PoolConfig{Workers: 1},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app := newWithDependencies(store, store, finder, mockClock, mockRandom, cfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Storage:    store,
	}
}

type noMoveFinder struct{}

func (noMoveFinder) BestMove(context.Context, engine.Request) (string, error) {
	return "", nil
}
