package engine

import (
	"context"
	"log/slog"
)

// DefaultMaxAttempts is how many full spawn-and-search cycles a search may take
const DefaultMaxAttempts = 4

// Runner runs one engine cycle and returns its output lines
type Runner interface {
	Run(ctx context.Context, req Request) ([]string, error)
}

// MoveFinder produces a best move; "" means none was found
type MoveFinder interface {
	BestMove(ctx context.Context, req Request) (string, error)
}

// Searcher retries engine cycles that finish without a move.
//
// Only the "ran but found no move" outcome is retried. A cycle that fails
// (spawn error, non-zero exit, cancellation) ends the search immediately with
// that error, even if attempts remain.
type Searcher struct {
	runner      Runner
	maxAttempts int
	logger      *slog.Logger
}

var _ MoveFinder = (*Searcher)(nil)

// NewSearcher creates a searcher; maxAttempts <= 0 uses DefaultMaxAttempts
func NewSearcher(runner Runner, maxAttempts int, logger *slog.Logger) *Searcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Searcher{
		runner:      runner,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "engine-searcher")),
	}
}

// BestMove runs up to maxAttempts cycles and returns the first move found
func (s *Searcher) BestMove(ctx context.Context, req Request) (string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lines, err := s.runner.Run(ctx, req)
		if err != nil {
			s.logger.Warn("engine cycle failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return "", err
		}

		if move := ExtractBestMove(lines); move != "" {
			return move, nil
		}
		s.logger.Debug("engine cycle found no move", slog.Int("attempt", attempt))
	}
	return "", nil
}
