package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrPoolClosed is returned for requests made after Close
var ErrPoolClosed = errors.New("engine pool closed")

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	Workers       int
	SearchTimeout time.Duration
}

// DefaultPoolConfig returns default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:       2,
		SearchTimeout: 30 * time.Second,
	}
}

type job struct {
	ctx    context.Context
	req    Request
	result chan jobResult
}

type jobResult struct {
	move string
	err  error
}

// Pool runs searches on a fixed set of long-lived workers fed by a queue.
// Each search is bound to its caller's context, so a caller that goes away
// stops waiting and its engine process is killed.
type Pool struct {
	finder   MoveFinder
	cfg      PoolConfig
	requests chan *job
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
}

var _ MoveFinder = (*Pool)(nil)

// NewPool creates a pool around finder; call Start before use
func NewPool(finder MoveFinder, cfg PoolConfig, logger *slog.Logger) *Pool {
	defaults := DefaultPoolConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	return &Pool{
		finder:   finder,
		cfg:      cfg,
		requests: make(chan *job),
		done:     make(chan struct{}),
		logger:   logger.With(slog.String("component", "engine-pool")),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Info("engine pool started", slog.Int("workers", p.cfg.Workers))
}

// Close stops accepting requests and waits for in-flight searches
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

// BestMove queues a search and waits for its result or for ctx to end
func (p *Pool) BestMove(ctx context.Context, req Request) (string, error) {
	j := &job{ctx: ctx, req: req, result: make(chan jobResult, 1)}

	select {
	case p.requests <- j:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", ErrPoolClosed
	}

	select {
	case r := <-j.result:
		return r.move, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.requests:
			j.result <- p.run(j)
		}
	}
}

func (p *Pool) run(j *job) jobResult {
	if err := j.ctx.Err(); err != nil {
		return jobResult{err: err}
	}

	ctx := j.ctx
	if p.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.SearchTimeout)
		defer cancel()
	}

	start := time.Now()
	move, err := p.finder.BestMove(ctx, j.req)
	p.logger.Debug("search finished",
		slog.Int("depth", j.req.Depth),
		slog.String("move", move),
		slog.Duration("duration", time.Since(start)))
	return jobResult{move: move, err: err}
}
