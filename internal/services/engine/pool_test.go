package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessrooms/internal/testutil"
)

// funcFinder adapts a function to MoveFinder
type funcFinder func(ctx context.Context, req Request) (string, error)

func (f funcFinder) BestMove(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func startPool(t *testing.T, finder MoveFinder, cfg PoolConfig) *Pool {
	t.Helper()
	pool := NewPool(finder, cfg, testutil.NopLogger())
	pool.Start()
	t.Cleanup(pool.Close)
	return pool
}

func TestPoolReturnsFinderResult(t *testing.T) {
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		return "d2d4", nil
	}), PoolConfig{Workers: 2})

	move, err := pool.BestMove(context.Background(), Request{Position: startFEN, Depth: 3})
	require.NoError(t, err)
	assert.Equal(t, "d2d4", move)
}

func TestPoolPropagatesErrors(t *testing.T) {
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		return "", &ProcessError{ExitCode: 1}
	}), PoolConfig{Workers: 1})

	_, err := pool.BestMove(context.Background(), Request{})
	var procErr *ProcessError
	assert.True(t, errors.As(err, &procErr))
}

func TestPoolCancellationReachesFinder(t *testing.T) {
	var cancelled atomic.Bool
	started := make(chan struct{})
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return "", ctx.Err()
	}), PoolConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := pool.BestMove(ctx, Request{})
		errCh <- err
	}()

	<-started
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("caller still waiting after cancel")
	}
	assert.Eventually(t, cancelled.Load, time.Second, 10*time.Millisecond)
}

func TestPoolWorkerFreedAfterCancel(t *testing.T) {
	var calls atomic.Int32
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "c2c4", nil
	}), PoolConfig{Workers: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := pool.BestMove(ctx, Request{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	move, err := pool.BestMove(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "c2c4", move)
}

func TestPoolSearchTimeout(t *testing.T) {
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), PoolConfig{Workers: 1, SearchTimeout: 20 * time.Millisecond})

	_, err := pool.BestMove(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolSkipsAlreadyCancelledRequest(t *testing.T) {
	var calls atomic.Int32
	pool := startPool(t, funcFinder(func(ctx context.Context, req Request) (string, error) {
		calls.Add(1)
		return "e2e4", nil
	}), PoolConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.BestMove(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestPoolClosed(t *testing.T) {
	pool := NewPool(funcFinder(func(ctx context.Context, req Request) (string, error) {
		return "e2e4", nil
	}), PoolConfig{Workers: 1}, testutil.NopLogger())
	pool.Start()
	pool.Close()

	_, err := pool.BestMove(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
