package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/chessrooms/internal/dependencies/clock"
)

// MockClock is a manually driven Clock for tests
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []chan time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Ticker returns a channel that only fires on Tick
func (c *MockClock) Ticker(time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time)
	c.tickers = append(c.tickers, ch)
	return ch, func() {}
}

// Tick fires every ticker handed out so far, blocking until each is received
func (c *MockClock) Tick() {
	c.mu.Lock()
	now := c.current
	tickers := append([]chan time.Time(nil), c.tickers...)
	c.mu.Unlock()

	for _, ch := range tickers {
		ch <- now
	}
}
