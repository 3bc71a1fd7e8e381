// Package guard rejects payment request IDs that were already used. Every
// payment attempt must carry a fresh request ID; a reused one is refused
// before any external call so that a blind client retry cannot move funds
// twice.
package guard

import (
	"context"
	"sync"
	"time"

	dErrors "facepay/pkg/domain-errors"
)

// ErrReused is returned for a request ID seen within the TTL.
var ErrReused = dErrors.New(dErrors.CodeValidation, "request id already used; retry with a fresh request id")

// Memory remembers request IDs in process for ttl.
type Memory struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

type Option func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	m := &Memory{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reserve records requestID, failing with ErrReused if it is still live.
func (m *Memory) Reserve(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expiresAt, ok := m.seen[requestID]; ok && now.Before(expiresAt) {
		return ErrReused
	}
	m.seen[requestID] = now.Add(m.ttl)
	return nil
}

// Run evicts expired request IDs every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep removes expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, expiresAt := range m.seen {
		if !now.Before(expiresAt) {
			delete(m.seen, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked request IDs.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
