package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is an in-process fixed window limiter for single-instance
// deployments. The whole read-increment-decide step runs under one mutex.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*entry
	limit      int
	window     time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

type MemoryOption func(*MemoryStore)

func WithLimit(n int) MemoryOption {
	return func(s *MemoryStore) { s.limit = n }
}

func WithWindow(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.window = d }
}

func WithSweepEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.sweepEvery = d }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]*entry),
		limit:      DefaultLimit,
		window:     DefaultWindow,
		sweepEvery: DefaultSweepEvery,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// Admit implements Store. An expired entry is treated as absent whether or not
// the sweep has removed it yet. Denied calls still count but never move the
// window deadline.
func (s *MemoryStore) Admit(_ context.Context, key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		s.entries[key] = &entry{count: 1, resetAt: now.Add(s.window)}
		return true
	}

	prev := e.count
	e.count++
	return prev < s.limit
}

// ResetAt returns the window deadline for key, or the zero time when no active
// window exists.
func (s *MemoryStore) ResetAt(key string) time.Time {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && now.Before(e.resetAt) {
		return e.resetAt
	}
	return time.Time{}
}

// Len reports how many entries are physically held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes entries whose window has already passed and returns how many
// were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps on a ticker until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					slog.Debug("rate limit sweep", "removed", n)
				}
			}
		}
	}()
}
