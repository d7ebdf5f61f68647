// Package ratelimit counts requests per key in fixed windows, either in
// process memory or in Redis when several instances share the limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the result of counting one request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(limit, count int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= limit, Limit: limit, Remaining: remaining, ResetAt: resetAt}
}

// Memory is a fixed window limiter kept in process memory. It is safe for
// concurrent use.
type Memory struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// NewMemory creates a limiter allowing limit requests per duration and
// starts a goroutine that drops expired windows until Close is called.
func NewMemory(limit int, duration time.Duration) *Memory {
	m := &Memory{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go m.cleanupLoop(duration * 2)
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(m.duration)}
		m.windows[key] = w
	}
	if w.count <= m.limit {
		w.count++
	}
	return decide(m.limit, w.count, w.expiresAt), nil
}

func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for key, w := range m.windows {
				if !now.Before(w.expiresAt) {
					delete(m.windows, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
