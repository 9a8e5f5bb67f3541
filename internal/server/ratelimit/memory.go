package ratelimit

import (
	"context"
	"sync"
	"time"

	"akeno/internal/types"
)

// window is one user's fixed-window counter
type window struct {
	count int
	start time.Time
}

// MemoryLimiter is the in-process fixed-window limiter. Check-then-record
// is atomic per user under a single mutex, so two concurrent commands
// cannot both claim the last slot.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window

	windowSize  time.Duration
	maxCommands int
}

// _ implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a new in-memory limiter
func NewMemoryLimiter(windowSize time.Duration, maxCommands int) *MemoryLimiter {
	return &MemoryLimiter{
		windows:     make(map[string]*window),
		windowSize:  windowSize,
		maxCommands: maxCommands,
	}
}

// Check reports the current budget without consuming a slot
func (l *MemoryLimiter) Check(_ context.Context, userID string) (types.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[userID]
	if !ok || now.Sub(w.start) >= l.windowSize {
		return types.RateLimitResult{
			Allowed:   true,
			Remaining: l.maxCommands,
			ResetTime: now.Add(l.windowSize),
		}, nil
	}

	return types.RateLimitResult{
		Allowed:   w.count < l.maxCommands,
		Remaining: remaining(l.maxCommands, w.count),
		Count:     w.count,
		ResetTime: w.start.Add(l.windowSize),
	}, nil
}

// Record consumes one slot, resetting the window when it has elapsed
func (l *MemoryLimiter) Record(_ context.Context, userID string) (types.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[userID]
	if !ok || now.Sub(w.start) >= l.windowSize {
		w = &window{start: now}
		l.windows[userID] = w
	}
	w.count++

	return types.RateLimitResult{
		Allowed:   w.count <= l.maxCommands,
		Remaining: remaining(l.maxCommands, w.count),
		Count:     w.count,
		ResetTime: w.start.Add(l.windowSize),
	}, nil
}

func remaining(max, count int) int {
	r := max - count
	if r < 0 {
		return 0
	}
	return r
}
