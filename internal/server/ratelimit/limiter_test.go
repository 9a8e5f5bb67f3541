package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFixedWindowBoundary pins the exact boundary behavior: the call
// that reaches the limit is still allowed, the next one is not
func TestFixedWindowBoundary(t *testing.T) {
	l := NewMemoryLimiter(time.Hour, 10)
	ctx := context.Background()

	for i := 1; i <= 9; i++ {
		result, err := l.Record(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "call %d", i)
	}

	tenth, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, tenth.Allowed)
	assert.Equal(t, 0, tenth.Remaining)
	assert.Equal(t, 10, tenth.Count)

	eleventh, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, eleventh.Allowed)
	assert.Equal(t, 0, eleventh.Remaining)
}

func TestWindowReset(t *testing.T) {
	l := NewMemoryLimiter(100*time.Millisecond, 2)
	ctx := context.Background()

	_, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	_, err = l.Record(ctx, "user-1")
	require.NoError(t, err)

	blocked, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	time.Sleep(120 * time.Millisecond)

	fresh, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, 1, fresh.Count)
}

// TestCheckDoesNotConsume verifies Check is read-only
func TestCheckDoesNotConsume(t *testing.T) {
	l := NewMemoryLimiter(time.Hour, 3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := l.Check(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestUsersAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(time.Hour, 1)
	ctx := context.Background()

	first, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := l.Record(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := l.Record(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

// TestConcurrentRecords verifies only maxCommands slots are granted under
// concurrent access from the same user
func TestConcurrentRecords(t *testing.T) {
	const max = 10
	l := NewMemoryLimiter(time.Hour, max)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := l.Record(ctx, "user-1")
			require.NoError(t, err)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, max, allowed)
}
