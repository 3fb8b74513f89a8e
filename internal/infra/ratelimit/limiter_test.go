//go:build unit

package ratelimit_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feasibility-backend/internal/infra/ratelimit"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestLimiterSingleTokenBucket(t *testing.T) {
	clk := clock.NewMockClock(start)
	l := ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSummary: {Capacity: 1, Refill: time.Second},
	}, clk)

	d, err := l.TryConsume("u", ratelimit.ClassSummary)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 1, d.SecondsToNextRefill)

	d, _ = l.TryConsume("u", ratelimit.ClassSummary)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1, d.SecondsToNextRefill)

	clk.Add(1100 * time.Millisecond)
	d, _ = l.TryConsume("u", ratelimit.ClassSummary)
	assert.True(t, d.Allowed)
}

func TestLimiterFixedIntervalRefill(t *testing.T) {
	clk := clock.NewMockClock(start)
	l := ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassViewCount: {Capacity: 3, Refill: 10 * time.Second},
	}, clk)

	for range 3 {
		d, _ := l.TryConsume("u", ratelimit.ClassViewCount)
		require.True(t, d.Allowed)
	}
	d, _ := l.TryConsume("u", ratelimit.ClassViewCount)
	assert.False(t, d.Allowed)

	// Partial intervals add nothing.
	clk.Add(9 * time.Second)
	d, _ = l.Peek("u", ratelimit.ClassViewCount)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 1, d.SecondsToNextRefill)

	clk.Add(12 * time.Second)
	d, _ = l.Peek("u", ratelimit.ClassViewCount)
	assert.Equal(t, 2, d.Remaining)
	assert.Equal(t, 9, d.SecondsToNextRefill)

	clk.Add(time.Hour)
	d, _ = l.Peek("u", ratelimit.ClassViewCount)
	assert.Equal(t, 3, d.Remaining)
	assert.Equal(t, 0, d.SecondsToNextRefill)
}

func TestLimiterIsolation(t *testing.T) {
	clk := clock.NewMockClock(start)
	l := ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSummary:            {Capacity: 1, Refill: time.Minute},
		ratelimit.ClassDetailedObfuscated: {Capacity: 1, Refill: time.Minute},
	}, clk)

	d, _ := l.TryConsume("alice", ratelimit.ClassSummary)
	require.True(t, d.Allowed)

	d, _ = l.TryConsume("bob", ratelimit.ClassSummary)
	assert.True(t, d.Allowed, "users do not share buckets")
	d, _ = l.TryConsume("alice", ratelimit.ClassDetailedObfuscated)
	assert.True(t, d.Allowed, "classes do not share buckets")

	_, err := l.TryConsume("alice", ratelimit.ClassViewCount)
	assert.True(t, errs.Is(err, ratelimit.ErrUnknownClass))
	_, err = l.Limit(ratelimit.ClassViewCount)
	assert.True(t, errs.Is(err, ratelimit.ErrUnknownClass))

	limit, err := l.Limit(ratelimit.ClassSummary)
	require.NoError(t, err)
	assert.Equal(t, 1, limit)
}

func TestLimiterConcurrentConsumers(t *testing.T) {
	clk := clock.NewMockClock(start)
	l := ratelimit.NewLimiter(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassSummary: {Capacity: 5, Refill: time.Hour},
	}, clk)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, _ := l.TryConsume("u", ratelimit.ClassSummary); d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(5), allowed.Load())
}
