package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterDisabledNeverBlocks(t *testing.T) {
	l := newLimiter(0)

	start := time.Now()
	for i := 0; i < 10000; i++ {
		require.NoError(t, l.acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiterEnforcesRate(t *testing.T) {
	perSecond := 100
	acquisitions := 50
	l := newLimiter(perSecond)

	start := time.Now()
	for i := 0; i < acquisitions; i++ {
		require.NoError(t, l.acquire(context.Background()))
	}
	elapsed := time.Since(start)

	// 50 acquisitions at 100/s need roughly half a second; anything far
	// below that means the limiter leaked tokens.
	minimum := time.Duration(acquisitions-l.rl.Burst()) * time.Second / time.Duration(perSecond)
	assert.GreaterOrEqual(t, elapsed, minimum-50*time.Millisecond)
}

func TestLimiterAcquireHonorsCancel(t *testing.T) {
	l := newLimiter(1)
	require.NoError(t, l.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.acquire(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiterBurstScalesWithRate(t *testing.T) {
	assert.Equal(t, 1, newLimiter(1).rl.Burst())
	assert.Equal(t, 1, newLimiter(5).rl.Burst())
	assert.Equal(t, 10, newLimiter(100).rl.Burst())
	assert.Equal(t, 100, newLimiter(1000).rl.Burst())
}
