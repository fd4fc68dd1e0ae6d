package httpserver

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livepaste/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitsConfig(global, perIP int, ratePerSecond float64, burst int) *config.Config {
	return &config.Config{
		MaxWebSocketConnections: global,
		MaxConnectionsPerIP:     perIP,
		ConnectionRatePerSecond: ratePerSecond,
		ConnectionBurst:         burst,
	}
}

func TestConnectionLimits_GlobalCap(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewFakeClock(), limitsConfig(2, 10, 100, 100))

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)
	ok, _ = limits.Acquire("10.0.0.2")
	require.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.3")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	limits.Release("10.0.0.1")
	ok, _ = limits.Acquire("10.0.0.3")
	assert.True(t, ok)
	assert.Equal(t, int64(2), limits.Active())
}

func TestConnectionLimits_PerIPCapRollsBackGlobal(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewFakeClock(), limitsConfig(10, 1, 100, 100))

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)
	assert.Equal(t, int64(1), limits.Active(), "rejected per-IP acquire must not hold a global slot")

	ok, _ = limits.Acquire("10.0.0.2")
	assert.True(t, ok)
}

func TestConnectionLimits_ReleaseForgetsIP(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewFakeClock(), limitsConfig(10, 2, 100, 100))

	limits.Acquire("10.0.0.1")
	limits.Acquire("10.0.0.1")
	assert.Equal(t, 2, limits.perIP.count("10.0.0.1"))

	limits.Release("10.0.0.1")
	limits.Release("10.0.0.1")
	assert.Equal(t, 0, limits.perIP.count("10.0.0.1"))
	assert.Empty(t, limits.perIP.ips)
}

func TestConnectionLimits_RateRefillsWithClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limits := NewConnectionLimits(clock, limitsConfig(10, 10, 1, 2))

	for range 2 {
		ok, _ := limits.Acquire("10.0.0.1")
		require.True(t, ok)
		limits.Release("10.0.0.1")
	}

	ok, reason := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)
	assert.Equal(t, int64(0), limits.Active())

	clock.Advance(time.Second)
	ok, _ = limits.Acquire("10.0.0.1")
	assert.True(t, ok)
}

func TestConnectionLimits_RateIsPerIP(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewFakeClock(), limitsConfig(10, 10, 0.01, 1))

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)

	ok, _ = limits.Acquire("10.0.0.2")
	assert.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)
}

func TestConnectionLimits_IdleBucketsCleanedUp(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limits := NewConnectionLimits(clock, limitsConfig(10, 10, 10, 10))

	limits.Acquire("10.0.0.1")
	limits.Acquire("10.0.0.2")
	assert.Equal(t, 2, limits.rate.tracked())

	clock.Advance(rateLimiterIdleAfter + rateLimiterCleanupInterval)
	limits.Acquire("10.0.0.3")

	assert.Equal(t, 1, limits.rate.tracked())
}

func TestConnectionLimits_ConcurrentAcquireRespectsGlobalCap(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewRealClock(), limitsConfig(50, 1000, 1000, 1000))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limits.Acquire("10.0.0.1"); ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, acquired)
	assert.Equal(t, int64(50), limits.Active())
}
