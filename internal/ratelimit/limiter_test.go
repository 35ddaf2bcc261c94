package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtally/bidlevel/internal/monitoring"
)

func newFallbackLimiter(config Config) *RateLimiter {
	redisClient := &RedisClient{enabled: false}
	return NewRateLimiter(redisClient, config, monitoring.NewMetrics())
}

func TestNewRedisClientDisabledWithoutAddr(t *testing.T) {
	client, err := NewRedisClient(RedisConfig{})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	stats := client.GetPoolStats()
	assert.Equal(t, false, stats["enabled"])
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
}

func TestDefaultRedisConfigPoolSizing(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
}

func TestAllowIPFallbackMode(t *testing.T) {
	limiter := newFallbackLimiter(Config{
		IPLimitPerMin:       5,
		ProjectLimitPerHour: 10,
		BurstMultiplier:     1,
	})

	ctx := context.Background()

	// Burst floor is 5, so the first five requests pass
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestAllowIPIndependentAddresses(t *testing.T) {
	limiter := newFallbackLimiter(Config{
		IPLimitPerMin:       5,
		ProjectLimitPerHour: 10,
		BurstMultiplier:     1,
	})

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	blocked, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// A different address still has a fresh budget
	other, err := limiter.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestAllowProjectSeparateFromIP(t *testing.T) {
	limiter := newFallbackLimiter(Config{
		IPLimitPerMin:       5,
		ProjectLimitPerHour: 5,
		BurstMultiplier:     1,
	})

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.AllowProject(ctx, "bridge-rehab-2026")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.AllowProject(ctx, "bridge-rehab-2026")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Exhausting a project budget does not touch the IP budget
	ipResult, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ipResult.Allowed)
}

func TestBurstCapacity(t *testing.T) {
	limiter := newFallbackLimiter(Config{
		IPLimitPerMin:       5,
		ProjectLimitPerHour: 10,
		BurstMultiplier:     2,
	})

	ctx := context.Background()

	allowedCount := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.9")
		require.NoError(t, err)
		if result.Allowed {
			allowedCount++
		}
	}

	assert.GreaterOrEqual(t, allowedCount, 5, "should allow at least the limit")
	assert.LessOrEqual(t, allowedCount, 12, "should not exceed burst plus refill margin")
}

func TestLimiterStats(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())

	ctx := context.Background()
	_, _ = limiter.AllowIP(ctx, "10.0.0.1")
	_, _ = limiter.AllowProject(ctx, "proj-1")

	stats := limiter.GetStats()
	assert.False(t, stats["redis_enabled"].(bool))
	assert.Equal(t, 2, stats["fallback_limiters"].(int))

	statsConfig := stats["config"].(map[string]interface{})
	assert.Equal(t, 60, statsConfig["ip_limit_per_min"])
	assert.Equal(t, 30, statsConfig["project_limit_per_hour"])
}

func TestLimiterConcurrency(t *testing.T) {
	limiter := newFallbackLimiter(Config{
		IPLimitPerMin:       100,
		ProjectLimitPerHour: 100,
		BurstMultiplier:     2,
	})

	ctx := context.Background()

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				_, err := limiter.AllowIP(ctx, "10.0.0.1")
				assert.NoError(t, err)
			}
			done <- true
		}()
	}

	for i := 0; i < 50; i++ {
		<-done
	}
}

func TestLimiterCancelledContext(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fallback mode ignores the context
	result, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.NotNil(t, result)
}
