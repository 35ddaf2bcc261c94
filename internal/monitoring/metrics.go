package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks service counters with atomic operations.
type Metrics struct {
	RequestCount       int64
	ErrorCount         int64
	CacheHits          int64
	CacheMisses        int64
	EvaluationsRun     int64
	EvaluationErrors   int64
	RateLimitBlocks    int64
	RateLimitFallbacks int64

	mu                 sync.RWMutex
	responseTimes      []time.Duration
	statusCodes        map[int]int64
	startTime          time.Time
	maxResponseSamples int
}

func NewMetrics() *Metrics {
	return &Metrics{
		statusCodes:        make(map[int]int64),
		startTime:          time.Now(),
		maxResponseSamples: 1000,
	}
}

func (m *Metrics) RecordRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

func (m *Metrics) RecordError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

func (m *Metrics) RecordCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

func (m *Metrics) RecordCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

func (m *Metrics) RecordEvaluation() {
	atomic.AddInt64(&m.EvaluationsRun, 1)
}

func (m *Metrics) RecordEvaluationError() {
	atomic.AddInt64(&m.EvaluationErrors, 1)
}

func (m *Metrics) RecordRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

func (m *Metrics) RecordRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
}

// RecordResponseTime keeps a bounded window of recent samples.
func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > m.maxResponseSamples {
		m.responseTimes = m.responseTimes[len(m.responseTimes)-m.maxResponseSamples:]
	}
}

func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCodes[statusCode]++
}

// GetCacheHitRate returns the cache hit rate as a percentage
func (m *Metrics) GetCacheHitRate() float64 {
	hits := atomic.LoadInt64(&m.CacheHits)
	misses := atomic.LoadInt64(&m.CacheMisses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// GetAverageResponseTime returns the mean of the sampled response times
func (m *Metrics) GetAverageResponseTime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range m.responseTimes {
		total += d
	}
	return total / time.Duration(len(m.responseTimes))
}

// GetPercentileResponseTime returns the given percentile of sampled response times
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.responseTimes))
	copy(sorted, m.responseTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * percentile / 100)
	return sorted[idx]
}

func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dist := make(map[int]int64, len(m.statusCodes))
	for code, count := range m.statusCodes {
		dist[code] = count
	}
	return dist
}

// GetStats returns a snapshot of all metrics for the health endpoint
func (m *Metrics) GetStats() map[string]any {
	return map[string]any{
		"requests_total":       atomic.LoadInt64(&m.RequestCount),
		"errors_total":         atomic.LoadInt64(&m.ErrorCount),
		"evaluations_run":      atomic.LoadInt64(&m.EvaluationsRun),
		"evaluation_errors":    atomic.LoadInt64(&m.EvaluationErrors),
		"cache_hits":           atomic.LoadInt64(&m.CacheHits),
		"cache_misses":         atomic.LoadInt64(&m.CacheMisses),
		"cache_hit_rate":       m.GetCacheHitRate(),
		"rate_limit_blocks":    atomic.LoadInt64(&m.RateLimitBlocks),
		"rate_limit_fallbacks": atomic.LoadInt64(&m.RateLimitFallbacks),
		"avg_response_time_ms": m.GetAverageResponseTime().Milliseconds(),
		"p95_response_time_ms": m.GetPercentileResponseTime(95).Milliseconds(),
		"status_codes":         m.GetStatusCodeDistribution(),
		"uptime_seconds":       time.Since(m.startTime).Seconds(),
	}
}
