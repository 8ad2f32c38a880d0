package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	RiskEstimates       int64
	BenefitEstimates    int64
	AdvisoryCount       int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	// Detailed samples for percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Rate limit metrics
	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, 1000),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementRiskEstimate increments the risk estimate count
func (m *Metrics) IncrementRiskEstimate() {
	atomic.AddInt64(&m.RiskEstimates, 1)
}

// IncrementBenefitEstimate increments the cessation benefit estimate count
func (m *Metrics) IncrementBenefitEstimate() {
	atomic.AddInt64(&m.BenefitEstimates, 1)
}

// IncrementAdvisory counts estimates served for out-of-population subjects
func (m *Metrics) IncrementAdvisory() {
	atomic.AddInt64(&m.AdvisoryCount, 1)
}

// IncrementRateLimitIPBlock increments the blocked-request count
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError increments the Redis failure count
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback counts checks served by the in-memory limiter
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	// Keep the last 1000 samples for percentiles
	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64)
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	riskEstimates := atomic.LoadInt64(&m.RiskEstimates)
	benefitEstimates := atomic.LoadInt64(&m.BenefitEstimates)
	advisories := atomic.LoadInt64(&m.AdvisoryCount)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheHits+cacheMisses) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"request_count":            requests,
		"error_count":              errors,
		"error_rate_percent":       errorRate,
		"cache_hits":               cacheHits,
		"cache_misses":             cacheMisses,
		"cache_hit_rate_percent":   cacheHitRate,
		"risk_estimates":           riskEstimates,
		"benefit_estimates":        benefitEstimates,
		"out_of_population_count":  advisories,
		"avg_response_time_ms":     float64(avgResponseTime) / 1e6,
		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50).Nanoseconds()) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95).Nanoseconds()) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99).Nanoseconds()) / 1e6,
		"status_codes":             m.GetStatusCodeDistribution(),
		"rate_limit_ip_blocks":     atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_redis_errors":  atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallback_hits": atomic.LoadInt64(&m.RateLimitFallbackCount),
	}
}
