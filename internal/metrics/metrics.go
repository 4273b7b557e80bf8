package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vibecheck",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "provider_requests_total",
		Help:      "Total calls to the movie metadata provider by endpoint and result status.",
	}, []string{"endpoint", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vibecheck",
		Name:      "provider_request_duration_seconds",
		Help:      "Movie metadata provider call duration in seconds, excluding throttle wait.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	ThrottleWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vibecheck",
		Name:      "provider_throttle_wait_seconds",
		Help:      "Time spent queued behind the shared provider throttle.",
		Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	ProviderBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vibecheck",
		Name:      "provider_breaker_state",
		Help:      "Provider circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"provider"})

	StrategyTiersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "strategy_tiers_total",
		Help:      "Query strategy tiers attempted, by branch and tier.",
	}, []string{"branch", "tier"})

	ProviderCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "provider_cache_hits_total",
		Help:      "Provider lookups served from the Redis lookup cache.",
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "cache_hits_total",
		Help:      "Total number of recommendation cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Name:      "cache_misses_total",
		Help:      "Total number of recommendation cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ThrottleWaitSeconds,
		ProviderBreakerState,
		StrategyTiersTotal,
		ProviderCacheHitsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
