// Package metrics Prometheus 指标定义
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moovie_http_request_duration_seconds",
			Help:    "HTTP 请求耗时",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// 推荐
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_recommendation_requests_total",
			Help: "推荐请求数，source 为 personalized 或 popular",
		},
		[]string{"source"},
	)

	RecommendationGenreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moovie_recommendation_genre_failures_total",
			Help: "按类型拉取候选失败次数",
		},
	)

	// TMDB
	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_tmdb_requests_total",
			Help: "TMDB API 请求数",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok / error / rejected / cache_hit
	)

	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moovie_tmdb_request_duration_seconds",
			Help:    "TMDB API 请求耗时",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moovie_circuit_breaker_state",
			Help: "熔断器状态 (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// 导入
	ImportedMovies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_tmdb_imports_total",
			Help: "TMDB 导入结果数",
		},
		[]string{"result"}, // imported / skipped / failed
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// RecordTMDBRequest 记录一次 TMDB 请求
func RecordTMDBRequest(endpoint, outcome string, d time.Duration) {
	TMDBRequests.WithLabelValues(endpoint, outcome).Inc()
	if d > 0 {
		TMDBRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}
