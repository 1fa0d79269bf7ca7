// internal/utils/metrics.go
package utils

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "poetryqa"

// MetricsCollector 问答服务的 Prometheus 指标
type MetricsCollector struct {
	queries        *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	storeFailures  *prometheus.CounterVec
	fallbackCalls  *prometheus.CounterVec
	cacheRequests  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	rateLimited    prometheus.Counter
	websocketConns prometheus.Gauge
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = newMetricsCollector(promauto.With(prometheus.DefaultRegisterer))
	})
	return globalMetrics
}

// NewMetricsCollector 在指定注册表上创建指标，测试中使用独立注册表
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	return newMetricsCollector(promauto.With(reg))
}

func newMetricsCollector(f promauto.Factory) *MetricsCollector {
	return &MetricsCollector{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queries_total",
			Help:      "Answered questions by intent and answer source.",
		}, []string{"intent", "source"}),
		queryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent answering a question.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		storeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_query_failures_total",
			Help:      "Graph queries that failed and were answered with zero rows.",
		}, []string{"backend"}),
		fallbackCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ai_fallback_total",
			Help:      "AI fallback calls by outcome.",
		}, []string{"outcome"}),
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "answer_cache_requests_total",
			Help:      "Answer cache lookups by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		websocketConns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "websocket_connections",
			Help:      "Open WebSocket query connections.",
		}),
	}
}

// RecordQuery 记录一次问答
func (m *MetricsCollector) RecordQuery(intent, source string, elapsed time.Duration) {
	if intent == "" {
		intent = "none"
	}
	if source == "" {
		source = "error"
	}
	m.queries.WithLabelValues(intent, source).Inc()
	m.queryLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordStoreFailure 记录图谱查询失败
func (m *MetricsCollector) RecordStoreFailure(backend string) {
	m.storeFailures.WithLabelValues(backend).Inc()
}

// RecordFallback 记录AI兜底结果：success / unavailable / timeout / error
func (m *MetricsCollector) RecordFallback(outcome string) {
	m.fallbackCalls.WithLabelValues(outcome).Inc()
}

// RecordCache 记录缓存命中情况
func (m *MetricsCollector) RecordCache(hit bool) {
	if hit {
		m.cacheRequests.WithLabelValues("hit").Inc()
		return
	}
	m.cacheRequests.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest 记录HTTP请求
func (m *MetricsCollector) RecordHTTPRequest(route, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// RecordRateLimited 记录被限流的请求
func (m *MetricsCollector) RecordRateLimited() {
	m.rateLimited.Inc()
}

// WebSocketOpened / WebSocketClosed 维护连接数
func (m *MetricsCollector) WebSocketOpened() { m.websocketConns.Inc() }

func (m *MetricsCollector) WebSocketClosed() { m.websocketConns.Dec() }
