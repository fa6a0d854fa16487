// Package metrics 提供 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager 指标管理器，nil 时所有记录方法为空操作
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	reportUploads      *prometheus.CounterVec
	reportRows         prometheus.Histogram
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	generationsActive  prometheus.Gauge
	exports            *prometheus.CounterVec
	exportBytes        *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	rateLimited        prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager 创建指标管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "feedbacktool",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.reportUploads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "report_uploads_total",
		Help:      "Performance report uploads by result",
	}, []string{"result"})

	m.reportRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "report_employee_rows",
		Help:      "Employee rows per successfully loaded report",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
	})

	m.generations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "generations_total",
		Help:      "Feedback generations by result",
	}, []string{"result"})

	// 生成耗时通常为数秒到数十秒
	m.generationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "generation_duration_seconds",
		Help:      "Latency of feedback generation calls",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120},
	})

	m.generationsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "generations_in_flight",
		Help:      "Generation calls currently in flight",
	})

	m.exports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exports_total",
		Help:      "Document exports by format and result",
	}, []string{"format", "result"})

	m.exportBytes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "export_bytes_total",
		Help:      "Bytes of exported documents by format",
	}, []string{"format"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "sessions_active",
		Help:      "Review sessions held in memory",
	})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordUpload 记录报表上传结果，rows 仅在成功时有意义
func (m *Manager) RecordUpload(result string, rows int) {
	if !m.active() {
		return
	}
	m.reportUploads.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.reportRows.Observe(float64(rows))
	}
}

// GenerationStarted 生成开始
func (m *Manager) GenerationStarted() {
	if !m.active() {
		return
	}
	m.generationsActive.Inc()
}

// RecordGeneration 生成结束
func (m *Manager) RecordGeneration(result string, d time.Duration) {
	if !m.active() {
		return
	}
	m.generationsActive.Dec()
	m.generations.WithLabelValues(result).Inc()
	m.generationDuration.Observe(d.Seconds())
}

// RecordExport 记录导出
func (m *Manager) RecordExport(format, result string, size int64) {
	if !m.active() {
		return
	}
	m.exports.WithLabelValues(format, result).Inc()
	if size > 0 {
		m.exportBytes.WithLabelValues(format).Add(float64(size))
	}
}

// SetActiveSessions 更新会话数
func (m *Manager) SetActiveSessions(n int) {
	if !m.active() {
		return
	}
	m.activeSessions.Set(float64(n))
}

// RecordRateLimited 记录限流拒绝
func (m *Manager) RecordRateLimited() {
	if !m.active() {
		return
	}
	m.rateLimited.Inc()
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Manager) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if !m.active() {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler /metrics 处理器
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// 结果标签
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)
