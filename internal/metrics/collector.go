// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/docflow/batch"
	"github.com/BaSui01/docflow/docintel"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 batch.Observer
type Collector struct {
	// 提交指标
	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec

	// 轮询指标
	pollsTotal *prometheus.CounterVec

	// 状态与结果
	stateTransitions *prometheus.CounterVec
	outcomesTotal    *prometheus.CounterVec
	inFlight         prometheus.Gauge

	// 批次指标
	batchItems    prometheus.Counter
	batchDuration prometheus.Histogram

	logger *zap.Logger
}

var _ batch.Observer = (*Collector)(nil)

// NewCollector 创建指标收集器，指标注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 提交指标
	c.submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of analyze submissions",
		},
		[]string{"endpoint", "status"},
	)

	c.submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Analyze submission round-trip in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// 轮询指标
	c.pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total number of operation status polls",
		},
		[]string{"endpoint", "status"},
	)

	// 状态与结果
	c.stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of document state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	c.outcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Total number of document outcomes by code",
		},
		[]string{"code"},
	)

	c.inFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_operations",
			Help:      "Number of documents holding an admission permit",
		},
	)

	// 批次指标
	c.batchItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Total number of documents submitted in batches",
		},
	)

	c.batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch wall-clock duration in seconds",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 📄 LRO 事件
// =============================================================================

// ObserveSubmission 记录一次提交
func (c *Collector) ObserveSubmission(endpoint string, status int, elapsed time.Duration) {
	ep := endpointLabel(endpoint)
	c.submissionsTotal.WithLabelValues(ep, statusCode(status)).Inc()
	c.submissionDuration.WithLabelValues(ep).Observe(elapsed.Seconds())
}

// ObservePoll 记录一次轮询
func (c *Collector) ObservePoll(endpoint, status string) {
	c.pollsTotal.WithLabelValues(endpointLabel(endpoint), status).Inc()
}

// ObserveTransition 记录状态迁移
func (c *Collector) ObserveTransition(from, to docintel.State) {
	c.stateTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// =============================================================================
// 📦 批次事件
// =============================================================================

// ObserveInFlight 调整在途数
func (c *Collector) ObserveInFlight(delta int) {
	c.inFlight.Add(float64(delta))
}

// ObserveOutcome 记录单个文档结果
func (c *Collector) ObserveOutcome(code string) {
	c.outcomesTotal.WithLabelValues(code).Inc()
}

// ObserveBatch 记录批次规模与耗时
func (c *Collector) ObserveBatch(items int, elapsed time.Duration) {
	c.batchItems.Add(float64(items))
	c.batchDuration.Observe(elapsed.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串，0 表示传输失败
func statusCode(code int) string {
	switch {
	case code == 0:
		return "error"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code == 429:
		return "429"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func endpointLabel(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/")
}
