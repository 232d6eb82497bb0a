package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/BaSui01/docflow/docintel"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.submissionsTotal)
	assert.NotNil(t, collector.pollsTotal)
	assert.NotNil(t, collector.outcomesTotal)
	assert.NotNil(t, collector.inFlight)
}

func TestNewCollector_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(nextTestNamespace(), nil)
	})
}

func TestCollector_ObserveSubmission(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObserveSubmission("https://a.example/", 202, 100*time.Millisecond)
	collector.ObserveSubmission("https://a.example", 202, 50*time.Millisecond)
	collector.ObserveSubmission("https://a.example/", 429, 10*time.Millisecond)
	collector.ObserveSubmission("https://a.example/", 0, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.submissionsTotal.WithLabelValues("https://a.example", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.submissionsTotal.WithLabelValues("https://a.example", "429")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.submissionsTotal.WithLabelValues("https://a.example", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.submissionDuration))
}

func TestCollector_ObservePollAndTransitions(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObservePoll("https://a.example", "running")
	collector.ObservePoll("https://a.example", "running")
	collector.ObservePoll("https://a.example", "succeeded")
	collector.ObserveTransition(docintel.StateSubmitting, docintel.StatePolling)
	collector.ObserveTransition(docintel.StatePolling, docintel.StateSucceeded)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.pollsTotal.WithLabelValues("https://a.example", "running")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.pollsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.stateTransitions.WithLabelValues("polling", "succeeded")))
}

func TestCollector_BatchMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObserveInFlight(1)
	collector.ObserveInFlight(1)
	collector.ObserveInFlight(-1)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.inFlight))

	collector.ObserveOutcome("ok")
	collector.ObserveOutcome("ok")
	collector.ObserveOutcome("ANALYSIS_FAILED")
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("ANALYSIS_FAILED")))

	collector.ObserveBatch(3, 2*time.Second)
	assert.Equal(t, float64(3), testutil.ToFloat64(collector.batchItems))
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{
		0:   "error",
		200: "2xx",
		202: "2xx",
		301: "3xx",
		400: "4xx",
		429: "429",
		500: "5xx",
		503: "5xx",
		100: "unknown",
	}
	for code, want := range tests {
		assert.Equal(t, want, statusCode(code), "code %d", code)
	}
}
