package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ripple-dev/ripple/pkg/graph"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusMiddleware_RecordsRequests(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	mw := Prometheus(WithRegistry(reg))
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	m := GetMetrics()
	if m == nil {
		t.Fatal("expected GetMetrics to return collector after initialization")
	}
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("/live", "204")); got != 1 {
		t.Fatalf("http_requests_total(/live,204)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.requestDuration.WithLabelValues("/live")); got == 0 {
		t.Fatal("expected http_request_duration_seconds to have samples")
	}
}

func TestRecordPass(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()
	_ = Prometheus(WithRegistry(reg)) // initialize global metrics

	result := &graph.PassResult{
		Changed:    []string{"region"},
		Recomputed: []string{"localityChoices", "filteredRecords"},
		EffectsRun: []string{"renderFiltered"},
		Skipped:    []string{"nameWordCounts"},
		Errors:     []graph.NodeError{{Key: "badNode", Err: errors.New("boom")}},
	}
	RecordPass(result, 5*time.Millisecond)

	m := GetMetrics()
	if got := metricCounterValue(t, m.passesTotal); got != 1 {
		t.Fatalf("passes_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.nodeRecomputes); got != 2 {
		t.Fatalf("node_recomputes_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.effectsRun); got != 1 {
		t.Fatalf("effects_run_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.nodesSkipped); got != 1 {
		t.Fatalf("nodes_skipped_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.nodeErrors.WithLabelValues("badNode")); got != 1 {
		t.Fatalf("node_errors_total(badNode)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.passDuration); got != 1 {
		t.Fatalf("pass_duration_seconds samples=%v, want 1", got)
	}
}

func TestRecordSessionLifecycle(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()
	_ = Prometheus(WithRegistry(reg))

	RecordSessionCreate()
	RecordSessionCreate()
	RecordSessionDestroy()
	RecordWSMessage("in")
	RecordWSMessage("out")
	RecordWSMessage("out")

	m := GetMetrics()
	if got := metricGaugeValue(t, m.activeSessions); got != 1 {
		t.Fatalf("active_sessions=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.sessionsTotal); got != 2 {
		t.Fatalf("sessions_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.wsMessages.WithLabelValues("out")); got != 2 {
		t.Fatalf("websocket_messages_total(out)=%v, want 2", got)
	}
}

func TestRecordFunctionsBeforeInit(t *testing.T) {
	resetGlobalMetricsForTest()

	// No-ops, not panics, before Prometheus() runs.
	RecordPass(&graph.PassResult{}, time.Millisecond)
	RecordPass(nil, 0)
	RecordSessionCreate()
	RecordSessionDestroy()
	RecordWSMessage("in")
}
