package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveRequest("pirate", OutcomeCompleted)
	m.ObserveRequest("pirate", OutcomeCompleted)
	m.ObserveProviderLatency("gemini", 0.5)
	m.SetSessions(3)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("pirate", OutcomeCompleted)); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessions); got != 3 {
		t.Fatalf("expected 3 sessions, got %v", got)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveRequest("default", OutcomeInvalid)
	m.ObserveProviderLatency("ark", 0.1)
	m.SetSessions(1)
}
