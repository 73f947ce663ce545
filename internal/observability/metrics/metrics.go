package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for chat requests that are not a provider finish reason.
const (
	OutcomeCompleted     = "completed"
	OutcomeInvalid       = "invalid_request"
	OutcomeProviderError = "provider_error"
)

// ChatMetrics exposes counters/histograms for chat exchanges.
type ChatMetrics struct {
	requestsTotal   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	sessions        prometheus.Gauge
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persona_chat",
			Name:      "requests_total",
			Help:      "Total chat requests by persona and outcome",
		}, []string{"persona", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "persona_chat",
			Name:      "provider_latency_seconds",
			Help:      "Latency of generative provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "persona_chat",
			Name:      "sessions",
			Help:      "Sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.providerLatency, m.sessions)
	return m
}

func (m *ChatMetrics) ObserveRequest(persona, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(persona, outcome).Inc()
}

func (m *ChatMetrics) ObserveProviderLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *ChatMetrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
