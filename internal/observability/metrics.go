package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	SessionEvents      *prometheus.CounterVec
	WSMessages         *prometheus.CounterVec
	WSDropped          *prometheus.CounterVec
	ProviderErrors     *prometheus.CounterVec
	FramesProcessed    *prometheus.CounterVec
	TurnCommitLatency  prometheus.Histogram
	FirstTextLatency   prometheus.Histogram
	SmartTurnInference prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active realtime voice sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		WSDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_total",
			Help:      "Outbound WebSocket messages dropped because the client buffer was full.",
		}, []string{"type"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		FramesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Frames handled by each processing stage.",
		}, []string{"stage"}),
		TurnCommitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_commit_latency_ms",
			Help:      "Latency from end of user speech to turn commit in milliseconds.",
			Buckets:   []float64{5, 25, 50, 100, 250, 500, 1000, 2000, 3000, 5000},
		}),
		FirstTextLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_text_latency_ms",
			Help:      "Latency from turn commit to first assistant text fragment in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 900, 1200, 2000},
		}),
		SmartTurnInference: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "smart_turn_inference_ms",
			Help:      "Turn completion inference time in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

func (m *Metrics) ObserveTurnCommitLatency(d time.Duration) {
	m.TurnCommitLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveFirstTextLatency(d time.Duration) {
	m.FirstTextLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveSmartTurnInference(ms float64) {
	if ms < 0 {
		return
	}
	m.SmartTurnInference.Observe(ms)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
