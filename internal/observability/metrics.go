package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Commands            *prometheus.CounterVec
	Callbacks           *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	SaveLatency         prometheus.Histogram
	ChannelErrors       *prometheus.CounterVec
	WSMessages          *prometheus.CounterVec
	ActiveConnections   prometheus.Gauge
	StoredUsers         prometheus.Gauge
	StoredTasks         prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Text commands by command and outcome.",
		}, []string{"command", "outcome"}),
		Callbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Button callbacks by payload kind and outcome.",
		}, []string{"kind", "outcome"}),
		PersistenceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Durable store failures by operation.",
		}, []string{"op"}),
		SaveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_latency_ms",
			Help:      "Latency of full store flushes in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		ChannelErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_errors_total",
			Help:      "Outbound delivery errors by channel and operation.",
		}, []string{"channel", "op"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Web chat websocket messages by direction and type.",
		}, []string{"direction", "type"}),
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "webchat_active_connections",
			Help:      "Number of open web chat connections.",
		}),
		StoredUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_users",
			Help:      "Users present in the task store after the last flush.",
		}),
		StoredTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_tasks",
			Help:      "Tasks present in the task store after the last flush.",
		}),
	}
}

func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) ObserveCallback(kind, outcome string) {
	if m == nil {
		return
	}
	m.Callbacks.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObservePersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveSave(d time.Duration, users, tasks int) {
	if m == nil {
		return
	}
	m.SaveLatency.Observe(float64(d.Milliseconds()))
	m.StoredUsers.Set(float64(users))
	m.StoredTasks.Set(float64(tasks))
}

func (m *Metrics) ObserveChannelError(channel, op string) {
	if m == nil {
		return
	}
	m.ChannelErrors.WithLabelValues(channel, op).Inc()
}

func (m *Metrics) ObserveWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

func (m *Metrics) SetActiveConnections(n int) {
	if m == nil {
		return
	}
	m.ActiveConnections.Set(float64(n))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
