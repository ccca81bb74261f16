package server

import (
	"time"

	"github.com/eternalApril/hanabi/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace    = "hanabi"
	unknownCommandLabel = "unknown"
)

// Metrics holds the prometheus collectors of the server. A nil *Metrics records nothing
type Metrics struct {
	commands       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	connections    prometheus.Gauge
	protocolErrors prometheus.Counter
}

// NewMetrics registers the server collectors on reg. The key count is read from s on every scrape
func NewMetrics(reg prometheus.Registerer, s storage.Storage) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "keys",
		Help:      "Number of keys in the keyspace.",
	}, func() float64 {
		return float64(s.Len())
	})

	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands executed, by command name and reply status.",
		}, []string{"command", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent executing a command.",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 4, 10),
		}, []string{"command"}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "protocol_errors_total",
			Help:      "Requests that could not be decoded.",
		}),
	}
}

func (m *Metrics) observe(cmd string, failed bool, took time.Duration) {
	if m == nil {
		return
	}

	status := "ok"
	if failed {
		status = "error"
	}
	m.commands.WithLabelValues(cmd, status).Inc()

	if cmd != unknownCommandLabel {
		m.duration.WithLabelValues(cmd).Observe(took.Seconds())
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) protocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}
