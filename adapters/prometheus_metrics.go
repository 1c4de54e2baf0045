package adapters

import (
	"telemetry-bridge/application"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	messagesReceived  prometheus.Counter
	messagesDropped   *prometheus.CounterVec
	readingsForwarded prometheus.Counter
	forwardDuration   prometheus.Histogram
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_bridge_messages_received_total",
			Help: "Total number of telemetry messages received from the broker",
		}),
		messagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_bridge_messages_dropped_total",
			Help: "Total number of telemetry messages dropped by reason",
		}, []string{"reason"}),
		readingsForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_bridge_readings_forwarded_total",
			Help: "Total number of readings accepted by the storage api",
		}),
		forwardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telemetry_bridge_forward_duration_seconds",
			Help:    "Duration of successful forwards to the storage api",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (p *PrometheusMetrics) MessageReceived() {
	p.messagesReceived.Inc()
}

func (p *PrometheusMetrics) MessageDropped(reason application.DropReason) {
	p.messagesDropped.WithLabelValues(string(reason)).Inc()
}

func (p *PrometheusMetrics) ReadingForwarded(took time.Duration) {
	p.readingsForwarded.Inc()
	p.forwardDuration.Observe(took.Seconds())
}

var _ application.Metrics = &PrometheusMetrics{}
