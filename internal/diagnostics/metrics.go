package diagnostics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the coordinator publishes.
type Metrics struct {
	ChunksReceivedTotal   prometheus.Counter
	ChunksDroppedTotal    *prometheus.CounterVec
	MessagesReassembled   prometheus.Counter
	PartialMessagesActive prometheus.Gauge
	PartialsAbandoned     prometheus.Counter

	CommandsDispatchedTotal *prometheus.CounterVec
	CommandDecodeErrors     prometheus.Counter

	WorkersRegistered prometheus.Gauge
	WorkersPruned     prometheus.Counter

	ConfigRevision     prometheus.Gauge
	ConfigRefreshTotal prometheus.Counter

	EndpointRequestDuration *prometheus.HistogramVec
}

// NewMetrics constructs every collector and registers it against reg.
// Pass prometheus.DefaultRegisterer in production; tests pass a fresh
// prometheus.NewRegistry() so repeated construction within one test
// binary doesn't collide on duplicate metric names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChunksReceivedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_chunks_received_total",
			Help: "Total IPC chunk frames received.",
		}),
		ChunksDroppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otelcoordinator_chunks_dropped_total",
			Help: "Chunk frames dropped, labeled by reason.",
		}, []string{"reason"}),
		MessagesReassembled: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_messages_reassembled_total",
			Help: "Messages successfully reassembled from chunks.",
		}),
		PartialMessagesActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "otelcoordinator_partial_messages_active",
			Help: "Partial messages currently buffered awaiting more chunks.",
		}),
		PartialsAbandoned: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_partials_abandoned_total",
			Help: "Partial messages evicted for exceeding max age without completing.",
		}),
		CommandsDispatchedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otelcoordinator_commands_dispatched_total",
			Help: "Decoded commands dispatched, labeled by kind.",
		}, []string{"kind"}),
		CommandDecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_command_decode_errors_total",
			Help: "Messages that failed to decode into a known command.",
		}),
		WorkersRegistered: f.NewGauge(prometheus.GaugeOpts{
			Name: "otelcoordinator_workers_registered",
			Help: "Currently registered worker processes.",
		}),
		WorkersPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_workers_pruned_total",
			Help: "Worker registry entries removed because the process was no longer alive.",
		}),
		ConfigRevision: f.NewGauge(prometheus.GaugeOpts{
			Name: "otelcoordinator_config_revision",
			Help: "Revision number of the currently published configuration snapshot.",
		}),
		ConfigRefreshTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "otelcoordinator_config_refresh_total",
			Help: "Configuration refresh attempts that published a new snapshot.",
		}),
		EndpointRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "otelcoordinator_endpoint_request_duration_seconds",
			Help:    "Duration of outbound endpoint requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint_hash", "outcome"}),
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// CommandDispatched records that a decoded command of the given kind
// was routed by the dispatcher. It satisfies command.Metrics.
func (m *Metrics) CommandDispatched(kind string) {
	m.CommandsDispatchedTotal.WithLabelValues(kind).Inc()
}

// CommandDecodeError records a message that failed to decode into any
// known command. It satisfies command.Metrics.
func (m *Metrics) CommandDecodeError() {
	m.CommandDecodeErrors.Inc()
}
