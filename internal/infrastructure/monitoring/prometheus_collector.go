package monitoring

import (
	"signalmesh/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics on a Prometheus registry.
type PrometheusCollector struct {
	relaySentTotal    *prometheus.CounterVec
	relayDroppedTotal *prometheus.CounterVec
	relayTargets      prometheus.Histogram

	eventsEmittedTotal      *prometheus.CounterVec
	classifierFailuresTotal prometheus.Counter

	activePeers prometheus.Gauge
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		relaySentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signalmesh_relay_sent_total",
			Help: "Total number of conference signals relayed to at least one peer",
		}, []string{"kind"}),

		relayDroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signalmesh_relay_dropped_total",
			Help: "Total number of conference signals dropped before push",
		}, []string{"kind"}),

		relayTargets: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalmesh_relay_targets",
			Help:    "Number of reachable targets per relayed signal",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),

		eventsEmittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signalmesh_events_emitted_total",
			Help: "Total number of events emitted to the client stream",
		}, []string{"type"}),

		classifierFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signalmesh_classifier_failures_total",
			Help: "Total number of records the commit classifier rejected",
		}),

		activePeers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "signalmesh_active_peers",
			Help: "Active peers visible to the local agent at last presence read",
		}),
	}
}

func (p *PrometheusCollector) RecordRelaySent(kind domain.SignalKind, targets int) {
	p.relaySentTotal.WithLabelValues(string(kind)).Inc()
	p.relayTargets.Observe(float64(targets))
}

func (p *PrometheusCollector) RecordRelayDropped(kind domain.SignalKind) {
	p.relayDroppedTotal.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusCollector) RecordEventEmitted(t domain.EventType) {
	p.eventsEmittedTotal.WithLabelValues(string(t)).Inc()
}

func (p *PrometheusCollector) RecordClassifierFailure() {
	p.classifierFailuresTotal.Inc()
}

func (p *PrometheusCollector) SetActivePeers(n int) {
	p.activePeers.Set(float64(n))
}
