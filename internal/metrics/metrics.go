// Package metrics maintains the running counters derived from the event and
// anomaly stream, and exports operational metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/invisible-tech/streamwatch/internal/types"
)

// Prometheus metrics (registered once).
var (
	eventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_events_ingested_total",
			Help: "Total telemetry events ingested",
		},
		[]string{"category"},
	)
	eventsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_events_rejected_total",
			Help: "Total events rejected at the ingestion boundary",
		},
	)
	anomaliesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_anomalies_detected_total",
			Help: "Total anomalies detected",
		},
		[]string{"category", "severity"},
	)
	windowEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamwatch_window_events",
			Help: "Events currently held in the sliding window",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsIngested)
	prometheus.MustRegister(eventsRejected)
	prometheus.MustRegister(anomaliesDetected)
	prometheus.MustRegister(windowEvents)
}

// ObserveIngest records one processed event and its optional anomaly in the
// Prometheus collectors.
func ObserveIngest(ev types.Event, anomaly *types.Anomaly) {
	eventsIngested.WithLabelValues(string(ev.Category)).Inc()
	if anomaly != nil {
		anomaliesDetected.WithLabelValues(string(anomaly.Category), string(anomaly.Severity)).Inc()
	}
}

// ObserveReject records one event rejected by validation.
func ObserveReject() {
	eventsRejected.Inc()
}

// ObserveWindowSize records the current window occupancy.
func ObserveWindowSize(n int) {
	windowEvents.Set(float64(n))
}

// Aggregator accumulates the engine counter set. Not safe for concurrent
// use; the engine serializes Apply calls.
type Aggregator struct {
	snapshot types.MetricsSnapshot
}

// NewAggregator creates an Aggregator with zeroed counters.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Apply folds one ingested event and its optional anomaly into the counters
// and returns the new snapshot. Exactly one category counter increments per
// anomaly; previously returned snapshots are never mutated.
func (a *Aggregator) Apply(ev types.Event, anomaly *types.Anomaly) types.MetricsSnapshot {
	a.snapshot.TotalEvents++
	if anomaly != nil {
		a.snapshot.TotalAnomalies++
		switch anomaly.Category {
		case types.AnomalyLogin:
			a.snapshot.LoginAnomalies++
		case types.AnomalyNetwork:
			a.snapshot.NetworkAnomalies++
		case types.AnomalyDataTheft:
			a.snapshot.DataTheftAnomalies++
		}
	}
	return a.snapshot
}

// Snapshot returns the current counters without mutating them.
func (a *Aggregator) Snapshot() types.MetricsSnapshot {
	return a.snapshot
}
