// Package engine orchestrates event ingestion: baseline updates, windowing,
// anomaly detection, metrics, and fan-out to subscribers.
package engine

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/baseline"
	"github.com/invisible-tech/streamwatch/internal/config"
	"github.com/invisible-tech/streamwatch/internal/detection"
	"github.com/invisible-tech/streamwatch/internal/metrics"
	"github.com/invisible-tech/streamwatch/internal/stream"
	"github.com/invisible-tech/streamwatch/internal/types"
	"github.com/invisible-tech/streamwatch/internal/window"
)

// Engine is the single-writer stream processor. Producers may call Ingest
// concurrently; the pipeline for each event runs atomically under an
// internal mutex, so subscribers never observe a partially-updated state.
// The engine exclusively owns the baseline store, the window, and the
// counters; diagnostic reads go through snapshot-returning accessors.
type Engine struct {
	cfg config.EngineConfig
	log *logrus.Logger

	mu         sync.Mutex
	baselines  *baseline.Store
	window     *window.Window
	detector   *detection.Detector
	aggregator *metrics.Aggregator

	events    *stream.Hub[types.Event]
	anomalies *stream.Hub[types.Anomaly]
	snapshots *stream.Hub[types.MetricsSnapshot]

	now func() time.Time
}

// New constructs an Engine with the given config. The caller owns the value
// and should Close it when done; there is no process-global instance.
func New(cfg config.EngineConfig, log *logrus.Logger) *Engine {
	baselines := baseline.New(cfg.NormalRequestsPerMinute, cfg.NormalDailyTransferMB)
	return &Engine{
		cfg:        cfg,
		log:        log,
		baselines:  baselines,
		window:     window.New(cfg.WindowMaxCount, cfg.WindowMaxAge),
		detector:   detection.New(baselines),
		aggregator: metrics.NewAggregator(),
		events:     stream.NewHub[types.Event](cfg.SubscriberBufferSize, log),
		anomalies:  stream.NewHub[types.Anomaly](cfg.SubscriberBufferSize, log),
		snapshots:  stream.NewHub[types.MetricsSnapshot](cfg.SubscriberBufferSize, log),
		now:        time.Now,
	}
}

// Ingest validates and processes one event, returning the updated metrics
// snapshot and the anomaly, if any. Malformed events are rejected with a
// *types.ValidationError before any state changes. The same values returned
// here are broadcast to subscribers, in ingestion order.
func (e *Engine) Ingest(ev types.Event) (types.MetricsSnapshot, *types.Anomaly, error) {
	if err := ev.Validate(); err != nil {
		metrics.ObserveReject()
		e.log.WithError(err).WithField("event_id", ev.ID).Debug("Rejected malformed event")
		return types.MetricsSnapshot{}, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}

	// The first-time signal must reflect the state before this event, so it
	// is captured from the same call that records the geography.
	firstGeo := false
	if ev.Category == types.CategoryLogin {
		firstGeo = e.baselines.RecordLogin(ev.Login.UserID, ev.Login.Geo)
	}

	e.window.Push(ev, now)
	anomaly := e.detector.Detect(ev, e.window, firstGeo, now)
	snapshot := e.aggregator.Apply(ev, anomaly)

	metrics.ObserveIngest(ev, anomaly)
	metrics.ObserveWindowSize(e.window.Len())

	e.events.Publish(ev)
	if anomaly != nil {
		e.logAnomaly(anomaly)
		e.anomalies.Publish(*anomaly)
	}
	e.snapshots.Publish(snapshot)

	return snapshot, anomaly, nil
}

// SubscribeEvents registers handler for every ingested event. The returned
// unsubscribe func is idempotent; unsubscribing is terminal.
func (e *Engine) SubscribeEvents(handler func(types.Event)) (unsubscribe func()) {
	return e.events.Subscribe(handler)
}

// SubscribeAnomalies registers handler for every detected anomaly.
func (e *Engine) SubscribeAnomalies(handler func(types.Anomaly)) (unsubscribe func()) {
	return e.anomalies.Subscribe(handler)
}

// SubscribeMetrics registers handler for the snapshot published after every
// ingestion.
func (e *Engine) SubscribeMetrics(handler func(types.MetricsSnapshot)) (unsubscribe func()) {
	return e.snapshots.Subscribe(handler)
}

// Metrics returns the current counter snapshot.
func (e *Engine) Metrics() types.MetricsSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aggregator.Snapshot()
}

// KnownGeographies returns a copy of the known-geography set for userID.
func (e *Engine) KnownGeographies(userID string) map[string]struct{} {
	return e.baselines.KnownGeographies(userID)
}

// Close tears down the broadcast layer. Values queued for subscribers are
// discarded; Ingest calls after Close still process but reach no one.
func (e *Engine) Close() {
	e.events.Close()
	e.anomalies.Close()
	e.snapshots.Close()
}

func (e *Engine) logAnomaly(a *types.Anomaly) {
	e.log.WithFields(logrus.Fields{
		"anomaly_id":  a.ID,
		"event_id":    a.SourceEventID,
		"category":    a.Category,
		"severity":    a.Severity,
		"confidence":  a.Confidence,
		"risk_score":  a.RiskScore,
		"description": a.Description,
	}).Warn("ANOMALY DETECTED")
}
