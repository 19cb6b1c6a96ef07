package types

import "time"

// AnomalyCategory classifies a detection. File-transfer events that trip the
// volume rule are reported as data_theft, not file_transfer.
type AnomalyCategory string

const (
	AnomalyLogin     AnomalyCategory = "login"
	AnomalyNetwork   AnomalyCategory = "network"
	AnomalyDataTheft AnomalyCategory = "data_theft"
)

// Severity of an anomaly, ordered Low < Medium < High.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the position of s in the severity order, for comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// Anomaly is a derived detection fact, produced at most once per ingested
// event and immutable afterwards. Description embeds the literal numbers
// that triggered the rule; downstream alert consumers display it verbatim.
type Anomaly struct {
	ID            string          `json:"id"`
	SourceEventID string          `json:"source_event_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Category      AnomalyCategory `json:"category"`
	Severity      Severity        `json:"severity"`
	Description   string          `json:"description"`
	Confidence    float64         `json:"confidence"`
	RiskScore     int             `json:"risk_score"`
}

// MetricsSnapshot is an immutable view of the engine counters. A new
// snapshot is published after every ingestion; counters never decrease.
type MetricsSnapshot struct {
	TotalEvents        int64 `json:"total_events"`
	TotalAnomalies     int64 `json:"total_anomalies"`
	LoginAnomalies     int64 `json:"login_anomalies"`
	NetworkAnomalies   int64 `json:"network_anomalies"`
	DataTheftAnomalies int64 `json:"data_theft_anomalies"`
}
