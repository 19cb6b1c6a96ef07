// Package detection implements the anomaly-detection rules evaluated against
// each ingested event: new or off-hours login locations, network request-rate
// spikes, and oversized data transfers.
package detection

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/invisible-tech/streamwatch/internal/baseline"
	"github.com/invisible-tech/streamwatch/internal/types"
	"github.com/invisible-tech/streamwatch/internal/window"
)

// Per-rule confidence values. Fixed by rule, not learned.
const (
	confidenceNewLocation  = 0.85
	confidenceOddHourLogin = 0.72
	confidenceTrafficSpike = 0.91
	confidenceDataTheft    = 0.88
)

// rateWindow is the lookback used to approximate requests per minute.
const rateWindow = time.Minute

// Business hours: logins at an hour before 06:00 or after 22:00 are flagged.
const (
	businessHourStart = 6
	businessHourEnd   = 22
)

// Fixed geography risk lists driving login severity.
var (
	highRiskGeos = map[string]bool{
		"Russia": true, "China": true, "North Korea": true, "Iran": true,
	}
	mediumRiskGeos = map[string]bool{
		"Nigeria": true, "Romania": true, "Ukraine": true,
	}
)

// Detector evaluates one event at a time against the baselines and the
// recent-event window. Given those two inputs it is stateless, and every
// rule is total: boundary values yield no anomaly rather than an error.
type Detector struct {
	baselines *baseline.Store
}

// New creates a Detector reading the given baselines.
func New(baselines *baseline.Store) *Detector {
	return &Detector{baselines: baselines}
}

// Detect returns at most one anomaly for ev, or nil. firstGeo reports
// whether the (user, geo) pair was unseen before this event; the caller
// captures it from the baseline update so detection reads pre-update state.
// The window must already contain ev.
func (d *Detector) Detect(ev types.Event, w *window.Window, firstGeo bool, now time.Time) *types.Anomaly {
	switch ev.Category {
	case types.CategoryLogin:
		return d.detectLogin(ev, firstGeo, now)
	case types.CategoryNetwork:
		return d.detectNetwork(ev, w, now)
	case types.CategoryFileTransfer:
		return d.detectFileTransfer(ev, now)
	}
	return nil
}

// detectLogin applies the login rules in precedence order: a first-time
// geography wins over an off-hours login, and at most one anomaly is
// emitted.
func (d *Detector) detectLogin(ev types.Event, firstGeo bool, now time.Time) *types.Anomaly {
	login := ev.Login
	hour := ev.OccurredAt.Hour()

	if firstGeo {
		sev := geoSeverity(login.Geo)
		return &types.Anomaly{
			ID:            uuid.NewString(),
			SourceEventID: ev.ID,
			Timestamp:     now,
			Category:      types.AnomalyLogin,
			Severity:      sev,
			Description: fmt.Sprintf(
				"New login location detected for user %s from %s. This is the first time this user has logged in from this location.",
				login.UserID, login.Geo),
			Confidence: confidenceNewLocation,
			RiskScore:  geoRiskScore(sev, hour),
		}
	}

	if offHours(hour) {
		return &types.Anomaly{
			ID:            uuid.NewString(),
			SourceEventID: ev.ID,
			Timestamp:     now,
			Category:      types.AnomalyLogin,
			Severity:      types.SeverityMedium,
			Description: fmt.Sprintf(
				"Unusual login time: user %s logged in at %02d:00, outside normal business hours (06:00-22:00).",
				login.UserID, hour),
			Confidence: confidenceOddHourLogin,
			RiskScore:  65,
		}
	}

	return nil
}

// detectNetwork flags a request-rate spike. The rate is the count of network
// events observed in the window over the last minute, including the current
// one; the RequestsObserved field is deliberately not summed.
func (d *Detector) detectNetwork(ev types.Event, w *window.Window, now time.Time) *types.Anomaly {
	rate := w.CountMatching(func(e types.Event) bool {
		return e.Category == types.CategoryNetwork
	}, rateWindow, now)

	normal := d.baselines.NormalRequestsPerMinute()
	if rate <= normal*10 {
		return nil
	}

	multiplier := rate / normal
	sev := types.SeverityMedium
	if multiplier > 50 {
		sev = types.SeverityHigh
	}
	risk := 50 + multiplier
	if risk > 95 {
		risk = 95
	}
	return &types.Anomaly{
		ID:            uuid.NewString(),
		SourceEventID: ev.ID,
		Timestamp:     now,
		Category:      types.AnomalyNetwork,
		Severity:      sev,
		Description: fmt.Sprintf(
			"Network traffic spike detected: %d requests/min (%dx normal baseline of %d). Possible DDoS attack or system compromise.",
			rate, multiplier, normal),
		Confidence: confidenceTrafficSpike,
		RiskScore:  risk,
	}
}

// detectFileTransfer flags transfers far above the daily volume baseline and
// reports them as data theft.
func (d *Detector) detectFileTransfer(ev types.Event, now time.Time) *types.Anomaly {
	transfer := ev.FileTransfer
	normal := d.baselines.NormalDailyTransferMB()
	threshold := normal * 100
	if transfer.SizeMB <= threshold {
		return nil
	}

	multiplier := int(transfer.SizeMB / normal)
	sev := types.SeverityMedium
	if transfer.SizeMB > threshold*5 {
		sev = types.SeverityHigh
	}
	risk := int(math.Min(99, 70+math.Log10(float64(multiplier))*10))
	return &types.Anomaly{
		ID:            uuid.NewString(),
		SourceEventID: ev.ID,
		Timestamp:     now,
		Category:      types.AnomalyDataTheft,
		Severity:      sev,
		Description: fmt.Sprintf(
			"Suspicious data transfer: %.0fMB transferred (%dx normal daily volume of %.0fMB). Potential data exfiltration attempt detected.",
			transfer.SizeMB, multiplier, normal),
		Confidence: confidenceDataTheft,
		RiskScore:  risk,
	}
}

func offHours(hour int) bool {
	return hour < businessHourStart || hour > businessHourEnd
}

func geoSeverity(geo string) types.Severity {
	switch {
	case highRiskGeos[geo]:
		return types.SeverityHigh
	case mediumRiskGeos[geo]:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// geoRiskScore combines the base score, the geographic risk bump, and an
// off-hours bump, capped at 100.
func geoRiskScore(sev types.Severity, hour int) int {
	score := 30
	switch sev {
	case types.SeverityHigh:
		score += 40
	case types.SeverityMedium:
		score += 25
	default:
		score += 10
	}
	if offHours(hour) {
		score += 25
	}
	if score > 100 {
		score = 100
	}
	return score
}
