// Package types defines the event, anomaly, and metrics types shared by the
// ingestion API and the stream-processing engine.
package types

import (
	"fmt"
	"time"
)

// Category identifies the kind of telemetry event. The set is closed: every
// component dispatches exhaustively on these three values.
type Category string

const (
	CategoryLogin        Category = "login"
	CategoryNetwork      Category = "network"
	CategoryFileTransfer Category = "file_transfer"
)

// Transfer directions for file-transfer events.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Event is a single telemetry fact handed to the engine. Exactly one payload
// pointer is set, matching Category. Events are immutable after ingestion;
// detection derives new facts rather than editing them.
type Event struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`

	Login        *LoginEvent        `json:"login,omitempty"`
	Network      *NetworkEvent      `json:"network,omitempty"`
	FileTransfer *FileTransferEvent `json:"file_transfer,omitempty"`
}

// LoginEvent is the payload of an authentication event.
type LoginEvent struct {
	UserID   string `json:"user_id"`
	Geo      string `json:"geo"`
	SourceIP string `json:"source_ip"`
	Device   string `json:"device"`
}

// NetworkEvent is the payload of a network traffic report.
type NetworkEvent struct {
	RequestsObserved int    `json:"requests_observed"`
	SourceIP         string `json:"source_ip"`
	Target           string `json:"target"`
}

// FileTransferEvent is the payload of a file transfer report.
type FileTransferEvent struct {
	UserID      string  `json:"user_id"`
	SizeMB      float64 `json:"size_mb"`
	Direction   string  `json:"direction"`
	Destination string  `json:"destination"`
}

// ValidationError reports a malformed event rejected at the ingestion
// boundary, before any engine state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// Validate checks the producer contract: a known category with its matching
// payload present and required identity fields set. It reads no engine state.
func (e *Event) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "missing"}
	}
	if n := e.payloadCount(); n != 1 {
		return &ValidationError{Field: "payload", Reason: fmt.Sprintf("want exactly 1 payload, got %d", n)}
	}
	switch e.Category {
	case CategoryLogin:
		if e.Login == nil {
			return &ValidationError{Field: "login", Reason: "payload missing for login event"}
		}
		if e.Login.UserID == "" {
			return &ValidationError{Field: "login.user_id", Reason: "missing"}
		}
		if e.Login.Geo == "" {
			return &ValidationError{Field: "login.geo", Reason: "missing"}
		}
	case CategoryNetwork:
		if e.Network == nil {
			return &ValidationError{Field: "network", Reason: "payload missing for network event"}
		}
	case CategoryFileTransfer:
		if e.FileTransfer == nil {
			return &ValidationError{Field: "file_transfer", Reason: "payload missing for file_transfer event"}
		}
		if e.FileTransfer.UserID == "" {
			return &ValidationError{Field: "file_transfer.user_id", Reason: "missing"}
		}
	default:
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", e.Category)}
	}
	return nil
}

func (e *Event) payloadCount() int {
	n := 0
	if e.Login != nil {
		n++
	}
	if e.Network != nil {
		n++
	}
	if e.FileTransfer != nil {
		n++
	}
	return n
}
