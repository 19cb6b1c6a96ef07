// Package window provides the bounded buffer of recently ingested events
// used for short-term rate computation.
package window

import (
	"time"

	"github.com/invisible-tech/streamwatch/internal/types"
)

// Default bounds for the sliding window.
const (
	DefaultMaxCount = 100
	DefaultMaxAge   = time.Minute
)

// Window is a count- and age-bounded buffer of recent events, oldest first.
// Eviction is eager on Push, so the bounds hold whenever the detector
// queries it. Not safe for concurrent use; the engine serializes access.
type Window struct {
	maxCount int
	maxAge   time.Duration
	events   []types.Event
}

// New creates a Window. Non-positive bounds fall back to the defaults.
func New(maxCount int, maxAge time.Duration) *Window {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Window{maxCount: maxCount, maxAge: maxAge}
}

// Push appends ev, then evicts from the front anything over the count bound
// or older than maxAge relative to now.
func (w *Window) Push(ev types.Event, now time.Time) {
	w.events = append(w.events, ev)
	if excess := len(w.events) - w.maxCount; excess > 0 {
		w.events = w.events[excess:]
	}
	// Producer timestamps are not guaranteed monotonic, so age eviction
	// filters the whole buffer rather than trimming the front.
	cutoff := now.Add(-w.maxAge)
	kept := w.events[:0]
	for _, e := range w.events {
		if !e.OccurredAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	w.events = kept
}

// CountMatching counts buffered events satisfying pred whose OccurredAt is
// within since of now.
func (w *Window) CountMatching(pred func(types.Event) bool, since time.Duration, now time.Time) int {
	cutoff := now.Add(-since)
	n := 0
	for _, ev := range w.events {
		if !ev.OccurredAt.Before(cutoff) && pred(ev) {
			n++
		}
	}
	return n
}

// Len returns the number of buffered events.
func (w *Window) Len() int {
	return len(w.events)
}
