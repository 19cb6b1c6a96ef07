// Package baseline tracks the per-user and global reference values the
// detector compares live observations against.
package baseline

import "sync"

// Static traffic baselines. Deliberately fixed rather than learned.
const (
	DefaultNormalRequestsPerMinute = 50
	DefaultNormalDailyTransferMB   = 20
)

// Store holds each user's known geographies plus the static rate and volume
// baselines. Entries are created lazily on first sight of a user and kept
// for the process lifetime; cardinality is bounded by the monitored
// identity population.
type Store struct {
	mu       sync.RWMutex
	userGeos map[string]map[string]struct{}

	normalRequestsPerMinute int
	normalDailyTransferMB   float64
}

// New creates a Store with the given static baselines. Non-positive values
// fall back to the defaults.
func New(normalRequestsPerMinute int, normalDailyTransferMB float64) *Store {
	if normalRequestsPerMinute <= 0 {
		normalRequestsPerMinute = DefaultNormalRequestsPerMinute
	}
	if normalDailyTransferMB <= 0 {
		normalDailyTransferMB = DefaultNormalDailyTransferMB
	}
	return &Store{
		userGeos:                make(map[string]map[string]struct{}),
		normalRequestsPerMinute: normalRequestsPerMinute,
		normalDailyTransferMB:   normalDailyTransferMB,
	}
}

// RecordLogin adds geo to userID's known-geography set. It returns true when
// this is the first occurrence of the (userID, geo) pair; that return value
// is the new-location detection signal, captured before the set is mutated
// for the current event.
func (s *Store) RecordLogin(userID, geo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	geos, ok := s.userGeos[userID]
	if !ok {
		geos = make(map[string]struct{})
		s.userGeos[userID] = geos
	}
	if _, seen := geos[geo]; seen {
		return false
	}
	geos[geo] = struct{}{}
	return true
}

// KnownGeographies returns a copy of userID's known geographies. Unseen
// users get an empty set.
func (s *Store) KnownGeographies(userID string) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.userGeos[userID]))
	for geo := range s.userGeos[userID] {
		out[geo] = struct{}{}
	}
	return out
}

// NormalRequestsPerMinute returns the static request-rate baseline.
func (s *Store) NormalRequestsPerMinute() int {
	return s.normalRequestsPerMinute
}

// NormalDailyTransferMB returns the static daily transfer-volume baseline.
func (s *Store) NormalDailyTransferMB() float64 {
	return s.normalDailyTransferMB
}
