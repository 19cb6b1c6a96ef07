package window

import (
	"fmt"
	"testing"
	"time"

	"github.com/invisible-tech/streamwatch/internal/types"
)

func networkEvent(id string, at time.Time) types.Event {
	return types.Event{
		ID:         id,
		Category:   types.CategoryNetwork,
		OccurredAt: at,
		Network:    &types.NetworkEvent{RequestsObserved: 1},
	}
}

func TestWindow_CountBound(t *testing.T) {
	now := time.Now()
	w := New(5, time.Minute)
	for i := 0; i < 20; i++ {
		w.Push(networkEvent(fmt.Sprintf("ev-%d", i), now), now)
		if w.Len() > 5 {
			t.Fatalf("after push %d: Len = %d, want <= 5", i, w.Len())
		}
	}
	if w.Len() != 5 {
		t.Errorf("Len = %d, want 5", w.Len())
	}
}

func TestWindow_AgeEviction(t *testing.T) {
	now := time.Now()
	w := New(100, time.Minute)
	w.Push(networkEvent("old", now.Add(-2*time.Minute)), now.Add(-90*time.Second))
	w.Push(networkEvent("fresh", now), now)
	if w.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (old event evicted)", w.Len())
	}
	all := func(types.Event) bool { return true }
	if got := w.CountMatching(all, time.Minute, now); got != 1 {
		t.Errorf("CountMatching = %d, want 1", got)
	}
}

func TestWindow_AgeEviction_OutOfOrderTimestamps(t *testing.T) {
	now := time.Now()
	w := New(100, time.Minute)
	// A stale-stamped event arriving after a fresh one must still be
	// evicted on the next push.
	w.Push(networkEvent("fresh", now), now)
	w.Push(networkEvent("stale", now.Add(-5*time.Minute)), now)
	w.Push(networkEvent("fresh-2", now), now)
	if w.Len() != 2 {
		t.Errorf("Len = %d, want 2", w.Len())
	}
}

func TestWindow_CountMatching_Predicate(t *testing.T) {
	now := time.Now()
	w := New(100, time.Hour)
	w.Push(networkEvent("n1", now), now)
	w.Push(types.Event{
		ID: "l1", Category: types.CategoryLogin, OccurredAt: now,
		Login: &types.LoginEvent{UserID: "alice", Geo: "Germany"},
	}, now)
	w.Push(networkEvent("n2", now), now)

	isNetwork := func(e types.Event) bool { return e.Category == types.CategoryNetwork }
	if got := w.CountMatching(isNetwork, time.Minute, now); got != 2 {
		t.Errorf("CountMatching(network) = %d, want 2", got)
	}
}

func TestWindow_CountMatching_SinceCutoff(t *testing.T) {
	now := time.Now()
	w := New(100, time.Hour)
	w.Push(networkEvent("recent", now.Add(-30*time.Second)), now)
	w.Push(networkEvent("older", now.Add(-45*time.Minute)), now)

	all := func(types.Event) bool { return true }
	if got := w.CountMatching(all, time.Minute, now); got != 1 {
		t.Errorf("CountMatching(1m) = %d, want 1", got)
	}
	if got := w.CountMatching(all, time.Hour, now); got != 2 {
		t.Errorf("CountMatching(1h) = %d, want 2", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	w := New(0, 0)
	if w.maxCount != DefaultMaxCount || w.maxAge != DefaultMaxAge {
		t.Errorf("defaults: maxCount=%d maxAge=%v", w.maxCount, w.maxAge)
	}
}
