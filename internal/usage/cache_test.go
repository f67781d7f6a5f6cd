package usage

import (
	"testing"
	"time"
)

func TestMemoryCacheIncrementAndExpiry(t *testing.T) {
	now := time.Now()
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	if got := cache.Increment("k", time.Minute); got != 1 {
		t.Errorf("first increment = %d, want 1", got)
	}
	if got := cache.Increment("k", time.Minute); got != 2 {
		t.Errorf("second increment = %d, want 2", got)
	}

	if v, ok := cache.Get("k"); !ok || v != 2 {
		t.Errorf("Get = %d, %v; want 2, true", v, ok)
	}

	// Advance past the TTL: the key expires and the counter restarts.
	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("k"); ok {
		t.Error("expected key to expire")
	}
	if got := cache.Increment("k", time.Minute); got != 1 {
		t.Errorf("increment after expiry = %d, want 1", got)
	}
}

func TestMemoryCacheSweep(t *testing.T) {
	now := time.Now()
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	cache.Increment("a", time.Minute)
	cache.Increment("b", time.Hour)

	now = now.Add(30 * time.Minute)
	cache.Sweep()

	if _, ok := cache.Get("a"); ok {
		t.Error("expected swept key to be gone")
	}
	if v, ok := cache.Get("b"); !ok || v != 1 {
		t.Errorf("live key lost: %d, %v", v, ok)
	}
}

func TestTrackerCountsPerUser(t *testing.T) {
	tracker := NewTracker(NewMemoryCache(), time.Hour)

	tracker.RecordMessage("user-1")
	tracker.RecordMessage("user-1")
	tracker.RecordMessage("user-2")

	if got := tracker.messageCount("user-1"); got != 2 {
		t.Errorf("user-1 count = %d, want 2", got)
	}
	if got := tracker.messageCount("user-2"); got != 1 {
		t.Errorf("user-2 count = %d, want 1", got)
	}
	if got := tracker.messageCount("user-3"); got != 0 {
		t.Errorf("user-3 count = %d, want 0", got)
	}
}
