// Package cache memoizes per-tracker fetch results so UI refreshes
// within the TTL avoid redundant network calls.
package cache

import (
	"sync"
	"time"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// entry holds one tracker's cached fetch result. An empty point list
// is a cached fact in its own right.
type entry struct {
	fetchedAt time.Time
	dayWindow int
	points    []core.TrackPoint
}

// TrackCache caches track points per tracker name. All methods are
// safe for concurrent use.
type TrackCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	refreshInterval time.Duration
	// buildDay marks the local calendar day the cache was last cleared
	// on. Rollover compares against it.
	buildDay int
}

// New creates a cache with the given freshness TTL.
func New(refreshInterval time.Duration) *TrackCache {
	return &TrackCache{
		entries:         make(map[string]entry),
		refreshInterval: refreshInterval,
		buildDay:        time.Now().Local().YearDay(),
	}
}

// Lookup returns the cached points for a tracker. A hit requires the
// stored day window to match the requested one and the entry to be
// younger than the refresh interval.
func (c *TrackCache) Lookup(name string, dayWindow int, now time.Time) ([]core.TrackPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	if e.dayWindow != dayWindow {
		return nil, false
	}
	if now.Sub(e.fetchedAt) >= c.refreshInterval {
		return nil, false
	}
	return e.points, true
}

// Store overwrites the entry for a tracker unconditionally.
func (c *TrackCache) Store(name string, dayWindow int, points []core.TrackPoint, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = entry{
		fetchedAt: fetchedAt,
		dayWindow: dayWindow,
		points:    points,
	}
}

// Rollover clears the whole cache if the local calendar day has
// advanced since the last clear. The swap happens under a single lock
// so concurrent readers never see a partially cleared cache. Returns
// true when a clear occurred.
func (c *TrackCache) Rollover(now time.Time) bool {
	day := now.Local().YearDay()

	c.mu.Lock()
	defer c.mu.Unlock()

	if day == c.buildDay {
		return false
	}
	c.entries = make(map[string]entry)
	c.buildDay = day
	return true
}

// Len returns the number of cached trackers.
func (c *TrackCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
