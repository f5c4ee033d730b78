package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// MemoryBackend keeps the archive in process memory. Used for tests
// and demo runs without a database.
type MemoryBackend struct {
	mu     sync.RWMutex
	points []core.TrackPoint
}

// NewMemoryBackend creates an empty in-memory archive.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Init() error {
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

func (b *MemoryBackend) SaveTrackPoints(points []core.TrackPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(b.points, points...)
	return nil
}

func (b *MemoryBackend) LoadTrackPoints(day time.Time) ([]core.TrackPoint, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.TrackPoint
	for _, p := range b.points {
		t := p.Time.UTC()
		if !t.Before(start) && t.Before(end) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out, nil
}

func (b *MemoryBackend) TrackerNames() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, p := range b.points {
		if _, ok := seen[p.TrackerName]; ok {
			continue
		}
		seen[p.TrackerName] = struct{}{}
		names = append(names, p.TrackerName)
	}
	sort.Strings(names)
	return names, nil
}
