// Package storage archives fetched track points so they survive
// restarts and can be replayed to the web UI.
package storage

import (
	"fmt"
	"time"

	"github.com/WasatchCloudBase/livetrack/internal/config"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Archive
	SaveTrackPoints(points []core.TrackPoint) error
	LoadTrackPoints(day time.Time) ([]core.TrackPoint, error)
	TrackerNames() ([]string, error)
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return NewGormBackend(openPostgres), nil
	case "sqlite":
		return NewGormBackend(openSqlite(cfg.SqlitePath)), nil
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
