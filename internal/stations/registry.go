// Package stations loads fixed weather-station metadata from two
// upstream sources. Only station identity and coordinates are
// consumed here; the primary source wins co-location ties downstream
// via annotation priority.
package stations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// stationRow is the shared decode shape of both station sources.
type stationRow struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type stationResponse struct {
	Stations []stationRow `json:"stations"`
}

// Registry fetches station metadata and exposes it as annotations.
type Registry struct {
	primaryURL   string
	secondaryURL string
	httpClient   *http.Client
	log          *slog.Logger
}

// NewRegistry creates a registry over the two station sources. Either
// URL may be empty, in which case that source is skipped.
func NewRegistry(primaryURL, secondaryURL string, timeout time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		primaryURL:   primaryURL,
		secondaryURL: secondaryURL,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

// Annotations fetches both sources and returns station annotations,
// primary source first with preferred priority. A source failure
// degrades to that source's stations being absent.
func (r *Registry) Annotations(ctx context.Context) []core.Annotation {
	var out []core.Annotation

	if r.primaryURL != "" {
		rows, err := r.fetch(ctx, r.primaryURL)
		if err != nil {
			r.log.Warn("Primary station source failed", "error", err)
		} else {
			out = append(out, annotate(rows, core.SourcePreferred)...)
		}
	}

	if r.secondaryURL != "" {
		rows, err := r.fetch(ctx, r.secondaryURL)
		if err != nil {
			r.log.Warn("Secondary station source failed", "error", err)
		} else {
			out = append(out, annotate(rows, core.SourceSecondary)...)
		}
	}

	r.log.Info("Loaded station metadata", "count", len(out))
	return out
}

func (r *Registry) fetch(ctx context.Context, url string) ([]stationRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build station request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("station request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station request returned status %d", resp.StatusCode)
	}

	var payload stationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}
	return payload.Stations, nil
}

func annotate(rows []stationRow, priority int) []core.Annotation {
	var out []core.Annotation
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		out = append(out, core.Annotation{
			Name:      name,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Category:  core.CategoryStation,
			Priority:  priority,
		})
	}
	return out
}
