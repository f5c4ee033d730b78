// Package roster loads the tracker list from the spreadsheet-backed
// reference-data service. Read-only from this core's perspective.
package roster

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

// sheetResponse mirrors the Google Sheets values endpoint payload.
// Each row is [name, inactive, shareURL].
type sheetResponse struct {
	Values [][]string `json:"values"`
}

// Client fetches the tracker roster.
type Client struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a roster client for the given values endpoint URL.
func NewClient(url string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Trackers fetches and decodes the roster, skipping inactive and
// malformed rows. The first row is treated as a header.
func (c *Client) Trackers(ctx context.Context) ([]core.Tracker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roster request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster request returned status %d", resp.StatusCode)
	}

	var payload sheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}

	var trackers []core.Tracker
	for i, row := range payload.Values {
		if i == 0 {
			continue // header row
		}
		if len(row) < 3 {
			c.log.Debug("Skipping malformed roster row", "row", i)
			continue
		}

		name := strings.TrimSpace(row[0])
		shareURL := strings.TrimSpace(row[2])
		if name == "" || shareURL == "" {
			c.log.Debug("Skipping roster row with missing fields", "row", i)
			continue
		}

		inactive := strings.EqualFold(strings.TrimSpace(row[1]), "true")
		if inactive {
			continue
		}

		trackers = append(trackers, core.Tracker{
			Name:     name,
			Inactive: inactive,
			ShareURL: shareURL,
		})
	}

	c.log.Info("Loaded tracker roster", "count", len(trackers))
	return trackers, nil
}
