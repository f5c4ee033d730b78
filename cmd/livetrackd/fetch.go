package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/WasatchCloudBase/livetrack/internal/config"
)

// FetchCmd runs one fetch batch and prints the merged points as JSON.
type FetchCmd struct {
	Days    int  `help:"Days of history to request." default:"1"`
	Archive bool `help:"Also write the points to the configured archive." default:"false"`
}

func (c *FetchCmd) Run() error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.close()

	ctx := context.Background()

	trackers, err := app.roster.Trackers(ctx)
	if err != nil {
		return err
	}

	days := c.Days
	if days < 1 {
		days = config.GetFetchConfig().DayWindow
	}

	points := app.orchestrator.FetchTracks(ctx, trackers, days)

	if c.Archive {
		if err := app.archive.SaveTrackPoints(points); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}
