package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WasatchCloudBase/livetrack/internal/config"
	"github.com/WasatchCloudBase/livetrack/internal/influx"
	"github.com/WasatchCloudBase/livetrack/internal/server"
)

// ServeCmd runs the fetch loop and the HTTP API until interrupted.
type ServeCmd struct {
	Listen string `help:"HTTP listen address. Overrides server.listen." default:""`
}

func (c *ServeCmd) Run() error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.close()

	listen := c.Listen
	if listen == "" {
		listen = config.GetString("server.listen")
	}

	handler := server.NewHandler(app.orchestrator, app.roster, app.stations, app.reducer, app.log)
	srv := server.New(listen, handler)

	go func() {
		app.log.Info("HTTP server listening", "address", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.Error("HTTP server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.pollLoop(ctx, app)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	app.log.Info("Shut down cleanly")
	return nil
}

// pollLoop refreshes tracks on the cache refresh interval so the
// cache is warm when the UI asks, and archives fresh points.
func (c *ServeCmd) pollLoop(ctx context.Context, app *application) {
	interval := config.GetCacheConfig().RefreshInterval
	dayWindow := config.GetFetchConfig().DayWindow

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.runCycle(ctx, app, dayWindow)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(ctx, app, dayWindow)
		}
	}
}

func (c *ServeCmd) runCycle(ctx context.Context, app *application, dayWindow int) {
	start := time.Now()

	trackers, err := app.roster.Trackers(ctx)
	if err != nil {
		app.log.Warn("Skipping fetch cycle, roster unavailable", "error", err)
		return
	}

	points := app.orchestrator.FetchTracks(ctx, trackers, dayWindow)
	app.log.Info("Fetch cycle complete",
		"trackers", len(trackers), "points", len(points), "elapsed", time.Since(start))

	if err := app.archive.SaveTrackPoints(points); err != nil {
		app.log.Error("Failed to archive track points", "error", err)
	}

	if app.influx != nil {
		stats := influx.FetchCycleStats{
			Trackers: len(trackers),
			Points:   len(points),
			Duration: time.Since(start),
		}
		if err := app.influx.WriteFetchCycle(ctx, stats); err != nil {
			app.log.Warn("Failed to publish fetch stats", "error", err)
		}
	}
}
