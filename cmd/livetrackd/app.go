package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/WasatchCloudBase/livetrack/internal/cache"
	"github.com/WasatchCloudBase/livetrack/internal/cluster"
	"github.com/WasatchCloudBase/livetrack/internal/config"
	"github.com/WasatchCloudBase/livetrack/internal/feed"
	"github.com/WasatchCloudBase/livetrack/internal/influx"
	"github.com/WasatchCloudBase/livetrack/internal/logging"
	"github.com/WasatchCloudBase/livetrack/internal/orchestrator"
	intOtel "github.com/WasatchCloudBase/livetrack/internal/otel"
	"github.com/WasatchCloudBase/livetrack/internal/parser"
	"github.com/WasatchCloudBase/livetrack/internal/roster"
	"github.com/WasatchCloudBase/livetrack/internal/stations"
	"github.com/WasatchCloudBase/livetrack/internal/storage"
)

// application holds the wired components shared by the serve and
// fetch commands.
type application struct {
	log          *slog.Logger
	logManager   *logging.SlogManager
	otelProvider *intOtel.Provider

	roster       *roster.Client
	stations     *stations.Registry
	orchestrator *orchestrator.Orchestrator
	reducer      *cluster.Reducer
	archive      storage.Backend
	influx       *influx.Manager
}

// newApplication builds the full component graph from configuration.
func newApplication() (*application, error) {
	app := &application{
		logManager: logging.NewSlogManager(),
	}

	startTime := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}

	// OTel provider first so the slog bridge can attach to it.
	otelCfg := config.GetOTelConfig()
	providerCfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if otelCfg.Enabled {
		otelLogFile, err := os.Create(filepath.Join(logsDir, "livetrackd.otel.log"))
		if err != nil {
			return nil, fmt.Errorf("failed to create otel log file: %w", err)
		}
		providerCfg.LogWriter = otelLogFile
	}
	provider, err := intOtel.New(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize otel: %w", err)
	}
	app.otelProvider = provider

	logFile, err := os.Create(logging.LogFilePath(logsDir, "livetrackd", startTime))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	gelfAddress := ""
	if gl := config.GetGraylogConfig(); gl.Enabled {
		gelfAddress = gl.Address
	}
	app.logManager.Setup(logFile, config.GetString("logLevel"), gelfAddress, provider.LoggerProvider())
	app.log = app.logManager.Logger()

	fetchCfg := config.GetFetchConfig()
	cacheCfg := config.GetCacheConfig()

	trackCache := cache.New(cacheCfg.RefreshInterval)
	feedClient := feed.NewClient(fetchCfg.Timeout)
	trackParser := parser.New(app.log, nil)

	app.orchestrator = orchestrator.New(
		feedClient, trackParser, trackCache,
		fetchCfg.Concurrency, app.log, nil,
	)
	if err := app.orchestrator.RegisterMetrics(provider.Meter("livetrackd")); err != nil {
		app.log.Warn("Failed to register metrics", "error", err)
	}

	app.roster = roster.NewClient(config.GetString("roster.url"), fetchCfg.Timeout, app.log)
	app.stations = stations.NewRegistry(
		config.GetString("stations.url"),
		config.GetString("stations.secondaryUrl"),
		fetchCfg.Timeout, app.log,
	)
	app.reducer = cluster.NewReducer(config.GetFloat("cluster.factor"))

	app.archive, err = storage.NewBackend(config.GetStorageConfig())
	if err != nil {
		return nil, err
	}
	if err := app.archive.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	if config.GetInfluxConfig().Enabled {
		app.influx = influx.NewManager(app.log, filepath.Join(logsDir, "influx_backup.gz"))
		if err := app.influx.Connect(); err != nil {
			app.log.Warn("InfluxDB unavailable", "error", err)
			app.influx = nil
		}
	}

	return app, nil
}

// close flushes telemetry and releases backends.
func (app *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.influx != nil {
		app.influx.Close()
	}
	if app.archive != nil {
		if err := app.archive.Close(); err != nil {
			app.log.Error("Failed to close archive", "error", err)
		}
	}
	if err := app.logManager.Flush(ctx); err != nil {
		app.log.Error("Failed to flush logs", "error", err)
	}
	if err := app.otelProvider.Shutdown(ctx); err != nil {
		app.log.Error("Failed to shut down otel", "error", err)
	}
}
