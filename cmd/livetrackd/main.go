package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/WasatchCloudBase/livetrack/internal/config"
)

// BuildDate can be set at build time via ldflags.
var (
	version   = "0.1.0"
	BuildDate = "unknown"
)

// CLI is the top-level command structure for livetrackd.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`

	ConfigDir string `help:"Directory containing livetrackd.cfg.json." default:"."`

	Serve ServeCmd `cmd:"" help:"Run the fetch loop and HTTP API."`
	Fetch FetchCmd `cmd:"" help:"Run one fetch batch and print the points."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("livetrackd"),
		kong.Description("Live pilot tracking daemon."),
		kong.Vars{"version": fmt.Sprintf("%s (built %s)", version, BuildDate)},
	)

	if err := config.Load(cli.ConfigDir); err != nil {
		// Defaults cover everything; a missing file is not fatal.
		fmt.Fprintf(os.Stderr, "config: %v, continuing with defaults\n", err)
	}

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
