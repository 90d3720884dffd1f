package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pyndex/internal/core/config"
	"pyndex/internal/shared/observability"
)

var (
	configPath    = flag.String("config", "./pyndex.toml", "Path to config file")
	outputDir     = flag.String("out", "", "Output directory (overrides config)")
	format        = flag.String("format", "", "Output format: json, json.gz, msgpack (overrides config)")
	minify        = flag.Bool("minify", false, "Minify JSON output")
	compressNames = flag.Bool("compress-names", false, "Store the names table gzip+base64 compressed")
	watchMode     = flag.Bool("watch", false, "Re-index when source files change")
	historyOn     = flag.Bool("history", false, "Record run statistics in the history database")
	recent        = flag.Int("recent", 0, "Print the N most recent runs from history and exit")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pyndex v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}
	if cfg.Project == "" {
		cfg.Project = projectName(root)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(ctx, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *recent > 0 {
		if err := app.PrintRecentRuns(ctx, *recent); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := app.RunOnce(ctx, root); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if *watchMode {
		if err := app.RunWatch(ctx, root); err != nil && ctx.Err() == nil {
			slog.Error("watch mode failed", "error", err)
			os.Exit(1)
		}
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *minify {
		cfg.Output.Minify = true
	}
	if *compressNames {
		cfg.Output.CompressNames = true
	}
	if *historyOn {
		cfg.History.Enabled = true
	}
}
