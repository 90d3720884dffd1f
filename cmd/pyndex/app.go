package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"pyndex/internal/core/app"
	"pyndex/internal/core/config"
	"pyndex/internal/data/history"
	"pyndex/internal/watch"
)

// App owns the long-lived resources of a pyndex invocation: the config, the
// pipeline and the optional history store.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *app.Pipeline
	store    *history.Store
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	a.pipeline = app.NewPipeline(cfg, logger, a.store)
	return a, nil
}

func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// RunOnce indexes the project and prints the run summary.
func (a *App) RunOnce(ctx context.Context, root string) error {
	result, err := a.pipeline.Run(ctx, root)
	if err != nil {
		return err
	}
	a.printSummary(result)
	return nil
}

// RunWatch blocks, re-indexing the project whenever sources change, until
// the context is cancelled.
func (a *App) RunWatch(ctx context.Context, root string) error {
	w, err := watch.New(a.cfg.Watch.Debounce, a.cfg.Watch.MaxPerMin, a.cfg.Scan.ExcludeDirs,
		a.logger, func(ctx context.Context, paths []string) {
			a.logger.Info("changes detected, re-indexing", "changed", len(paths))
			if _, err := a.pipeline.Run(ctx, root); err != nil {
				a.logger.Error("re-index failed", "error", err)
			}
		})
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Watch(ctx, root)
}

// PrintRecentRuns lists the most recent history snapshots for the project.
func (a *App) PrintRecentRuns(ctx context.Context, limit int) error {
	if a.store == nil {
		return fmt.Errorf("history is not enabled (set history.enabled or pass --history)")
	}
	runs, err := a.store.RecentRuns(ctx, a.cfg.Project, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("no recorded runs for project %q\n", a.cfg.Project)
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  files=%d skipped=%d locations=%d findings=%d  %s\n",
			r.Started.Format("2006-01-02 15:04:05"), r.RunID,
			r.FilesIndexed, r.FilesSkipped, r.Locations, r.Findings, r.Duration)
	}
	return nil
}

func (a *App) printSummary(result *app.Result) {
	fmt.Printf("Indexed %d files (%d skipped) in %s\n",
		result.FilesIndexed, result.FilesSkipped, result.Duration.Round(time.Millisecond))
	fmt.Printf("  names: %d  files: %d  defaults: %d  locations: %d  findings: %d\n",
		result.Names, result.Files, result.Defaults, result.Locations, result.Findings)
	for _, path := range result.Artifacts {
		fmt.Printf("  wrote %s\n", path)
	}
}

func projectName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "project"
	}
	return filepath.Base(abs)
}
