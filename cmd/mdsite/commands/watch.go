package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/watch"
)

// WatchCmd builds once and then rebuilds changed sources until interrupted.
type WatchCmd struct {
	Output   string `short:"o" help:"Output directory (overrides outputDir)"`
	Schedule string `help:"Interval between full rebuilds, e.g. 1h (overrides watch.schedule)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if w.Output != "" {
		cfg.OutputDir = w.Output
	}
	if w.Schedule != "" {
		cfg.Watch.Schedule = w.Schedule
		if err := cfg.Watch.Validate(); err != nil {
			return fmt.Errorf("--schedule: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	o, rec, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	// A failed initial build is reported; watching continues so the
	// failure can be fixed in place.
	res, err := o.Build(ctx)
	writeMetrics(cfg, rec)
	printResult(res)
	if err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := watch.New(cfg, o)
	if err != nil {
		return err
	}
	fmt.Println("Watching for changes (Ctrl+C to stop)")
	err = watcher.Run(ctx)
	writeMetrics(cfg, rec)
	return err
}
