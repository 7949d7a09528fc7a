// Package commands implements the mdsite command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdsite/internal/config"
	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/pipeline"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Watch   WatchCmd   `cmd:"" help:"Build the site and rebuild on changes"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recent builds from the build journal"`
	Info    InfoCmd    `cmd:"" help:"Show version and build information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration named by the global flags. A verbose
// setting in the file raises the log level when the flag was not given.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose && !root.Verbose {
		root.Verbose = true
		if err := root.AfterApply(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newOrchestrator wires the orchestrator for cfg. The Prometheus recorder is
// returned when a metrics textfile is configured.
func newOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, *metrics.PrometheusRecorder, error) {
	var opts []pipeline.Option
	var rec *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		rec = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithRecorder(rec))
	}
	o, err := pipeline.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return o, rec, nil
}

// writeMetrics exports the recorder to the configured textfile.
func writeMetrics(cfg *config.Config, rec *metrics.PrometheusRecorder) {
	if rec == nil {
		return
	}
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
	}
}

func printResult(res *pipeline.Result) {
	if res == nil {
		return
	}
	fmt.Printf("Built %d documents (%d written, %d skipped, %d failed, %d files copied) in %s\n",
		res.Documents, res.Written, res.Skipped, res.Failed, res.Assets, res.Duration.Round(time.Millisecond))
	if summary := derrors.SummarizeWarnings(res.Warnings); summary != "" {
		fmt.Println(summary)
	}
}
