package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output   string `short:"o" help:"Output directory (overrides outputDir)"`
	FailFast bool   `name:"fail-fast" help:"Stop at the first failed document"`
	Format   bool   `help:"Normalise Markdown sources before building"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	cfg.FailFast = cfg.FailFast || b.FailFast
	cfg.Format = cfg.Format || b.Format

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Building site into", cfg.OutputDir)
	o, rec, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	res, err := o.Build(ctx)
	writeMetrics(cfg, rec)
	printResult(res)
	if err != nil {
		return err
	}
	fmt.Println("Build completed successfully")
	return nil
}
