package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/buildstate"
	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
)

// HistoryCmd prints the build journal kept by the rebuild cache.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.State.Enabled {
		return derrors.ConfigError("build state is disabled (set state.enabled)").Build()
	}
	store, err := buildstate.Open(cfg.State.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Builds(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	return printBuilds(builds)
}

func printBuilds(builds []buildstate.Build) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tDOCS\tWRITTEN\tSKIPPED\tWARNINGS\tDURATION")
	for _, b := range builds {
		duration := "-"
		if !b.FinishedAt.IsZero() {
			duration = b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			b.ID, b.StartedAt.Format(time.RFC3339), b.Status,
			b.Documents, b.Written, b.Skipped, b.Warnings, duration)
	}
	return tw.Flush()
}
