package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/eventstore"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID string `arg:"" optional:"" name:"run-id" help:"Print the events of this run"`
	Limit int    `short:"n" default:"10" help:"Number of recent runs to list"`
	JSON  bool   `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g, cfg, h)
}

// RunHistory prints recent runs, or the events of one run.
func RunHistory(ctx context.Context, g *Global, cfg *config.Config, h *HistoryCmd) error {
	if cfg.History.Database == "" {
		return errors.ConfigError("run history is disabled (history.database is empty)").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		events, err := store.GetByRunID(ctx, h.RunID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return errors.NotFoundError("no events for run " + h.RunID).Build()
		}
		if h.JSON {
			return writeJSON(g, eventstore.Summarize(events))
		}
		tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tPAYLOAD")
		for _, e := range events {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Format("2006-01-02 15:04:05.000"), e.Type(), e.Payload())
		}
		return tw.Flush()
	}

	runs, err := eventstore.History(ctx, store, h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(g, runs)
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tRUN\tSTATUS\tSTARTED\tFILES\tFAILED MODULES")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.RunID, r.Run, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), len(r.Files), len(r.FailedModules))
	}
	return tw.Flush()
}

func writeJSON(g *Global, v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
