package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to list" default:"20"`
	ID    string `arg:"" optional:"" help:"Show a single run by ID"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("history is disabled (set history.path)").
			UserAction().
			Build()
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return errors.HistoryError("failed to open history store").
			WithCause(err).
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.ID != "" {
		return h.show(ctx, g, store)
	}
	return h.list(ctx, g, store)
}

func (h *HistoryCmd) list(ctx context.Context, g *Global, store history.Store) error {
	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return errors.HistoryError("failed to list runs").WithCause(err).Build()
	}
	if len(runs) == 0 {
		g.println("No runs recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tTRIGGER\tOUTCOME\tCHECKS\tARTIFACTS")
	for _, run := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			run.ID,
			humanize.Time(run.StartedAt),
			run.Trigger,
			run.Outcome,
			run.ChecksPassed, run.ChecksPassed+run.ChecksFailed,
			humanize.Comma(int64(run.Artifacts)))
	}
	return tw.Flush()
}

func (h *HistoryCmd) show(ctx context.Context, g *Global, store history.Store) error {
	run, err := store.Get(ctx, h.ID)
	if stderrors.Is(err, history.ErrNotFound) {
		return errors.NewError(errors.CategoryNotFound, "run not found").
			WithContext("run_id", h.ID).
			Build()
	}
	if err != nil {
		return errors.HistoryError("failed to load run").WithCause(err).Build()
	}

	g.printf("Run:       %s\n", run.ID)
	g.printf("Trigger:   %s\n", run.Trigger)
	g.printf("Outcome:   %s\n", run.Outcome)
	g.printf("Started:   %s (%s)\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"), humanize.Time(run.StartedAt))
	g.printf("Duration:  %s\n", run.Duration())
	g.printf("Checks:    %d passed, %d failed\n", run.ChecksPassed, run.ChecksFailed)
	g.printf("Artifacts: %d\n", run.Artifacts)
	if run.FailedStep != "" {
		g.printf("Failed at: %s\n", run.FailedStep)
	}
	if run.Error != "" {
		g.printf("Error:     %s\n", run.Error)
	}
	return nil
}
