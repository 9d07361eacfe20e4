package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	d, err := newDeployment(cfg, g.Logger)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g.println("Checking static export in", cfg.OutputDir)
	report, err := d.runner.Check(ctx)
	d.writeTextfile(cfg.Metrics.Textfile)
	if report != nil {
		printChecks(g, report)
	}
	if err != nil {
		return err
	}
	g.printf("All %d checks passed\n", len(report.Checks))
	return nil
}
