package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/siteship/internal/deploy"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Strict bool `help:"Exit with a non-zero status when checks fail and publishing is skipped"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if p.Strict {
		cfg.Strict = true
	}
	d, err := newDeployment(cfg, g.Logger)
	if err != nil {
		return err
	}
	defer d.Close()

	// Cancelling the context kills a running publish tool.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g.println("Checking static export in", cfg.OutputDir)
	report, err := d.runner.Run(ctx, deploy.TriggerCLI)
	d.writeTextfile(cfg.Metrics.Textfile)

	switch report.Outcome {
	case deploy.OutcomePublished:
		g.printf("Published %d artifacts from %s via %s\n", len(report.Artifacts), cfg.OutputDir, report.Tool)
		if cfg.SiteURL != "" {
			g.println("Site:", cfg.SiteURL)
		}
	case deploy.OutcomeChecksFailed:
		printChecks(g, report)
		g.println("Checks failed, publish skipped")
	case deploy.OutcomePublishFailed:
		g.printf("Publish failed at step %q\n", report.FailedStep)
	}
	return err
}
