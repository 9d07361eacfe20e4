package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/siteship/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Schedule string `help:"Cron expression overriding daemon.schedule"`
	Watch    bool   `help:"Watch the output directory for changes"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if d.Schedule != "" {
		cfg.Daemon.Schedule = d.Schedule
	}
	if d.Watch {
		cfg.Daemon.Watch = true
	}

	dep, err := newDeployment(cfg, g.Logger)
	if err != nil {
		return err
	}
	defer dep.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g.Logger.Info("Starting daemon mode", "output_dir", cfg.OutputDir)
	if err := daemon.New(cfg, dep.runner, dep.recorder, g.Logger).Run(ctx); err != nil {
		return err
	}
	g.Logger.Info("Daemon stopped successfully")
	return nil
}
