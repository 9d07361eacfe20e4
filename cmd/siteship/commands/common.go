package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/siteship/internal/config"
	"git.home.luguber.info/inful/siteship/internal/deploy"
	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/history"
	"git.home.luguber.info/inful/siteship/internal/logfields"
	"git.home.luguber.info/inful/siteship/internal/metrics"
	"git.home.luguber.info/inful/siteship/internal/notify"
	"git.home.luguber.info/inful/siteship/internal/report"
)

// EnvLogLevel overrides logging.level from the configuration file.
const EnvLogLevel = "SITESHIP_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives the friendly progress lines. Defaults to stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) println(a ...any) { _, _ = fmt.Fprintln(g.out(), a...) }

func (g *Global) printf(format string, a ...any) { _, _ = fmt.Fprintf(g.out(), format, a...) }

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"siteship.yaml" env:"SITESHIP_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check      CheckCmd   `cmd:"" help:"Verify the static export without publishing"`
	Publish    PublishCmd `cmd:"" help:"Verify the static export and publish it when every check passes"`
	Init       InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History    HistoryCmd `cmd:"" help:"Show recorded deployment runs"`
	Daemon     DaemonCmd  `cmd:"" help:"Re-run deployments on a schedule or when the export changes"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logging := config.LoggingConfig{Level: os.Getenv(EnvLogLevel)}
	slog.SetDefault(logging.NewLogger(os.Stderr, c.Verbose))
	return nil
}

// loadConfig reads the configuration file and replaces the default logger
// with one honouring the file's logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Configuration loaded", logfields.Path(root.Config), slog.String("summary", cfg.Summary()))
	return cfg, nil
}

// deployment bundles a runner with the resources it owns.
type deployment struct {
	runner   *deploy.Runner
	recorder *metrics.PrometheusRecorder
	closers  []func() error
	logger   *slog.Logger
}

// newDeployment wires the runner to the history store, notifier, metrics
// recorder and report writer enabled in cfg.
func newDeployment(cfg *config.Config, logger *slog.Logger) (*deployment, error) {
	d := &deployment{logger: logger}
	opts := []deploy.Option{deploy.WithLogger(logger)}

	if cfg.Metrics.Enabled() {
		d.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, deploy.WithRecorder(d.recorder))
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, errors.HistoryError("failed to open history store").
				WithCause(err).
				WithContext("path", cfg.History.Path).
				Build()
		}
		d.closers = append(d.closers, store.Close)
		opts = append(opts, deploy.WithHistory(store))
	}

	if cfg.Notify.NATSURL != "" {
		notifier, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject, logger)
		if err != nil {
			logger.Warn("Notifications disabled, NATS unavailable", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			d.closers = append(d.closers, notifier.Close)
			opts = append(opts, deploy.WithNotifier(notifier))
		}
	}

	if cfg.Report.Path != "" {
		opts = append(opts, deploy.WithReportWriter(report.FileWriter{Path: cfg.Report.Path}))
	}

	d.runner = deploy.NewRunner(cfg, opts...)
	return d, nil
}

// writeTextfile exports the registry for node-exporter's textfile collector.
func (d *deployment) writeTextfile(path string) {
	if d.recorder == nil || path == "" {
		return
	}
	if err := d.recorder.WriteTextfile(path); err != nil {
		d.logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

func (d *deployment) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("Failed to close resource", logfields.Error(err))
		}
	}
}

// printChecks lists every failed check.
func printChecks(g *Global, r *deploy.Report) {
	for _, c := range r.FailedChecks() {
		g.printf("  ✗ %s %s (%s)\n", c.Kind, c.Name, c.Failure)
	}
	if r.ArtifactFailure == "" && len(r.Artifacts) > 0 {
		g.printf("  ✓ %d artifacts found\n", len(r.Artifacts))
	}
}
