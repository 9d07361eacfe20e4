// Package daemon keeps a deployment runner going: it re-runs the pipeline on
// a cron schedule and whenever the output directory changes, and serves
// metrics while it does.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/siteship/internal/config"
	"git.home.luguber.info/inful/siteship/internal/deploy"
	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/logfields"
	"git.home.luguber.info/inful/siteship/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Runner is the part of deploy.Runner the daemon drives.
type Runner interface {
	Run(ctx context.Context, trigger string) (*deploy.Report, error)
}

// Daemon wires triggers to a Runner.
type Daemon struct {
	cfg      *config.Config
	runner   Runner
	recorder *metrics.PrometheusRecorder
	logger   *slog.Logger
}

// New creates a Daemon. recorder may be nil when metrics are not served.
func New(cfg *config.Config, runner Runner, recorder *metrics.PrometheusRecorder, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{cfg: cfg, runner: runner, recorder: recorder, logger: logger}
}

// Run starts every configured trigger and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Daemon.Schedule == "" && !d.cfg.Daemon.Watch {
		return ferrors.DaemonError("daemon needs daemon.schedule or daemon.watch").
			UserAction().
			Build()
	}

	if d.cfg.Daemon.Schedule != "" {
		sched, err := NewScheduler(d.logger)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "scheduler setup failed").Build()
		}
		if _, err := sched.ScheduleCron(d.cfg.Daemon.Schedule, func() { d.trigger(ctx, deploy.TriggerSchedule) }); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid daemon schedule").
				WithContext("schedule", d.cfg.Daemon.Schedule).
				Build()
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				d.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if d.cfg.Daemon.Watch {
		debouncer := NewDebouncer(d.cfg.Daemon.DebounceDuration(), func() { d.trigger(ctx, deploy.TriggerWatch) })
		defer debouncer.Stop()

		watcher, err := NewOutputWatcher(d.cfg.OutputDir, func(string) { debouncer.Trigger() }, d.logger)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "watcher setup failed").Build()
		}
		defer func() { _ = watcher.Close() }()
		if err := watcher.Start(ctx); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "watcher start failed").Build()
		}
	}

	if d.cfg.Metrics.Listen != "" && d.recorder != nil {
		srv := d.metricsServer()
		go func() {
			d.logger.Info("Serving metrics", slog.String("addr", d.cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	d.logger.Info("Daemon started",
		slog.String("schedule", d.cfg.Daemon.Schedule),
		slog.Bool("watch", d.cfg.Daemon.Watch),
		slog.Duration("debounce", d.cfg.Daemon.DebounceDuration()))

	<-ctx.Done()
	d.logger.Info("Daemon stopping")
	return nil
}

// trigger runs the pipeline once. Failures are logged; the daemon keeps going.
func (d *Daemon) trigger(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	report, err := d.runner.Run(ctx, trigger)
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryValidation) {
			d.logger.Warn("Triggered run held back by failed checks", logfields.Trigger(trigger), logfields.Error(err))
			return
		}
		d.logger.Error("Triggered run failed", logfields.Trigger(trigger), logfields.Error(err))
		return
	}
	if report != nil {
		d.logger.Info("Triggered run finished",
			logfields.Trigger(trigger),
			logfields.RunID(report.RunID),
			logfields.Outcome(string(report.Outcome)))
	}
}

func (d *Daemon) metricsServer() *http.Server {
	reg := d.recorder.Registry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.recorder.HTTPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return &http.Server{
		Addr:              d.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
