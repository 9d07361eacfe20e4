// Package deploy orchestrates a deployment run: verify the static export,
// publish it when every check passes, then record the outcome.
package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/siteship/internal/config"
	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/fsops"
	"git.home.luguber.info/inful/siteship/internal/history"
	"git.home.luguber.info/inful/siteship/internal/logfields"
	"git.home.luguber.info/inful/siteship/internal/metrics"
	"git.home.luguber.info/inful/siteship/internal/notify"
	"git.home.luguber.info/inful/siteship/internal/publish"
	"git.home.luguber.info/inful/siteship/internal/verify"
)

// Runner executes deployment runs one at a time.
type Runner struct {
	cfg      *config.Config
	fs       fsops.FS
	siteFS   fs.FS
	tool     publish.Tool
	recorder metrics.Recorder
	history  history.Store
	notifier notify.Notifier
	reports  ReportWriter
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu sync.Mutex
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		history:  history.Noop{},
		notifier: notify.Noop{},
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = fsops.NewOS(r.logger)
	}
	if r.tool == nil {
		r.tool = publish.NewTool(cfg.Publish, r.fs, r.logger)
	}
	return r
}

// Run verifies the output root and publishes it when every check passes.
//
// A failed check is a reported outcome, not an error: the returned error is
// nil unless strict mode is enabled. Publish failures are always returned.
func (r *Runner) Run(ctx context.Context, trigger string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, logger := r.begin(trigger)
	logger.Info("Starting deployment check", logfields.Trigger(trigger), logfields.Path(r.cfg.OutputDir))

	if !r.verify(report, logger) {
		report.Outcome = OutcomeChecksFailed
		logger.Error("Cannot proceed with deployment, checks failed",
			logfields.Count(report.ChecksFailed()))
		r.finish(ctx, report, logger)
		return report, r.checksFailedError(report)
	}

	logger.Info("All checks passed, proceeding with publish", logfields.Tool(r.tool.Name()))
	publisher := publish.NewPublisher(r.fs, r.tool, r.recorder, logger)
	if err := publisher.Publish(ctx, r.cfg.OutputDir, r.cfg.StagingDir); err != nil {
		report.Outcome = OutcomePublishFailed
		report.FailedStep, _ = errors.ContextString(err, "step")
		report.Error = err.Error()
		if classified, ok := errors.AsClassified(err); ok && classified.Cause() != nil {
			report.Error = classified.Cause().Error()
		}
		r.finish(ctx, report, logger)
		return report, err
	}

	report.Outcome = OutcomePublished
	logger.Info("Successfully published", logfields.URL(r.cfg.SiteURL))
	r.finish(ctx, report, logger)
	return report, nil
}

// Check runs verification only. It never publishes and returns a validation
// error when any check fails.
func (r *Runner) Check(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report, logger := r.begin(TriggerCheck)
	if r.verify(report, logger) {
		report.Outcome = OutcomeVerified
	} else {
		report.Outcome = OutcomeChecksFailed
	}
	report.FinishedAt = r.now()
	r.recorder.IncRunOutcome(string(report.Outcome))
	r.recorder.ObserveRunDuration(report.Duration())
	r.writeReport(report, logger)

	if report.Outcome == OutcomeChecksFailed {
		return report, checksFailed(report)
	}
	return report, nil
}

func (r *Runner) begin(trigger string) (*Report, *slog.Logger) {
	report := &Report{
		RunID:      r.newID(),
		Trigger:    trigger,
		StartedAt:  r.now(),
		OutputDir:  r.cfg.OutputDir,
		StagingDir: r.cfg.StagingDir,
		Tool:       r.tool.Name(),
		SiteURL:    r.cfg.SiteURL,
	}
	return report, r.logger.With(logfields.RunID(report.RunID))
}

// verify runs both checkers and records their results. Both always run so
// every diagnostic is reported.
func (r *Runner) verify(report *Report, logger *slog.Logger) bool {
	opts := []verify.Option{verify.WithLogger(logger)}
	if r.siteFS != nil {
		opts = append(opts, verify.WithFS(r.siteFS))
	}
	checker := verify.NewChecker(r.cfg.OutputDir, opts...)

	manifest := checker.CheckManifest(verify.Manifest{
		Files:       r.cfg.Manifest.Files,
		Directories: r.cfg.Manifest.Directories,
	})
	artifacts := checker.CheckArtifacts(verify.ArtifactPattern{
		Dir:    r.cfg.Artifacts.Dir,
		Suffix: r.cfg.Artifacts.Suffix,
	})

	report.Checks = append(report.Checks, manifest.Results...)
	report.Checks = append(report.Checks, artifacts.Results...)
	report.Artifacts = artifacts.Artifacts
	report.ArtifactFailure = artifacts.Failure

	for _, c := range report.Checks {
		r.recorder.IncCheck(string(c.Kind), c.Passed)
	}
	r.recorder.SetArtifactsFound(len(artifacts.Artifacts))

	return manifest.Passed && artifacts.Passed()
}

// finish stamps the report and fans it out. Bookkeeping failures are logged
// and never change the run outcome.
func (r *Runner) finish(ctx context.Context, report *Report, logger *slog.Logger) {
	report.FinishedAt = r.now()
	r.recorder.IncRunOutcome(string(report.Outcome))
	r.recorder.ObserveRunDuration(report.Duration())

	// Bookkeeping must still happen when the run itself was cancelled.
	bg := context.WithoutCancel(ctx)
	if err := r.history.Append(bg, report.HistoryRun()); err != nil {
		logger.Warn("Failed to record run history", logfields.Error(err))
	}
	if err := r.notifier.Notify(bg, report.Event()); err != nil {
		logger.Warn("Failed to send run notification", logfields.Error(err))
	}
	r.writeReport(report, logger)

	logger.Info("Deployment check complete",
		logfields.Outcome(string(report.Outcome)),
		logfields.Duration(report.Duration()))
}

func (r *Runner) writeReport(report *Report, logger *slog.Logger) {
	if r.reports == nil {
		return
	}
	if err := r.reports.Write(report); err != nil {
		logger.Warn("Failed to write run report", logfields.Error(err))
	}
}

func (r *Runner) checksFailedError(report *Report) error {
	if !r.cfg.Strict {
		return nil
	}
	return checksFailed(report)
}

func checksFailed(report *Report) error {
	return errors.ValidationError(fmt.Sprintf("deployment checks failed (%d of %d)", report.ChecksFailed(), len(report.Checks))).
		WithContext("run_id", report.RunID).
		WithContext("artifact_failure", string(report.ArtifactFailure)).
		Build()
}
