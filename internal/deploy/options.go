package deploy

import (
	"io/fs"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/siteship/internal/fsops"
	"git.home.luguber.info/inful/siteship/internal/history"
	"git.home.luguber.info/inful/siteship/internal/metrics"
	"git.home.luguber.info/inful/siteship/internal/notify"
	"git.home.luguber.info/inful/siteship/internal/publish"
)

// ReportWriter persists a finished run report, e.g. as a Markdown file.
type ReportWriter interface {
	Write(report *Report) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithFS sets the filesystem capability used by the publish steps.
func WithFS(f fsops.FS) Option {
	return func(r *Runner) { r.fs = f }
}

// WithSiteFS sets the filesystem the checks read the output root from.
func WithSiteFS(f fs.FS) Option {
	return func(r *Runner) { r.siteFS = f }
}

// WithTool overrides the publish tool selected by configuration.
func WithTool(t publish.Tool) Option {
	return func(r *Runner) { r.tool = t }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithHistory sets the run history store.
func WithHistory(s history.Store) Option {
	return func(r *Runner) {
		if s != nil {
			r.history = s
		}
	}
}

// WithNotifier sets the run notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithReportWriter sets where finished reports are written.
func WithReportWriter(w ReportWriter) Option {
	return func(r *Runner) { r.reports = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func withIDs(next func() string) Option {
	return func(r *Runner) { r.newID = next }
}
