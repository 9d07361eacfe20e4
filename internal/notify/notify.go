// Package notify announces finished deployment runs to interested subscribers.
package notify

import (
	"context"
	"time"
)

// RunEvent is the JSON payload published after every run.
type RunEvent struct {
	RunID        string    `json:"run_id"`
	Trigger      string    `json:"trigger,omitempty"`
	Outcome      string    `json:"outcome"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ChecksPassed int       `json:"checks_passed"`
	ChecksFailed int       `json:"checks_failed"`
	Artifacts    int       `json:"artifacts"`
	FailedStep   string    `json:"failed_step,omitempty"`
	Error        string    `json:"error,omitempty"`
	SiteURL      string    `json:"site_url,omitempty"`
}

// Notifier delivers run events.
type Notifier interface {
	Notify(ctx context.Context, event RunEvent) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Notify(context.Context, RunEvent) error { return nil }
func (Noop) Close() error                           { return nil }

var _ Notifier = Noop{}
