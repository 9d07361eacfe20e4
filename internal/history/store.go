// Package history persists a summary of every deployment run.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// Run is the stored summary of one deployment run.
type Run struct {
	ID           string
	Trigger      string
	Outcome      string
	StartedAt    time.Time
	FinishedAt   time.Time
	ChecksPassed int
	ChecksFailed int
	Artifacts    int
	FailedStep   string
	Error        string
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Store records and retrieves run summaries.
type Store interface {
	Append(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (Run, error)
	Close() error
}

// Noop is a Store that keeps nothing.
type Noop struct{}

func (Noop) Append(context.Context, Run) error          { return nil }
func (Noop) Recent(context.Context, int) ([]Run, error) { return nil, nil }
func (Noop) Get(context.Context, string) (Run, error)   { return Run{}, ErrNotFound }
func (Noop) Close() error                               { return nil }

var _ Store = Noop{}
