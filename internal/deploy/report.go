package deploy

import (
	"time"

	"git.home.luguber.info/inful/siteship/internal/history"
	"git.home.luguber.info/inful/siteship/internal/notify"
	"git.home.luguber.info/inful/siteship/internal/verify"
)

// Outcome is the final state of a run.
type Outcome string

const (
	// OutcomePublished means every check passed and the publish tool succeeded.
	OutcomePublished Outcome = "published"
	// OutcomeVerified means a check-only run passed.
	OutcomeVerified Outcome = "verified"
	// OutcomeChecksFailed means verification failed and publishing was skipped.
	OutcomeChecksFailed Outcome = "checks_failed"
	// OutcomePublishFailed means a publish step failed.
	OutcomePublishFailed Outcome = "publish_failed"
)

// Trigger names what started a run.
const (
	TriggerCLI      = "cli"
	TriggerCheck    = "check"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
)

// Report describes one run.
type Report struct {
	RunID           string               `json:"run_id"`
	Trigger         string               `json:"trigger"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Outcome         Outcome              `json:"outcome"`
	OutputDir       string               `json:"output_dir"`
	StagingDir      string               `json:"staging_dir"`
	Tool            string               `json:"tool,omitempty"`
	SiteURL         string               `json:"site_url,omitempty"`
	Checks          []verify.CheckResult `json:"checks"`
	Artifacts       []string             `json:"artifacts"`
	ArtifactFailure verify.Failure       `json:"artifact_failure,omitempty"`
	FailedStep      string               `json:"failed_step,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ChecksPassed counts passing checks.
func (r *Report) ChecksPassed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// ChecksFailed counts failing checks.
func (r *Report) ChecksFailed() int { return len(r.Checks) - r.ChecksPassed() }

// FailedChecks returns the failing checks in check order.
func (r *Report) FailedChecks() []verify.CheckResult {
	var failed []verify.CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Succeeded reports whether the run ended in a passing outcome.
func (r *Report) Succeeded() bool {
	return r.Outcome == OutcomePublished || r.Outcome == OutcomeVerified
}

// HistoryRun converts the report to its stored summary.
func (r *Report) HistoryRun() history.Run {
	return history.Run{
		ID:           r.RunID,
		Trigger:      r.Trigger,
		Outcome:      string(r.Outcome),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		ChecksPassed: r.ChecksPassed(),
		ChecksFailed: r.ChecksFailed(),
		Artifacts:    len(r.Artifacts),
		FailedStep:   r.FailedStep,
		Error:        r.Error,
	}
}

// Event converts the report to a notification payload.
func (r *Report) Event() notify.RunEvent {
	return notify.RunEvent{
		RunID:        r.RunID,
		Trigger:      r.Trigger,
		Outcome:      string(r.Outcome),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		ChecksPassed: r.ChecksPassed(),
		ChecksFailed: r.ChecksFailed(),
		Artifacts:    len(r.Artifacts),
		FailedStep:   r.FailedStep,
		Error:        r.Error,
		SiteURL:      r.SiteURL,
	}
}
