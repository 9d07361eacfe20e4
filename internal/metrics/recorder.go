package metrics

import "time"

// ResultLabel enumerates check and step result categories for counters.
type ResultLabel string

const (
	ResultPassed ResultLabel = "passed"
	ResultFailed ResultLabel = "failed"
)

// ResultFor maps a boolean outcome to its label.
func ResultFor(ok bool) ResultLabel {
	if ok {
		return ResultPassed
	}
	return ResultFailed
}

// Recorder defines observability hooks for deployment runs.
type Recorder interface {
	IncCheck(kind string, passed bool)
	SetArtifactsFound(n int)
	ObservePublishStep(step string, d time.Duration, ok bool)
	IncRunOutcome(outcome string)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncCheck(string, bool)                          {}
func (NoopRecorder) SetArtifactsFound(int)                          {}
func (NoopRecorder) ObservePublishStep(string, time.Duration, bool) {}
func (NoopRecorder) IncRunOutcome(string)                           {}
func (NoopRecorder) ObserveRunDuration(time.Duration)               {}

var _ Recorder = NoopRecorder{}
