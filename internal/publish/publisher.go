package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/fsops"
	"git.home.luguber.info/inful/siteship/internal/logfields"
	"git.home.luguber.info/inful/siteship/internal/metrics"
)

// Step names one stage of a publish run.
type Step string

const (
	StepCleanup Step = "cleanup"
	StepCreate  Step = "create"
	StepCopy    Step = "copy"
	StepInvoke  Step = "invoke"
)

// Steps lists publish steps in execution order.
var Steps = []Step{StepCleanup, StepCreate, StepCopy, StepInvoke}

// Publisher runs the publish steps against a filesystem capability and tool.
type Publisher struct {
	fs       fsops.FS
	tool     Tool
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewPublisher creates a Publisher. A nil recorder or logger falls back to no-op / default.
func NewPublisher(fs fsops.FS, tool Tool, recorder metrics.Recorder, logger *slog.Logger) *Publisher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{fs: fs, tool: tool, recorder: recorder, logger: logger}
}

// Tool returns the publish tool invoked by the final step.
func (p *Publisher) Tool() Tool { return p.tool }

// Publish stages outputRoot into stagingDir and invokes the tool on it.
// The returned error is a ClassifiedError in the publish category with a "step" context value.
func (p *Publisher) Publish(ctx context.Context, outputRoot, stagingDir string) error {
	run := map[Step]func() error{
		StepCleanup: func() error { return p.cleanup(stagingDir) },
		StepCreate:  func() error { return p.fs.CreateDirectory(stagingDir) },
		StepCopy:    func() error { return p.fs.CopyRecursive(outputRoot, stagingDir) },
		StepInvoke:  func() error { return p.tool.Publish(ctx, stagingDir) },
	}

	for _, step := range Steps {
		if err := ctx.Err(); err != nil {
			return p.fail(step, err)
		}
		start := time.Now()
		p.logger.Debug("Publish step starting", logfields.Step(string(step)), logfields.Path(stagingDir))
		err := run[step]()
		elapsed := time.Since(start)
		p.recorder.ObservePublishStep(string(step), elapsed, err == nil)
		if err != nil {
			return p.fail(step, err)
		}
		p.logger.Info("Publish step complete", logfields.Step(string(step)), logfields.Duration(elapsed))
	}
	return nil
}

func (p *Publisher) cleanup(stagingDir string) error {
	exists, err := p.fs.Exists(stagingDir)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return p.fs.RemoveRecursive(stagingDir)
}

func (p *Publisher) fail(step Step, err error) error {
	p.logger.Error("Publish step failed", logfields.Step(string(step)), logfields.Tool(p.tool.Name()), logfields.Error(err))
	return errors.PublishError(fmt.Sprintf("%s step failed", step)).
		WithCause(err).
		WithContext("step", string(step)).
		WithContext("tool", p.tool.Name()).
		Build()
}
