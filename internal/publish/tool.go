package publish

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/siteship/internal/config"
	"git.home.luguber.info/inful/siteship/internal/fsops"
)

// Tool pushes a staged directory to its hosting destination.
type Tool interface {
	Name() string
	Publish(ctx context.Context, dir string) error
}

// CommandTool runs an external program such as `npx gh-pages -d {staging}`.
type CommandTool struct {
	fs   fsops.FS
	argv []string
}

// NewCommandTool creates a CommandTool. argv may contain config.StagingPlaceholder.
func NewCommandTool(fs fsops.FS, argv []string) *CommandTool {
	return &CommandTool{fs: fs, argv: argv}
}

func (c *CommandTool) Name() string {
	if len(c.argv) == 0 {
		return "command"
	}
	return c.argv[0]
}

// Publish runs the command from the current working directory.
func (c *CommandTool) Publish(ctx context.Context, dir string) error {
	argv := config.PublishConfig{Command: c.argv}.CommandFor(dir)
	return c.fs.RunExternalCommand(ctx, "", argv)
}

// NewTool builds the tool selected by cfg.
func NewTool(cfg config.PublishConfig, fs fsops.FS, logger *slog.Logger) Tool {
	if cfg.Tool == config.PublishToolGit {
		return NewGitTool(cfg.Git, logger)
	}
	return NewCommandTool(fs, cfg.Command)
}
