package config

import "time"

const (
	defaultOutputDir    = "out"
	defaultStagingDir   = "out_temp"
	defaultArtifactsDir = "_next/static/chunks"
	defaultSuffix       = ".js"
	defaultGitBranch    = "gh-pages"
	defaultGitMessage   = "Deploy static export"
	defaultGitAuthor    = "siteship"
	defaultGitEmail     = "siteship@localhost"
	defaultSubject      = "siteship.runs"
	defaultDebounce     = 2 * time.Second
)

// DefaultPublishCommand is the publish argv used when publish.command is omitted.
func DefaultPublishCommand() []string {
	return []string{"npx", "gh-pages", "-d", StagingPlaceholder}
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PathsDefaultApplier handles output, staging and artifact location defaults.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = defaultStagingDir
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = defaultArtifactsDir
	}
	if cfg.Artifacts.Suffix == "" {
		cfg.Artifacts.Suffix = defaultSuffix
	}
	return nil
}

// PublishDefaultApplier handles publish tool defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Publish.Tool = publishTools.canonical(string(cfg.Publish.Tool))
	if cfg.Publish.Tool == PublishToolCommand && len(cfg.Publish.Command) == 0 {
		cfg.Publish.Command = DefaultPublishCommand()
	}

	g := &cfg.Publish.Git
	if g.Branch == "" {
		g.Branch = defaultGitBranch
	}
	if g.Message == "" {
		g.Message = defaultGitMessage
	}
	if g.AuthorName == "" {
		g.AuthorName = defaultGitAuthor
	}
	if g.AuthorEmail == "" {
		g.AuthorEmail = defaultGitEmail
	}
	g.RetryBackoff = retryBackoffs.canonical(string(g.RetryBackoff))
	if g.Auth != nil {
		g.Auth.Type = authTypes.canonical(string(g.Auth.Type))
	}
	return nil
}

// RuntimeDefaultApplier handles notify, daemon and logging defaults.
type RuntimeDefaultApplier struct{}

func (r *RuntimeDefaultApplier) Domain() string { return "runtime" }

func (r *RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultSubject
	}
	if cfg.Daemon.Debounce == "" {
		cfg.Daemon.Debounce = defaultDebounce.String()
	}
	cfg.Logging.Level = string(NormalizeLogLevel(cfg.Logging.Level))
	cfg.Logging.Format = string(NormalizeLogFormat(cfg.Logging.Format))
	return nil
}

// defaultAppliers returns the appliers in the order they run.
func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&PathsDefaultApplier{},
		&PublishDefaultApplier{},
		&RuntimeDefaultApplier{},
	}
}

// ApplyDefaults fills in every unset field with its default.
func ApplyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers() {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a fully defaulted configuration with an empty manifest.
func Default() *Config {
	cfg := &Config{}
	_ = ApplyDefaults(cfg)
	return cfg
}
