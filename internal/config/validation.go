package config

import (
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validateManifest(); err != nil {
		return err
	}
	if err := cv.validateArtifacts(); err != nil {
		return err
	}
	if err := cv.validatePublish(); err != nil {
		return err
	}
	if err := cv.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// validatePaths rejects staging locations that would copy the output into itself.
func (cv *configurationValidator) validatePaths() error {
	out, err := filepath.Abs(cv.config.OutputDir)
	if err != nil {
		return invalid("output_dir", cv.config.OutputDir, "cannot resolve path")
	}
	staging, err := filepath.Abs(cv.config.StagingDir)
	if err != nil {
		return invalid("staging_dir", cv.config.StagingDir, "cannot resolve path")
	}
	if out == staging {
		return invalid("staging_dir", cv.config.StagingDir, "must differ from output_dir")
	}
	if rel, err := filepath.Rel(out, staging); err == nil && !isParentRel(rel) {
		return invalid("staging_dir", cv.config.StagingDir, "must not be inside output_dir")
	}
	return nil
}

// isParentRel reports whether rel climbs out of its base directory. Names that
// merely start with two dots, such as "..tmp", stay inside.
func isParentRel(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (cv *configurationValidator) validateManifest() error {
	for _, name := range cv.config.Manifest.Files {
		if !fs.ValidPath(name) || name == "." {
			return invalid("manifest.files", name, "entries must be slash-separated paths relative to the output root")
		}
	}
	for _, name := range cv.config.Manifest.Directories {
		if !fs.ValidPath(name) || name == "." {
			return invalid("manifest.directories", name, "entries must be slash-separated paths relative to the output root")
		}
	}
	return nil
}

func (cv *configurationValidator) validateArtifacts() error {
	dir := cv.config.Artifacts.Dir
	if !fs.ValidPath(dir) || dir == "." {
		return invalid("artifacts.dir", dir, "must be a slash-separated path below the output root")
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	p := cv.config.Publish
	switch p.Tool {
	case PublishToolCommand:
		if len(p.Command) == 0 || strings.TrimSpace(p.Command[0]) == "" {
			return invalid("publish.command", "", "command tool requires a non-empty argv")
		}
	case PublishToolGit:
		if p.Git.Remote == "" {
			return invalid("publish.git.remote", "", "git tool requires a remote URL")
		}
		if p.Git.Auth != nil {
			if _, ok := authTypes.lookup(string(p.Git.Auth.Type)); !ok {
				return invalid("publish.git.auth.type", string(p.Git.Auth.Type), "unsupported auth type (expected "+authTypes.validKeys()+")")
			}
		}
		if err := validateRetry(p.Git); err != nil {
			return err
		}
	default:
		return invalid("publish.tool", string(p.Tool), "unsupported publish tool (expected "+publishTools.validKeys()+")")
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon
	if d.Debounce != "" {
		v, err := time.ParseDuration(d.Debounce)
		if err != nil || v <= 0 {
			return invalid("daemon.debounce", d.Debounce, "must be a positive duration")
		}
	}
	if d.Schedule != "" && !validCronExpression(d.Schedule) {
		return invalid("daemon.schedule", d.Schedule, "must be a 5-field cron expression or @descriptor")
	}
	return nil
}

func validateRetry(g GitConfig) error {
	if g.MaxRetries < 0 {
		return invalid("publish.git.max_retries", strconv.Itoa(g.MaxRetries), "cannot be negative")
	}
	if _, ok := retryBackoffs.lookup(string(g.RetryBackoff)); !ok {
		return invalid("publish.git.retry_backoff", string(g.RetryBackoff), "expected one of "+retryBackoffs.validKeys())
	}
	delays := []struct{ field, value string }{
		{"publish.git.retry_initial_delay", g.RetryInitialDelay},
		{"publish.git.retry_max_delay", g.RetryMaxDelay},
	}
	for _, d := range delays {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return invalid(d.field, d.value, "must be a positive duration")
		}
	}
	return nil
}

func validCronExpression(expr string) bool {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@") {
		return len(expr) > 1
	}
	return len(strings.Fields(expr)) == 5
}

func invalid(field, value, reason string) error {
	return errors.ConfigError("invalid configuration: "+field+": "+reason).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
