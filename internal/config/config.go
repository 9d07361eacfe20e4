package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
)

// DefaultPath is the configuration file used when no --config flag is given.
const DefaultPath = "siteship.yaml"

// StagingPlaceholder is replaced with the staging directory in publish command arguments.
const StagingPlaceholder = "{staging}"

// Config represents the application configuration.
type Config struct {
	OutputDir  string `yaml:"output_dir"`
	StagingDir string `yaml:"staging_dir"`
	// Strict turns "checks failed, publish skipped" into a failing exit status.
	Strict  bool   `yaml:"strict,omitempty"`
	SiteURL string `yaml:"site_url,omitempty"`

	Manifest  ManifestConfig  `yaml:"manifest"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Publish   PublishConfig   `yaml:"publish"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Report    ReportConfig    `yaml:"report,omitempty"`
	Daemon    DaemonConfig    `yaml:"daemon,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ManifestConfig lists the entries a build output must contain.
type ManifestConfig struct {
	Files       []string `yaml:"files"`
	Directories []string `yaml:"directories"`
}

// ArtifactsConfig locates generated script bundles inside the output.
type ArtifactsConfig struct {
	Dir    string `yaml:"dir"`
	Suffix string `yaml:"suffix"`
}

// PublishTool selects how the staged output is pushed to hosting.
type PublishTool string

const (
	PublishToolCommand PublishTool = "command"
	PublishToolGit     PublishTool = "git"
)

// PublishConfig configures the publish step.
type PublishConfig struct {
	Tool    PublishTool `yaml:"tool"`
	Command []string    `yaml:"command,omitempty"`
	Git     GitConfig   `yaml:"git,omitempty"`
}

// GitConfig configures the built-in git publisher.
type GitConfig struct {
	Remote      string      `yaml:"remote"`
	Branch      string      `yaml:"branch"`
	Message     string      `yaml:"message,omitempty"`
	AuthorName  string      `yaml:"author_name,omitempty"`
	AuthorEmail string      `yaml:"author_email,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`

	// Push retries for transient remote failures. Zero disables retrying.
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// RetryBackoffMode enumerates supported retry backoff strategies.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryDelays parses the retry delays, falling back to 500ms and 10s.
func (g GitConfig) RetryDelays() (initial, maxDelay time.Duration) {
	initial, _ = time.ParseDuration(g.RetryInitialDelay)
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxDelay, _ = time.ParseDuration(g.RetryMaxDelay)
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	return initial, maxDelay
}

// AuthType enumerates supported authentication methods (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents authentication configuration for the git remote.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // ssh|token|basic|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// IsZero reports whether no auth method is specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// HistoryConfig enables the run history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig enables run notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Textfile is written after one-shot runs in node exporter textfile format.
	Textfile string `yaml:"textfile,omitempty"`
	// Listen is the address serving /metrics in daemon mode.
	Listen string `yaml:"listen,omitempty"`
}

// Enabled reports whether any metrics sink is configured.
func (m MetricsConfig) Enabled() bool { return m.Textfile != "" || m.Listen != "" }

// ReportConfig controls the per-run report file.
type ReportConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig controls scheduled and watch-triggered runs.
type DaemonConfig struct {
	Schedule string `yaml:"schedule,omitempty"`
	Watch    bool   `yaml:"watch,omitempty"`
	Debounce string `yaml:"debounce,omitempty"`
}

// DebounceDuration parses Debounce, falling back to the default for malformed values.
func (d DaemonConfig) DebounceDuration() time.Duration {
	v, err := time.ParseDuration(d.Debounce)
	if err != nil || v <= 0 {
		return defaultDebounce
	}
	return v
}

// Load reads, expands, defaults and validates the configuration file at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath) // #nosec G304 -- operator supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration bytes after expanding ${VAR} references.
func Parse(data []byte) (*Config, error) {
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			UserAction().
			Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CommandFor returns the publish argv with the staging placeholder substituted.
func (p PublishConfig) CommandFor(stagingDir string) []string {
	argv := make([]string, len(p.Command))
	for i, arg := range p.Command {
		if arg == StagingPlaceholder {
			argv[i] = stagingDir
			continue
		}
		argv[i] = arg
	}
	return argv
}

// Summary returns a one-line description used in startup logs.
func (c *Config) Summary() string {
	return fmt.Sprintf("output=%s staging=%s files=%d dirs=%d artifacts=%s/*%s tool=%s",
		c.OutputDir, c.StagingDir, len(c.Manifest.Files), len(c.Manifest.Directories),
		c.Artifacts.Dir, c.Artifacts.Suffix, c.Publish.Tool)
}
