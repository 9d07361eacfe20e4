package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		OutputDir:  defaultOutputDir,
		StagingDir: defaultStagingDir,
		SiteURL:    "https://example.github.io",
		Manifest: ManifestConfig{
			Files: []string{
				"index.html",
				"404.html",
				"manifest.json",
				"robots.txt",
				"sitemap.xml",
				"favicon.ico",
			},
			Directories: []string{"_next", "images"},
		},
		Artifacts: ArtifactsConfig{Dir: defaultArtifactsDir, Suffix: defaultSuffix},
		Publish: PublishConfig{
			Tool:    PublishToolCommand,
			Command: DefaultPublishCommand(),
			Git: GitConfig{
				Remote:       "https://github.com/example/example.github.io.git",
				Branch:       defaultGitBranch,
				Auth:         &AuthConfig{Type: AuthTypeToken, Token: "${GITHUB_TOKEN}"},
				MaxRetries:   2,
				RetryBackoff: RetryBackoffExponential,
			},
		},
		History: HistoryConfig{Path: "./siteship-history.db"},
		Metrics: MetricsConfig{Listen: ":9109"},
		Report:  ReportConfig{Path: "./siteship-report.md"},
		Daemon:  DaemonConfig{Schedule: "0 */4 * * *", Watch: true, Debounce: defaultDebounce.String()},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
