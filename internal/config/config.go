/*
PURPOSE:
  Defines the configuration structure and loading logic for wpt-reporter.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the target URL, WebPageTest run options and outputs.
  - Every run option has its own default.
  - The target URL is mandatory; there is no built-in fallback site.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs Environment variable overrides (TEST_URL, WPT_*) since the tool
    runs inside GitHub Actions where env is the natural input channel.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/caarlos0/env/v11

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - A missing config file is fine when none was requested explicitly.
  - Validate() reports a missing URL as *model.ConfigMissingError.

IMPLEMENTATION RULES:
  - Order is Defaults -> YAML -> Environment -> CLI flags (flags applied in internal/cli).
  - env.Parse only touches fields whose variable is set, so defaults survive.

USAGE:
  cfg, err := config.Load("wpt-reporter.yaml", config.EnvironMap(os.Environ()))

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/config/environment.go
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

// DefaultFiles are searched, in order, when no --config is given.
var DefaultFiles = []string{"wpt-reporter.yaml", ".github/wpt-reporter.yaml"}

// Config represents the full configuration for wpt-reporter.
type Config struct {
	URL    string           `yaml:"url" env:"TEST_URL"`
	Server string           `yaml:"server" env:"WEBPAGETEST_SERVER"`
	Run    model.RunOptions `yaml:"run"`

	// RequiredEnv are checked by the precondition gate before anything runs.
	RequiredEnv []string `yaml:"required_env"`

	OutputDir   string `yaml:"output_dir" env:"WPT_OUTPUT_DIR"`
	MetricsFile string `yaml:"metrics_file" env:"WPT_METRICS_FILE"`
	DryRun      bool   `yaml:"dry_run" env:"WPT_DRY_RUN"`

	MaxRetries     int           `yaml:"max_retries" env:"WPT_MAX_RETRIES"`
	RetryDelay     time.Duration `yaml:"retry_delay" env:"WPT_RETRY_DELAY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"WPT_REQUEST_TIMEOUT"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

// DefaultRequiredEnv mirrors what a GitHub Actions runner provides plus the WebPageTest key.
func DefaultRequiredEnv() []string {
	return []string{
		"HOME",
		"GITHUB_WORKFLOW",
		"GITHUB_ACTION",
		"GITHUB_ACTOR",
		"GITHUB_REPOSITORY",
		"GITHUB_EVENT_NAME",
		"GITHUB_EVENT_PATH",
		"GITHUB_WORKSPACE",
		"GITHUB_SHA",
		"GITHUB_REF",
		"GITHUB_TOKEN",
		"WEBPAGETEST_API_KEY",
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:         "https://www.webpagetest.org",
		Run:            model.DefaultRunOptions(),
		RequiredEnv:    DefaultRequiredEnv(),
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from a file and overlays environment variables.
// If path is empty, DefaultFiles are searched; if none exists the defaults are used.
func Load(path string, environ map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	data, path, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize lowercases the log settings. Call it again after applying flag overrides.
func (c *Config) Normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func readConfigFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, errors.Wrapf(err, "failed to read config file %s", path)
		}
		return data, path, nil
	}

	for _, name := range DefaultFiles {
		data, err := os.ReadFile(name)
		if err == nil {
			return data, name, nil
		}
	}
	return nil, "", nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.URL == "" {
		return &model.ConfigMissingError{Keys: []string{"TEST_URL"}}
	}
	if err := ValidateTarget(c.URL); err != nil {
		return err
	}
	if c.Server == "" {
		return &model.ConfigMissingError{Keys: []string{"WEBPAGETEST_SERVER"}}
	}
	if c.Run.Runs < 1 {
		return errors.Errorf("runs must be at least 1, got %d", c.Run.Runs)
	}
	if c.Run.PollInterval <= 0 {
		return errors.Errorf("poll_interval must be positive, got %s", c.Run.PollInterval)
	}
	if c.Run.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Run.Timeout)
	}
	if c.MaxRetries < 0 {
		return errors.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Errorf("log_format must be 'text' or 'json', got '%s'", c.LogFormat)
	}
	return nil
}

// ValidateTarget accepts only absolute http(s) URLs with a host.
func ValidateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(model.ErrInvalidTarget, "%q: %v", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(model.ErrInvalidTarget, "%q", raw)
	}
	return nil
}
