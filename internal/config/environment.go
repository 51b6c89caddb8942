/*
PURPOSE:
  Reads the GitHub Actions runtime context (event, sha, repository, token)
  and the WebPageTest key from the environment.

REQUIREMENTS:
  User-specified:
  - The environment is read once into an explicit struct; nothing else calls os.Getenv.

  Implementation-discovered:
  - Local runs keep secrets in a .env file. Real environment variables win.
  - GitHub Enterprise Server sets GITHUB_API_URL; default to api.github.com.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (root PersistentPreRunE)
  - Consumed by: internal/engine (Pipeline)

ERROR HANDLING:
  - Parse failures are wrapped; missing variables are the gate's job (gate.go).

USAGE:
  config.LoadEnvFiles([]string{".env"})
  environ := config.EnvironMap(os.Environ())
  env, err := config.LoadEnvironment(environ)
*/

package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// TriggerEvent is the only GitHub event that starts a run.
const TriggerEvent = "push"

// Environment is the GitHub Actions runtime context plus secrets.
type Environment struct {
	EventName   string `env:"GITHUB_EVENT_NAME"`
	EventPath   string `env:"GITHUB_EVENT_PATH"`
	SHA         string `env:"GITHUB_SHA"`
	Repository  string `env:"GITHUB_REPOSITORY"`
	Token       string `env:"GITHUB_TOKEN"`
	APIURL      string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	StepSummary string `env:"GITHUB_STEP_SUMMARY"`

	WebPageTestAPIKey string `env:"WEBPAGETEST_API_KEY"`
}

// LoadEnvironment parses the runtime context out of environ.
func LoadEnvironment(environ map[string]string) (*Environment, error) {
	var e Environment
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return nil, errors.Wrap(err, "failed to parse github environment")
	}
	return &e, nil
}

// LoadEnvFiles loads the given dotenv files that exist and returns how many were loaded.
// Variables already set in the process win over file values.
func LoadEnvFiles(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, errors.Wrap(err, "failed to load env files")
	}
	return len(existing), nil
}

// EnvironMap turns os.Environ() style pairs into a map.
func EnvironMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		m[k] = v
	}
	return m
}
