package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

func TestCheckRequired_PreservesOrder(t *testing.T) {
	missing := CheckRequired([]string{"A", "B", "C"}, map[string]struct{}{"A": {}})
	assert.Equal(t, []string{"B", "C"}, missing)
}

func TestCheckRequired_NothingMissing(t *testing.T) {
	assert.Empty(t, CheckRequired([]string{"A"}, map[string]struct{}{"A": {}, "B": {}}))
	assert.Empty(t, CheckRequired(nil, nil))
}

func TestGate(t *testing.T) {
	present := Present(EnvironMap([]string{"GITHUB_SHA=abc", "GITHUB_TOKEN=", "PATH=/bin"}))

	require.NoError(t, Gate([]string{"GITHUB_SHA", "GITHUB_TOKEN"}, present))

	err := Gate([]string{"GITHUB_SHA", "WEBPAGETEST_API_KEY", "GITHUB_REPOSITORY"}, present)
	var missing *model.ConfigMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"WEBPAGETEST_API_KEY", "GITHUB_REPOSITORY"}, missing.Keys)
	assert.Equal(t, "missing required configuration:\n- WEBPAGETEST_API_KEY\n- GITHUB_REPOSITORY", err.Error())
}

func TestEnvironMap(t *testing.T) {
	m := EnvironMap([]string{"A=1", "B=x=y", "EMPTY=", "=bogus"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "EMPTY": ""}, m)
}

func TestLoadEnvironment(t *testing.T) {
	e, err := LoadEnvironment(map[string]string{
		"GITHUB_EVENT_NAME":   "push",
		"GITHUB_SHA":          "0123abcd",
		"GITHUB_REPOSITORY":   "octo/site",
		"GITHUB_TOKEN":        "ghs_x",
		"WEBPAGETEST_API_KEY": "wpt-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "push", e.EventName)
	assert.Equal(t, "0123abcd", e.SHA)
	assert.Equal(t, "octo/site", e.Repository)
	assert.Equal(t, "https://api.github.com", e.APIURL)
	assert.Equal(t, "wpt-key", e.WebPageTestAPIKey)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WPT_REPORTER_TEST_ENV_LOAD=ok\n"), 0o644))

	t.Setenv("WPT_REPORTER_TEST_ENV_LOAD", "")
	require.NoError(t, os.Unsetenv("WPT_REPORTER_TEST_ENV_LOAD"))

	n, err := LoadEnvFiles([]string{envFile, filepath.Join(dir, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("WPT_REPORTER_TEST_ENV_LOAD"))
}
