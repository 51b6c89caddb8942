package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	renderOutput = ""
	logLevel, logFormat = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := rootCmd.Execute()
	return out.String(), err
}

const savedResult = `{"id":"240101_AB_1","testUrl":"https://example.com","median":{"firstView":{"loadTime":2875.5,"videoFrames":[{"time":0,"image":"a.jpg","VisuallyComplete":0},{"time":1200,"image":"b.jpg","VisuallyComplete":100}]}},"average":[]}
`

func TestRender_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(savedResult), 0644))

	out, err := execute(t, "render", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# WebPageTest report\n"))
	assert.Contains(t, out, "| 0 milliseconds | 1200 milliseconds |")
	assert.NotContains(t, out, "Metrics Average Run")
}

func TestRender_ToOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(savedResult), 0644))
	target := filepath.Join(dir, "report.md")

	_, err := execute(t, "render", path, "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Metrics Median Run")
}

func TestRender_BadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := execute(t, "render", path)

	var renderErr *model.RenderFailedError
	assert.True(t, errors.As(err, &renderErr))
}

func TestCheckEnv(t *testing.T) {
	for _, k := range config.DefaultRequiredEnv() {
		t.Setenv(k, "set")
	}

	out, err := execute(t, "check-env")
	require.NoError(t, err)
	assert.Contains(t, out, "required variables present")

	os.Unsetenv("WEBPAGETEST_API_KEY")
	_, err = execute(t, "check-env")

	var missing *model.ConfigMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"WEBPAGETEST_API_KEY"}, missing.Keys)
}

func TestApplyRunFlags_OnlyChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	addRunFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--video=false",
		"--lighthouse=false",
		"--device", "iPhone 8",
		"--private",
		"--poll-interval", "10s",
		"--timeout", "5m",
	}))

	cfg := config.DefaultConfig()
	applyRunFlags(fs, cfg)

	assert.False(t, *cfg.Run.Video)
	assert.False(t, *cfg.Run.Lighthouse)
	assert.True(t, *cfg.Run.Mobile)
	assert.Equal(t, "iPhone 8", cfg.Run.Device)
	assert.True(t, cfg.Run.Private)
	assert.Equal(t, 10*time.Second, cfg.Run.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Run.Timeout)
	assert.Equal(t, model.DefaultLocation, cfg.Run.Location)
	assert.Equal(t, model.DefaultRuns, cfg.Run.Runs)
	assert.False(t, cfg.DryRun)
}

func TestRoot_LogFormatIsCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(savedResult), 0644))

	_, err := execute(t, "render", path, "--log-format", "JSON", "--log-level", "WARN")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "warn", cfg.LogLevel)
}
