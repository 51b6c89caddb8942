/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the full pipeline: gate, WebPageTest run, report, commit comment.

REQUIREMENTS:
  User-specified:
  - Run the test and publish the report.
  - Specific flags for overrides.

  Implementation-discovered:
  - Only flags the user actually set override the config, so `--runs 0`
    can still be rejected by Validate instead of silently ignored.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if the pipeline fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config (root) -> Override -> Engine.Run.

USAGE:
  wpt-reporter run --url https://example.com

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go
*/

package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/engine"
	"github.com/daryltucker/wpt-reporter/internal/model"
)

var (
	urlOverride          string
	serverOverride       string
	locationOverride     string
	connectivityOverride string
	runsOverride         int
	firstViewOnly        bool
	labelOverride        string
	videoOverride        bool
	mobileOverride       bool
	deviceOverride       string
	lighthouseOverride   bool
	privateOverride      bool
	pollOverride         time.Duration
	timeoutOverride      time.Duration
	dryRun               bool
	outputOverride       string
	metricsFileOverride  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run WebPageTest and comment the report on the pushed commit",
	Long: `Runs the full pipeline inside a GitHub Actions job:
1. Gate: every required environment variable must be present.
2. Trigger: only push events start a test; anything else exits 0.
3. Test: submit to WebPageTest and poll until the result is ready.
4. Report: render markdown and write optional artifacts.
5. Publish: create a commit comment on GITHUB_SHA.`,
	Example: `  # Inside a workflow (configuration from env and wpt-reporter.yaml)
  wpt-reporter run

  # Locally, print the report instead of commenting
  wpt-reporter run --url https://example.com --dry-run

  # Faster connection, three runs, keep artifacts
  wpt-reporter run --connectivity Cable --runs 3 -o ./wpt

  # Desktop run without lighthouse
  wpt-reporter run --mobile=false --lighthouse=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd.Flags(), cfg)
		return engine.Run(cmd.Context(), cfg, ghEnv, environ)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&urlOverride, "url", "", "URL to test (overrides TEST_URL)")
	fs.StringVar(&serverOverride, "server", "", "WebPageTest server")
	fs.StringVar(&locationOverride, "location", "", "WebPageTest location, e.g. Dulles_MotoG4")
	fs.StringVar(&connectivityOverride, "connectivity", "", "connectivity profile, e.g. 3GSlow, Cable")
	fs.IntVar(&runsOverride, "runs", 0, "number of test runs")
	fs.BoolVar(&firstViewOnly, "first-view-only", false, "skip the repeat view")
	fs.StringVar(&labelOverride, "label", "", "label for the test")
	fs.BoolVar(&videoOverride, "video", true, "capture video for the filmstrip")
	fs.BoolVar(&mobileOverride, "mobile", true, "emulate a mobile device")
	fs.StringVar(&deviceOverride, "device", model.DefaultDevice, "device to emulate when --mobile is set")
	fs.BoolVar(&lighthouseOverride, "lighthouse", true, "run a lighthouse test")
	fs.BoolVar(&privateOverride, "private", false, "hide the test from the public history")
	fs.DurationVar(&pollOverride, "poll-interval", model.DefaultPollInterval, "time between result polls")
	fs.DurationVar(&timeoutOverride, "timeout", model.DefaultTimeout, "give up waiting for the result after this long")
	fs.BoolVar(&dryRun, "dry-run", false, "print the report to stdout instead of commenting")
	fs.StringVarP(&outputOverride, "output-dir", "o", "", "directory for results.jsonl, results.csv and report.md")
	fs.StringVar(&metricsFileOverride, "metrics-file", "", "write Prometheus metrics to this textfile")
}

// applyRunFlags copies the flags the user set onto cfg.
func applyRunFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("url") {
		cfg.URL = urlOverride
	}
	if flags.Changed("server") {
		cfg.Server = serverOverride
	}
	if flags.Changed("location") {
		cfg.Run.Location = locationOverride
	}
	if flags.Changed("connectivity") {
		cfg.Run.Connectivity = connectivityOverride
	}
	if flags.Changed("runs") {
		cfg.Run.Runs = runsOverride
	}
	if flags.Changed("first-view-only") {
		cfg.Run.FirstViewOnly = firstViewOnly
	}
	if flags.Changed("label") {
		cfg.Run.Label = labelOverride
	}
	if flags.Changed("video") {
		cfg.Run.Video = model.Bool(videoOverride)
	}
	if flags.Changed("mobile") {
		cfg.Run.Mobile = model.Bool(mobileOverride)
	}
	if flags.Changed("device") {
		cfg.Run.Device = deviceOverride
	}
	if flags.Changed("lighthouse") {
		cfg.Run.Lighthouse = model.Bool(lighthouseOverride)
	}
	if flags.Changed("private") {
		cfg.Run.Private = privateOverride
	}
	if flags.Changed("poll-interval") {
		cfg.Run.PollInterval = pollOverride
	}
	if flags.Changed("timeout") {
		cfg.Run.Timeout = timeoutOverride
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputOverride
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFileOverride
	}
}
