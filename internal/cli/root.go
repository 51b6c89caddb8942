/*
PURPOSE:
  Defines the root Cobra command for the wpt-reporter CLI.
  Handles global flags, env files, configuration and logging setup.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface usable as a GitHub Action entry point.
  - Support global flags like --config.

  Implementation-discovered:
  - Local runs keep secrets in a .env file; load it before reading the environment.
  - SIGINT/SIGTERM cancel the run context so a cancelled workflow stops polling.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/wpt-reporter/main.go
  - Calls: Child commands (run, render, list-locations, check-env)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - SilenceUsage: a failed run is not a usage problem.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Order: env files -> config (defaults, YAML, env) -> flags -> logging.

RELATED FILES:
  - cmd/wpt-reporter/main.go
  - internal/config/config.go
*/

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile   string
	envFiles  []string
	logLevel  string
	logFormat string

	// Populated by PersistentPreRunE.
	cfg     *config.Config
	ghEnv   *config.Environment
	environ map[string]string

	rootCmd = &cobra.Command{
		Use:   "wpt-reporter",
		Short: "Run WebPageTest on push and comment the report on the commit",
		Long: `wpt-reporter runs a WebPageTest test against a URL when a commit is pushed,
renders the result as markdown and posts it as a comment on the commit.

Use 'run --help' for test options.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// Execute executes the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wpt-reporter.yaml or ./.github/wpt-reporter.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are ignored")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides LOG_FORMAT)")
}

func setup(cmd *cobra.Command, args []string) error {
	n, err := config.LoadEnvFiles(envFiles)
	if err != nil {
		return err
	}

	environ = config.EnvironMap(os.Environ())
	if cfg, err = config.Load(cfgFile, environ); err != nil {
		return err
	}
	if ghEnv, err = config.LoadEnvironment(environ); err != nil {
		return err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	cfg.Normalize()
	if err := output.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	if n > 0 {
		output.Logger.Debug("Loaded env files", "count", n)
	}
	return nil
}
