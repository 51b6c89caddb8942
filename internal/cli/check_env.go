package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wpt-reporter/internal/config"
)

var checkEnvCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Check that every required environment variable is present",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Gate(cfg.RequiredEnv, config.Present(environ)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "all %d required variables present\n", len(cfg.RequiredEnv))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkEnvCmd)
}
