/*
PURPOSE:
  Defines the 'list-locations' subcommand.
  Helps pick a location and check the API key before wiring the workflow.

REQUIREMENTS:
  Implementation-discovered:
  - Useful validation step before a full run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Client.Locations()

ERROR HANDLING:
  - Returns the API error; nothing is printed on failure.

USAGE:
  wpt-reporter list-locations
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wpt-reporter/internal/engine"
)

var listLocationsCmd = &cobra.Command{
	Use:   "list-locations",
	Short: "List test locations offered by the WebPageTest server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("server") {
			cfg.Server = serverOverride
		}

		c := engine.NewClient(cfg.Server, ghEnv.WebPageTestAPIKey, cfg.RequestTimeout, engine.RetryConfigFor(cfg, nil))
		locations, err := c.Locations(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, l := range locations {
			if l.Label != "" {
				fmt.Fprintf(out, "- %s (%s)\n", l.Name, l.Label)
			} else {
				fmt.Fprintf(out, "- %s\n", l.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listLocationsCmd)
	listLocationsCmd.Flags().StringVar(&serverOverride, "server", "", "WebPageTest server")
}
