/*
PURPOSE:
  Defines the 'render' subcommand.
  Re-renders a saved result without running a new test.

REQUIREMENTS:
  Implementation-discovered:
  - Handy for tweaking the report against a known result.
  - Accepts results.jsonl from 'run -o' and raw jsonResult.php downloads.

ARCHITECTURE INTEGRATION:
  - Calls: internal/output.ReadResult, internal/report.Render

ERROR HANDLING:
  - Undecodable input -> *model.RenderFailedError.

USAGE:
  wpt-reporter render wpt/results.jsonl -o report.md
*/

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/daryltucker/wpt-reporter/internal/model"
	"github.com/daryltucker/wpt-reporter/internal/output"
	"github.com/daryltucker/wpt-reporter/internal/report"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render <result.json>",
	Short: "Render a saved WebPageTest result as markdown",
	Long: `Renders a result saved by 'run -o' (results.jsonl) or downloaded from
jsonResult.php. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to open result")
			}
			defer f.Close()
			in = f
		}

		res, err := output.ReadResult(in)
		if err != nil {
			return &model.RenderFailedError{Err: err}
		}
		md := report.Render(res)

		if renderOutput == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}
		if err := os.WriteFile(renderOutput, []byte(md), 0644); err != nil {
			return errors.Wrapf(err, "failed to write %s", renderOutput)
		}
		output.Logger.Info("Report written", "path", renderOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write the report to this file instead of stdout")
}
