package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/cli/formatter"
)

func newSnapshotCmd(app *App) *cobra.Command {
	var asOf dateValue
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture today's phase snapshots for all tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Snapshots.GenerateSnapshots(cmd.Context(), asOf.Time())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSnapshotReport(report))
			return nil
		},
	}

	cmd.Flags().Var(&asOf, "as-of", "Snapshot date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
