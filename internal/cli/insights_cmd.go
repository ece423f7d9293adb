package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/cli/formatter"
)

func newInsightsCmd(app *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Rebuild phase, project and tenant insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Insights.RunInsights(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatInsightReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")

	return cmd
}
