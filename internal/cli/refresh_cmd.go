package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/cli/formatter"
	"github.com/mlechner/polier/internal/pipeline"
)

func newRefreshCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "refresh <tenant-id>",
		Short: "Run an on-demand snapshot and insight pass for one tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := args[0]

			if !yes && app.Interactive {
				confirmed, err := confirmRefresh(tenantID)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			result, err := app.Refresh.Refresh(cmd.Context(), tenantID)
			if err != nil {
				var rateErr *pipeline.RateLimitError
				if errors.As(err, &rateErr) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s Refresh rate limited: wait %d minute(s), next allowed at %s.\n",
						formatter.StyleYellow.Render("●"),
						rateErr.WaitMinutes,
						rateErr.NextRefreshAt.Format("15:04"))
					return nil
				}
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRefreshResult(result))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func confirmRefresh(tenantID string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Refresh tenant %s now?", tenantID)).
				Description("Runs a full snapshot and insight pass outside the nightly schedule.").
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithShowHelp(false)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
