package cli

import (
	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/pipeline"
	"github.com/mlechner/polier/internal/repository"
)

// App holds the services and repositories the CLI commands run against.
type App struct {
	Snapshots *pipeline.SnapshotService
	Insights  *pipeline.InsightService
	Refresh   *pipeline.RefreshService

	Tenants      repository.TenantRepo
	Projects     repository.ProjectRepo
	Phases       repository.PhaseRepo
	Hours        repository.HoursRepo
	InsightStore repository.InsightRepo

	// Interactive is true when stdout is a terminal; confirmation
	// prompts and the dashboard TUI require it.
	Interactive bool
}

// NewRootCmd creates the top-level "polier" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "polier",
		Short:         "Analytics pipeline for construction capacity planning",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newSnapshotCmd(app),
		newInsightsCmd(app),
		newRefreshCmd(app),
		newDashboardCmd(app),
		newServeCmd(app),
		newSeedCmd(app),
	)

	return root
}
