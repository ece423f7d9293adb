package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/cli/formatter"
	"github.com/mlechner/polier/internal/domain"
)

func newDashboardCmd(app *App) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the tenant summary dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tenant, err := resolveTenant(ctx, app, tenantID)
			if err != nil {
				return err
			}

			if !app.Interactive {
				// No TTY: print the summary directly.
				summary, err := app.InsightStore.GetTenantSummary(ctx, tenant.ID)
				if err != nil {
					return fmt.Errorf("no summary yet for tenant %s, run `polier insights` first", tenant.Name)
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTenantSummary(tenant.Name, summary))
				return nil
			}

			model := newDashboardModel(app, tenant)
			_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (default: the only tenant)")

	return cmd
}

func resolveTenant(ctx context.Context, app *App, tenantID string) (*domain.Tenant, error) {
	if tenantID != "" {
		return app.Tenants.GetByID(ctx, tenantID)
	}
	tenants, err := app.Tenants.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(tenants) {
	case 0:
		return nil, fmt.Errorf("no tenants found, run `polier seed` first")
	case 1:
		return tenants[0], nil
	default:
		return nil, fmt.Errorf("multiple tenants found, pick one with --tenant")
	}
}

type summaryLoadedMsg struct {
	summary *domain.TenantSummary
	err     error
}

// dashboardModel shows a spinner while the summary loads, then the
// styled tenant overview.
type dashboardModel struct {
	app     *App
	tenant  *domain.Tenant
	spinner spinner.Model
	summary *domain.TenantSummary
	err     error
	loaded  bool
}

func newDashboardModel(app *App, tenant *domain.Tenant) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StyleBlue
	return dashboardModel{app: app, tenant: tenant, spinner: sp}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSummary)
}

func (m dashboardModel) loadSummary() tea.Msg {
	summary, err := m.app.InsightStore.GetTenantSummary(context.Background(), m.tenant.ID)
	return summaryLoadedMsg{summary: summary, err: err}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case summaryLoadedMsg:
		m.loaded = true
		m.summary = msg.summary
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if !m.loaded {
		return fmt.Sprintf("\n  %s Loading summary for %s...\n", m.spinner.View(), m.tenant.Name)
	}
	if m.err != nil {
		return fmt.Sprintf("\n  %s No summary yet for %s. Run `polier insights` first.\n\n  %s\n",
			formatter.StyleYellow.Render("●"), m.tenant.Name, formatter.Dim("press q to quit"))
	}
	return "\n" + formatter.FormatTenantSummary(m.tenant.Name, m.summary) + "\n" + formatter.Dim("press q to quit") + "\n"
}
