package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mlechner/polier/internal/domain"
)

// newSeedCmd loads a small demo dataset so the pipeline has something
// to chew on in a fresh local database.
func newSeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo tenants, projects and phases",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := time.Now().UTC()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

			tenant := &domain.Tenant{
				ID:        uuid.New().String(),
				Name:      "Muster Bau GmbH",
				CreatedAt: now,
			}
			if err := app.Tenants.Create(ctx, tenant); err != nil {
				return fmt.Errorf("creating tenant: %w", err)
			}

			deadline := today.AddDate(0, 2, 0)
			project := &domain.Project{
				ID:        uuid.New().String(),
				TenantID:  tenant.ID,
				Name:      "Halle West",
				Status:    domain.ProjectActive,
				StartDate: today.AddDate(0, -2, 0),
				Deadline:  &deadline,
				CreatedAt: now,
			}
			if err := app.Projects.Create(ctx, project); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}

			lat, lng := 52.52, 13.405
			phases := []*domain.Phase{
				{
					ID: uuid.New().String(), ProjectID: project.ID, TenantID: tenant.ID,
					Name: "Fundament", Status: domain.PhaseActive,
					StartDate: today.AddDate(0, -2, 0), EndDate: today.AddDate(0, 0, 14),
					SollHours: 320, Latitude: &lat, Longitude: &lng, CreatedAt: now,
				},
				{
					ID: uuid.New().String(), ProjectID: project.ID, TenantID: tenant.ID,
					Name: "Rohbau", Status: domain.PhaseActive,
					StartDate: today.AddDate(0, -1, 0), EndDate: today.AddDate(0, 1, 15),
					SollHours: 960, Latitude: &lat, Longitude: &lng, CreatedAt: now,
				},
			}
			for _, phase := range phases {
				if err := app.Phases.Create(ctx, phase); err != nil {
					return fmt.Errorf("creating phase %s: %w", phase.Name, err)
				}
			}

			crew := []string{"anna", "bernd", "clara"}
			for week := -8; week <= 4; week++ {
				weekStart := today.AddDate(0, 0, week*7)
				for i, user := range crew {
					phase := phases[i%len(phases)]
					if err := app.Hours.CreateAllocation(ctx, &domain.Allocation{
						ID: uuid.New().String(), TenantID: tenant.ID, PhaseID: phase.ID,
						UserID: user, WeekStart: weekStart, Hours: 32,
					}); err != nil {
						return fmt.Errorf("creating allocation: %w", err)
					}
				}
			}
			for day := -40; day < 0; day++ {
				date := today.AddDate(0, 0, day)
				if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
					continue
				}
				for i, user := range crew {
					if err := app.Hours.CreateTimeEntry(ctx, &domain.TimeEntry{
						ID: uuid.New().String(), TenantID: tenant.ID, PhaseID: phases[i%len(phases)].ID,
						UserID: user, EntryDate: date, Hours: 6.5,
					}); err != nil {
						return fmt.Errorf("creating time entry: %w", err)
					}
				}
			}
			if err := app.Hours.CreateAbsence(ctx, &domain.Absence{
				ID: uuid.New().String(), TenantID: tenant.ID, UserID: "clara",
				StartDate: today.AddDate(0, 0, 3), EndDate: today.AddDate(0, 0, 7),
				Kind: "vacation",
			}); err != nil {
				return fmt.Errorf("creating absence: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded tenant %s (%s) with project %s.\n",
				tenant.Name, tenant.ID, project.Name)
			fmt.Fprintln(cmd.OutOrStdout(), "Run `polier snapshot` a few times with increasing --as-of dates, then `polier insights`.")
			return nil
		},
	}
	return cmd
}
