package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/repository"
)

// DefaultRunBudget caps the wall-clock time of one pipeline run. When
// it expires the run stops scheduling new units and finalizes what it
// has as completed_with_errors.
const DefaultRunBudget = 5 * time.Minute

// SnapshotService captures the daily phase snapshots for all tenants.
type SnapshotService struct {
	tenants   repository.TenantRepo
	phases    repository.PhaseRepo
	hours     repository.HoursRepo
	snapshots repository.SnapshotRepo
	observer  RunObserver
	budget    time.Duration
}

func NewSnapshotService(
	tenants repository.TenantRepo,
	phases repository.PhaseRepo,
	hours repository.HoursRepo,
	snapshots repository.SnapshotRepo,
	observer RunObserver,
) *SnapshotService {
	return &SnapshotService{
		tenants:   tenants,
		phases:    phases,
		hours:     hours,
		snapshots: snapshots,
		observer:  observerOrNoop(observer),
		budget:    DefaultRunBudget,
	}
}

// SetRunBudget overrides the wall-clock budget. Zero or negative keeps
// the default.
func (s *SnapshotService) SetRunBudget(d time.Duration) {
	if d > 0 {
		s.budget = d
	}
}

// GenerateSnapshots runs a snapshot pass over every tenant as of the
// given date. Per-unit failures accumulate in the report; only
// configuration-level failures (tenant listing) return an error.
func (s *SnapshotService) GenerateSnapshots(ctx context.Context, asOf time.Time) (*SnapshotReport, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return s.run(ctx, tenants, asOf), nil
}

// GenerateTenantSnapshots runs a snapshot pass scoped to one tenant,
// as the manual refresh does.
func (s *SnapshotService) GenerateTenantSnapshots(ctx context.Context, tenantID string, asOf time.Time) (*SnapshotReport, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading tenant: %w", err)
	}
	return s.run(ctx, []*domain.Tenant{tenant}, asOf), nil
}

func (s *SnapshotService) run(ctx context.Context, tenants []*domain.Tenant, asOf time.Time) *SnapshotReport {
	start := time.Now().UTC()
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	report := &SnapshotReport{
		State:     domain.RunRunning,
		AsOf:      asOf,
		StartedAt: start,
	}

	budgetHit := false
loop:
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			budgetHit = true
			break
		}
		report.TenantsSeen++

		phases, err := s.phases.ListSnapshotDue(ctx, tenant.ID, asOf)
		if err != nil {
			report.Errors = append(report.Errors, UnitError{
				TenantID: tenant.ID,
				Unit:     "snapshot",
				Message:  fmt.Sprintf("listing phases: %v", err),
			})
			continue
		}

		for _, phase := range phases {
			if ctx.Err() != nil {
				budgetHit = true
				break loop
			}
			report.PhasesSeen++
			created, err := s.snapshotPhase(ctx, phase, asOf)
			if err != nil {
				report.Errors = append(report.Errors, UnitError{
					TenantID: tenant.ID,
					PhaseID:  phase.ID,
					Unit:     "snapshot",
					Message:  err.Error(),
				})
				continue
			}
			if created {
				report.Created++
			} else {
				report.SkippedExisting++
			}
		}
	}

	if budgetHit {
		report.Errors = append(report.Errors, UnitError{
			Unit:    "snapshot",
			Message: "run budget exceeded, remaining units skipped",
		})
	}
	report.FinishedAt = time.Now().UTC()
	report.State = finalState(report.Errors)

	s.observer.ObserveRun(ctx, RunEvent{
		Name:      "generate_snapshots",
		StartedAt: start,
		Duration:  report.FinishedAt.Sub(start),
		Success:   report.State == domain.RunCompleted,
		Fields: map[string]any{
			"tenants":          report.TenantsSeen,
			"phases":           report.PhasesSeen,
			"created":          report.Created,
			"skipped_existing": report.SkippedExisting,
			"errors":           len(report.Errors),
		},
	})
	return report
}

// snapshotPhase captures one phase. Returns created=false when a row
// for (phase, asOf) already exists.
func (s *SnapshotService) snapshotPhase(ctx context.Context, phase *domain.Phase, asOf time.Time) (bool, error) {
	if phase.SollHours <= 0 {
		return false, fmt.Errorf("phase has no hour budget")
	}

	ist, err := s.hours.SumActualHours(ctx, phase.ID, asOf)
	if err != nil {
		return false, fmt.Errorf("summing actual hours: %w", err)
	}
	plan, err := s.hours.SumPlannedHours(ctx, phase.ID)
	if err != nil {
		return false, fmt.Errorf("summing planned hours: %w", err)
	}
	allocations, users, err := s.hours.AllocationStats(ctx, phase.ID)
	if err != nil {
		return false, fmt.Errorf("loading allocation stats: %w", err)
	}

	return s.snapshots.Insert(ctx, &domain.PhaseSnapshot{
		ID:                uuid.New().String(),
		TenantID:          phase.TenantID,
		PhaseID:           phase.ID,
		SnapshotDate:      asOf,
		IstHours:          ist,
		PlanHours:         plan,
		SollHours:         phase.SollHours,
		AllocationCount:   allocations,
		AssignedUserCount: users,
		CreatedAt:         time.Now().UTC(),
	})
}
