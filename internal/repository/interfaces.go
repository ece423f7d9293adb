package repository

import (
	"context"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

type TenantRepo interface {
	Create(ctx context.Context, t *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	List(ctx context.Context) ([]*domain.Tenant, error)
	// SetLastRefreshAt stamps the manual-refresh cooldown marker.
	SetLastRefreshAt(ctx context.Context, tenantID string, at time.Time) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListActiveByTenant(ctx context.Context, tenantID string) ([]*domain.Project, error)
}

type PhaseRepo interface {
	Create(ctx context.Context, p *domain.Phase) error
	GetByID(ctx context.Context, id string) (*domain.Phase, error)
	// ListSnapshotDue returns active phases whose date range includes
	// or precedes asOf, i.e. the phases a daily snapshot run covers.
	ListSnapshotDue(ctx context.Context, tenantID string, asOf time.Time) ([]*domain.Phase, error)
	ListActiveByProject(ctx context.Context, projectID string) ([]*domain.Phase, error)
}

// HoursRepo is the narrow hours-source contract over externally synced
// allocation and time-tracking data.
type HoursRepo interface {
	SumActualHours(ctx context.Context, phaseID string, asOf time.Time) (float64, error)
	SumPlannedHours(ctx context.Context, phaseID string) (float64, error)
	// AllocationStats returns the allocation row count and distinct
	// assigned user count for a phase.
	AllocationStats(ctx context.Context, phaseID string) (allocations, users int, err error)
	AssignedUserIDs(ctx context.Context, phaseID string) ([]string, error)
	ListAllocationsForUsers(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) ([]domain.Allocation, error)
	ListAbsencesForUsers(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) ([]domain.Absence, error)

	CreateAllocation(ctx context.Context, a *domain.Allocation) error
	CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error
	CreateAbsence(ctx context.Context, a *domain.Absence) error
}

type SnapshotRepo interface {
	// Insert appends a snapshot. Returns false with a nil error when a
	// row for (phase, snapshot date) already exists; the store-level
	// uniqueness constraint makes this safe under concurrent writers.
	Insert(ctx context.Context, s *domain.PhaseSnapshot) (created bool, err error)
	History(ctx context.Context, phaseID string) ([]*domain.PhaseSnapshot, error)
	Latest(ctx context.Context, phaseID string) (*domain.PhaseSnapshot, error)
}

type InsightRepo interface {
	InsertPhaseInsight(ctx context.Context, in *domain.PhaseInsight) error
	LatestPhaseInsight(ctx context.Context, phaseID string) (*domain.PhaseInsight, error)
	InsertProjectInsight(ctx context.Context, in *domain.ProjectInsight) error
	LatestProjectInsight(ctx context.Context, projectID string) (*domain.ProjectInsight, error)
	UpsertTenantSummary(ctx context.Context, s *domain.TenantSummary) error
	GetTenantSummary(ctx context.Context, tenantID string) (*domain.TenantSummary, error)
}
