package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/mlechner/polier/internal/domain"
)

// Tenant options
type TenantOption func(*domain.Tenant)

func WithLastRefreshAt(at time.Time) TenantOption {
	return func(t *domain.Tenant) {
		t.LastRefreshAt = &at
	}
}

func NewTestTenant(name string, opts ...TenantOption) *domain.Tenant {
	t := &domain.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Project options
type ProjectOption func(*domain.Project)

func WithDeadline(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.Deadline = &d
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func NewTestProject(tenantID, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		Status:    domain.ProjectActive,
		StartDate: now.AddDate(0, -1, 0),
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phase options
type PhaseOption func(*domain.Phase)

func WithPhaseStatus(s domain.PhaseStatus) PhaseOption {
	return func(p *domain.Phase) {
		p.Status = s
	}
}

func WithSollHours(h float64) PhaseOption {
	return func(p *domain.Phase) {
		p.SollHours = h
	}
}

func WithPhaseDates(start, end time.Time) PhaseOption {
	return func(p *domain.Phase) {
		p.StartDate = start
		p.EndDate = end
	}
}

func WithLocation(lat, lng float64) PhaseOption {
	return func(p *domain.Phase) {
		p.Latitude = &lat
		p.Longitude = &lng
	}
}

func NewTestPhase(project *domain.Project, name string, opts ...PhaseOption) *domain.Phase {
	now := time.Now().UTC()
	p := &domain.Phase{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		TenantID:  project.TenantID,
		Name:      name,
		Status:    domain.PhaseActive,
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 2, 0),
		SollHours: 160,
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestAllocation(phase *domain.Phase, userID string, weekStart time.Time, hours float64) *domain.Allocation {
	return &domain.Allocation{
		ID:        uuid.New().String(),
		TenantID:  phase.TenantID,
		PhaseID:   phase.ID,
		UserID:    userID,
		WeekStart: weekStart,
		Hours:     hours,
	}
}

func NewTestTimeEntry(phase *domain.Phase, userID string, entryDate time.Time, hours float64) *domain.TimeEntry {
	return &domain.TimeEntry{
		ID:        uuid.New().String(),
		TenantID:  phase.TenantID,
		PhaseID:   phase.ID,
		UserID:    userID,
		EntryDate: entryDate,
		Hours:     hours,
	}
}

func NewTestAbsence(tenantID, userID string, start, end time.Time) *domain.Absence {
	return &domain.Absence{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Kind:      "vacation",
	}
}

// Snapshot options
type SnapshotOption func(*domain.PhaseSnapshot)

func WithIstHours(h float64) SnapshotOption {
	return func(s *domain.PhaseSnapshot) {
		s.IstHours = h
	}
}

func WithPlanHours(h float64) SnapshotOption {
	return func(s *domain.PhaseSnapshot) {
		s.PlanHours = h
	}
}

func NewTestSnapshot(phase *domain.Phase, date time.Time, opts ...SnapshotOption) *domain.PhaseSnapshot {
	s := &domain.PhaseSnapshot{
		ID:           uuid.New().String(),
		TenantID:     phase.TenantID,
		PhaseID:      phase.ID,
		SnapshotDate: date,
		SollHours:    phase.SollHours,
		CreatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Day returns a UTC calendar date offset from a fixed base day.
// Useful for building deterministic snapshot histories.
func Day(offset int) time.Time {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}
