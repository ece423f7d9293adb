package domain

import "time"

// Tenant is an isolated customer account. LastRefreshAt backs the
// manual-refresh cooldown and is persisted so it survives restarts.
type Tenant struct {
	ID            string
	Name          string
	LastRefreshAt *time.Time
	CreatedAt     time.Time
}

type Project struct {
	ID        string
	TenantID  string
	Name      string
	Status    ProjectStatus
	StartDate time.Time
	Deadline  *time.Time
	CreatedAt time.Time
}

// Phase is a project phase with an hours budget (SOLL) and an optional
// site location used for weather context.
type Phase struct {
	ID        string
	ProjectID string
	TenantID  string
	Name      string
	Status    PhaseStatus
	StartDate time.Time
	EndDate   time.Time
	SollHours float64
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

// Allocation is one planned week of work for a user on a phase.
// Produced by the external planning surface; read-only here.
type Allocation struct {
	ID        string
	TenantID  string
	PhaseID   string
	UserID    string
	WeekStart time.Time
	Hours     float64
}

// TimeEntry is one day of actual (IST) hours, synced from the external
// time-tracking system; read-only here.
type TimeEntry struct {
	ID        string
	TenantID  string
	PhaseID   string
	UserID    string
	EntryDate time.Time
	Hours     float64
}

// Absence is a user's planned absence window (vacation, sick leave).
type Absence struct {
	ID        string
	TenantID  string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Kind      string
}
