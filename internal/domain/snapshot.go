package domain

import "time"

// PhaseSnapshot is an immutable daily capture of a phase's metrics.
// Rows are append-only: one per (phase, snapshot date), never updated
// or deleted by the pipeline.
type PhaseSnapshot struct {
	ID                string
	TenantID          string
	PhaseID           string
	SnapshotDate      time.Time // calendar date, time part zero
	IstHours          float64
	PlanHours         float64
	SollHours         float64
	AllocationCount   int
	AssignedUserCount int
	CreatedAt         time.Time
}

// ProgressPercent returns IST over SOLL as a percentage.
// Zero SOLL yields zero rather than a division error.
func (s PhaseSnapshot) ProgressPercent() float64 {
	if s.SollHours <= 0 {
		return 0
	}
	return s.IstHours / s.SollHours * 100
}

// RemainingHours returns the budget not yet burned, clamped at zero.
func (s PhaseSnapshot) RemainingHours() float64 {
	remaining := s.SollHours - s.IstHours
	if remaining < 0 {
		return 0
	}
	return remaining
}
