package pipeline

import (
	"fmt"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

// UnitError records one failed work unit inside a run. Unit failures
// never abort the run; they accumulate here.
type UnitError struct {
	TenantID string `json:"tenantId"`
	PhaseID  string `json:"phaseId,omitempty"`
	Unit     string `json:"unit"` // "snapshot" | "phase_insight" | "project_insight" | "tenant_summary"
	Message  string `json:"message"`
}

func (e UnitError) Error() string {
	if e.PhaseID != "" {
		return fmt.Sprintf("%s tenant=%s phase=%s: %s", e.Unit, e.TenantID, e.PhaseID, e.Message)
	}
	return fmt.Sprintf("%s tenant=%s: %s", e.Unit, e.TenantID, e.Message)
}

// SnapshotReport is the result of one snapshot run.
type SnapshotReport struct {
	State           domain.RunState `json:"state"`
	AsOf            time.Time       `json:"asOf"`
	StartedAt       time.Time       `json:"startedAt"`
	FinishedAt      time.Time       `json:"finishedAt"`
	TenantsSeen     int             `json:"tenantsSeen"`
	PhasesSeen      int             `json:"phasesSeen"`
	Created         int             `json:"created"`
	SkippedExisting int             `json:"skippedExisting"`
	Errors          []UnitError     `json:"errors"`
}

// InsightReport is the result of one insight run.
type InsightReport struct {
	State            domain.RunState `json:"state"`
	StartedAt        time.Time       `json:"startedAt"`
	FinishedAt       time.Time       `json:"finishedAt"`
	TenantsSeen      int             `json:"tenantsSeen"`
	ProjectsSeen     int             `json:"projectsSeen"`
	PhaseInsights    int             `json:"phaseInsights"`
	ProjectInsights  int             `json:"projectInsights"`
	TenantSummaries  int             `json:"tenantSummaries"`
	Errors           []UnitError     `json:"errors"`
}

// finalState derives the terminal run state from the accumulator.
func finalState(errs []UnitError) domain.RunState {
	if len(errs) > 0 {
		return domain.RunCompletedWithErrors
	}
	return domain.RunCompleted
}

// RefreshResult reports a successful manual refresh.
type RefreshResult struct {
	TenantID      string          `json:"tenantId"`
	LastRefreshAt time.Time       `json:"lastRefreshAt"`
	Snapshots     *SnapshotReport `json:"snapshots,omitempty"`
	Insights      *InsightReport  `json:"insights,omitempty"`
}

// RateLimitError rejects a manual refresh inside the cooldown window.
// It is an expected outcome, reported to the caller, never logged as a
// pipeline failure.
type RateLimitError struct {
	TenantID      string
	NextRefreshAt time.Time
	WaitMinutes   int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("refresh for tenant %s rate limited, next allowed at %s",
		e.TenantID, e.NextRefreshAt.Format(time.RFC3339))
}
