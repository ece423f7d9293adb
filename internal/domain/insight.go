package domain

import "time"

// PhaseInsight is a derived assessment of one phase, regenerated
// wholesale on each pipeline run. Nullable fields stay nil when the
// snapshot history is too short to support a trend or forecast.
type PhaseInsight struct {
	ID                     string
	TenantID               string
	PhaseID                string
	GeneratedAt            time.Time
	Status                 InsightStatus
	BurnRateIst            *float64 // hours per calendar day
	BurnRateTrend          *TrendDirection
	ForecastCompletionDate *time.Time
	DeadlineDeltaDays      *int // forecast minus deadline; positive is late
	ProgressPercent        float64
	SummaryText            string
	DetailText             string
	RecommendationText     string
}

// ProjectInsight aggregates a project's active phase insights.
type ProjectInsight struct {
	ID                      string
	TenantID                string
	ProjectID               string
	GeneratedAt             time.Time
	Status                  InsightStatus
	PhasesTotal             int
	PhasesOnTrack           int
	PhasesAtRisk            int
	PhasesBehind            int
	PhasesCritical          int
	PhasesCompleted         int
	OverallProgressPercent  float64 // hours-weighted by phase SOLL
	ProjectedCompletionDate *time.Time
	DeadlineDeltaDays       *int
	SummaryText             string
	DetailText              string
	RecommendationText      string
}

// RiskProjectRef identifies one entry in a tenant's top-risk list.
type RiskProjectRef struct {
	ProjectID     string        `json:"project_id"`
	ProjectName   string        `json:"project_name"`
	Status        InsightStatus `json:"status"`
	PhasesAtRisk  int           `json:"phases_at_risk"`
	ProgressPct   float64       `json:"progress_pct"`
	DeadlineDelta *int          `json:"deadline_delta_days,omitempty"`
}

// TenantSummary is the dashboard read model for one tenant,
// replaced wholesale on each insight run.
type TenantSummary struct {
	TenantID           string
	GeneratedAt        time.Time
	ProjectsTotal      int
	ProjectsAtRisk     int
	ProjectsOnTrack    int
	CriticalPhases     int
	AvgProgressPercent float64
	BurnRateTrend      *TrendDirection
	TopRiskProjects    []RiskProjectRef
}
