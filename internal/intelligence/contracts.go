package intelligence

import (
	"errors"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

// NarrativeTexts is the generated prose attached to an insight. All
// three fields are always non-empty: the deterministic fallback fills
// them when the LLM cannot.
type NarrativeTexts struct {
	Summary        string `json:"summary"`
	Detail         string `json:"detail"`
	Recommendation string `json:"recommendation"`
}

// ValidateNarrative rejects LLM output with missing fields, which
// routes the caller onto the deterministic fallback.
func ValidateNarrative(n NarrativeTexts) error {
	if n.Summary == "" || n.Detail == "" || n.Recommendation == "" {
		return errors.New("narrative has empty fields")
	}
	return nil
}

// PhaseFacts is the computed evidence a phase narrative is generated
// from. Only numbers derived from stored snapshots go in here; the
// narrative must never invent figures of its own.
type PhaseFacts struct {
	PhaseName         string               `json:"phase_name"`
	ProjectName       string               `json:"project_name"`
	Status            domain.InsightStatus `json:"status"`
	ProgressPercent   float64              `json:"progress_percent"`
	RemainingHours    float64              `json:"remaining_hours"`
	BurnRatePerDay    *float64             `json:"burn_rate_per_day,omitempty"`
	Trend             *string              `json:"trend,omitempty"`
	ForecastDate      *time.Time           `json:"forecast_date,omitempty"`
	DeadlineDeltaDays *int                 `json:"deadline_delta_days,omitempty"`

	// Enrichment for at-risk and worse phases, absent otherwise.
	TeamFreeHours   *float64 `json:"team_free_hours,omitempty"`
	PoorWeatherDays *int     `json:"poor_weather_days,omitempty"`
}

// ProjectFacts is the evidence behind a project-level narrative.
type ProjectFacts struct {
	ProjectName             string               `json:"project_name"`
	Status                  domain.InsightStatus `json:"status"`
	OverallProgressPercent  float64              `json:"overall_progress_percent"`
	PhasesTotal             int                  `json:"phases_total"`
	PhasesOnTrack           int                  `json:"phases_on_track"`
	PhasesAtRisk            int                  `json:"phases_at_risk"`
	PhasesBehind            int                  `json:"phases_behind"`
	PhasesCritical          int                  `json:"phases_critical"`
	PhasesCompleted         int                  `json:"phases_completed"`
	ProjectedCompletionDate *time.Time           `json:"projected_completion_date,omitempty"`
	DeadlineDeltaDays       *int                 `json:"deadline_delta_days,omitempty"`
}
