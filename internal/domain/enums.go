package domain

// InsightStatus is the discrete risk classification of a phase or project.
type InsightStatus string

const (
	StatusOnTrack   InsightStatus = "on_track"
	StatusAtRisk    InsightStatus = "at_risk"
	StatusBehind    InsightStatus = "behind"
	StatusCritical  InsightStatus = "critical"
	StatusCompleted InsightStatus = "completed"
)

// StatusSeverity orders statuses for risk sorting. Higher means worse.
func StatusSeverity(s InsightStatus) int {
	switch s {
	case StatusCritical:
		return 4
	case StatusBehind:
		return 3
	case StatusAtRisk:
		return 2
	case StatusOnTrack:
		return 1
	case StatusCompleted:
		return 0
	default:
		return 0
	}
}

// TrendDirection describes how the burn rate changed across the snapshot window.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// RunState tracks the lifecycle of a pipeline run.
type RunState string

const (
	RunPending             RunState = "pending"
	RunRunning             RunState = "running"
	RunCompleted           RunState = "completed"
	RunCompletedWithErrors RunState = "completed_with_errors"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectPaused   ProjectStatus = "paused"
	ProjectDone     ProjectStatus = "done"
	ProjectArchived ProjectStatus = "archived"
)

type PhaseStatus string

const (
	PhasePlanned  PhaseStatus = "planned"
	PhaseActive   PhaseStatus = "active"
	PhaseDone     PhaseStatus = "done"
	PhaseArchived PhaseStatus = "archived"
)

// WeatherRating grades construction-site conditions for a day.
type WeatherRating string

const (
	WeatherGood WeatherRating = "good"
	WeatherFair WeatherRating = "fair"
	WeatherPoor WeatherRating = "poor"
)
