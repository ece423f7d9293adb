package analytics

import "github.com/mlechner/polier/internal/domain"

// Thresholds carries the tunable limits the status rules compare
// against. DefaultThresholds matches operational experience; tests
// override individual fields to probe rule boundaries.
type Thresholds struct {
	// CriticalOvershootDays: a forecast this far past the deadline is
	// beyond normal re-planning and flags critical.
	CriticalOvershootDays int
	// NearMissBandDays: a forecast landing within this many days before
	// the deadline leaves no buffer and flags at_risk.
	NearMissBandDays int
	// StalledGapPercent: with no measurable burn rate, a progress score
	// this far below the elapsed-time expectation flags critical.
	StalledGapPercent float64
	// LagGapPercent: a downward trend combined with progress this far
	// below expectation flags behind rather than merely at_risk.
	LagGapPercent float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalOvershootDays: 14,
		NearMissBandDays:      3,
		StalledGapPercent:     25,
		LagGapPercent:         10,
	}
}

// ClassifyInput gathers everything the status rules look at for one
// phase. Nullable fields stay nil when the snapshot history was too
// short to compute them.
type ClassifyInput struct {
	ProgressPercent    float64
	TimeElapsedPercent float64
	BurnRate           *float64
	Trend              *domain.TrendDirection
	DeadlineDeltaDays  *int
}

// Classify applies the status rules in severity order and returns the
// first that matches. The ordering is load-bearing: completed wins over
// everything, critical over behind, behind over at_risk.
func Classify(in ClassifyInput, th Thresholds) domain.InsightStatus {
	if in.ProgressPercent >= 100 {
		return domain.StatusCompleted
	}

	overshoot := in.DeadlineDeltaDays != nil && *in.DeadlineDeltaDays > th.CriticalOvershootDays
	stalled := in.BurnRate == nil && in.TimeElapsedPercent-in.ProgressPercent > th.StalledGapPercent
	if overshoot || stalled {
		return domain.StatusCritical
	}

	trendDown := in.Trend != nil && *in.Trend == domain.TrendDown
	late := in.DeadlineDeltaDays != nil && *in.DeadlineDeltaDays > 0
	lagging := trendDown && in.TimeElapsedPercent-in.ProgressPercent > th.LagGapPercent
	if late || lagging {
		return domain.StatusBehind
	}

	nearMiss := in.DeadlineDeltaDays != nil && *in.DeadlineDeltaDays >= -th.NearMissBandDays
	if trendDown || nearMiss {
		return domain.StatusAtRisk
	}

	return domain.StatusOnTrack
}
