package analytics

import (
	"math"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

const (
	// minSnapshots is the floor below which no trend output is possible.
	minSnapshots = 2
	// regressionMinSnapshots is the point count from which the burn rate
	// switches from average delta to a least-squares fit.
	regressionMinSnapshots = 4
	// trendTolerance is the relative change between the earliest and the
	// most recent third of the window that counts as a real shift.
	trendTolerance = 0.10
)

// TrendResult holds burn rate, trend direction and completion forecast
// for one phase. All fields are nil when the snapshot history is too
// short (fewer than two snapshots).
type TrendResult struct {
	BurnRateIst            *float64
	Trend                  *domain.TrendDirection
	ForecastCompletionDate *time.Time
}

// ComputeTrend derives burn rate, trend and forecast from a phase's
// snapshot history, ordered oldest to newest. asOf anchors the forecast.
func ComputeTrend(history []*domain.PhaseSnapshot, asOf time.Time) TrendResult {
	if len(history) < minSnapshots {
		return TrendResult{}
	}

	burnRate := burnRateOf(history)
	trend := classifyTrend(history)

	result := TrendResult{
		BurnRateIst: &burnRate,
		Trend:       &trend,
	}

	latest := history[len(history)-1]
	remaining := latest.SollHours - latest.IstHours

	switch {
	case remaining <= 0:
		// At or over budget: the phase cannot burn further hours toward
		// its target, so the forecast collapses to asOf.
		forecast := asOf
		result.ForecastCompletionDate = &forecast
	case burnRate <= 0:
		// No progress, nothing to extrapolate from.
	default:
		days := int(math.Ceil(remaining / burnRate))
		forecast := asOf.AddDate(0, 0, days)
		result.ForecastCompletionDate = &forecast
	}

	return result
}

// burnRateOf computes IST hours gained per calendar day over the window.
// Uses least squares from regressionMinSnapshots points; below that a
// simple first-to-last average delta is stable enough.
func burnRateOf(history []*domain.PhaseSnapshot) float64 {
	if len(history) < regressionMinSnapshots {
		return averageDelta(history)
	}

	first := history[0].SnapshotDate
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(history))
	for _, s := range history {
		x := elapsedDays(first, s.SnapshotDate)
		y := s.IstHours
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return averageDelta(history)
	}
	return (n*sumXY - sumX*sumY) / denom
}

func averageDelta(history []*domain.PhaseSnapshot) float64 {
	first := history[0]
	last := history[len(history)-1]
	days := elapsedDays(first.SnapshotDate, last.SnapshotDate)
	if days <= 0 {
		return 0
	}
	return (last.IstHours - first.IstHours) / days
}

// classifyTrend compares the burn rate of the most recent third of the
// window against the earliest third. Windows too short for two-point
// segments are reported as stable.
func classifyTrend(history []*domain.PhaseSnapshot) domain.TrendDirection {
	segment := len(history) / 3
	if segment < minSnapshots {
		return domain.TrendStable
	}

	earlyRate := averageDelta(history[:segment])
	recentRate := averageDelta(history[len(history)-segment:])

	if earlyRate == 0 {
		if recentRate > 0 {
			return domain.TrendUp
		}
		return domain.TrendStable
	}

	relative := (recentRate - earlyRate) / math.Abs(earlyRate)
	switch {
	case relative > trendTolerance:
		return domain.TrendUp
	case relative < -trendTolerance:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

func elapsedDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// DeadlineDelta returns forecast minus deadline in whole days; positive
// means the forecast lands after the deadline. Nil when either side is
// missing.
func DeadlineDelta(forecast, deadline *time.Time) *int {
	if forecast == nil || deadline == nil {
		return nil
	}
	delta := int(math.Round(forecast.Sub(*deadline).Hours() / 24))
	return &delta
}
