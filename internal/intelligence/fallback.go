package intelligence

import (
	"fmt"
	"strings"

	"github.com/mlechner/polier/internal/domain"
)

// DeterministicPhaseTexts builds narrative texts directly from the
// facts without a language model. Used when the LLM is disabled,
// unreachable, or returns unusable output.
func DeterministicPhaseTexts(facts PhaseFacts) *NarrativeTexts {
	summary := fmt.Sprintf("Phase %q in project %q is %s at %.0f%% progress.",
		facts.PhaseName, facts.ProjectName, statusLabel(facts.Status), facts.ProgressPercent)

	var detail strings.Builder
	fmt.Fprintf(&detail, "%.0f hours remain against the planned budget.", facts.RemainingHours)
	if facts.BurnRatePerDay != nil {
		fmt.Fprintf(&detail, " Recent pace is %.1f hours per day", *facts.BurnRatePerDay)
		if facts.Trend != nil {
			fmt.Fprintf(&detail, " and trending %s", trendLabel(*facts.Trend))
		}
		detail.WriteString(".")
	}
	if facts.ForecastDate != nil {
		fmt.Fprintf(&detail, " At this pace the phase completes around %s", facts.ForecastDate.Format("2006-01-02"))
		if facts.DeadlineDeltaDays != nil {
			switch {
			case *facts.DeadlineDeltaDays > 0:
				fmt.Fprintf(&detail, ", %d day(s) past the deadline", *facts.DeadlineDeltaDays)
			case *facts.DeadlineDeltaDays < 0:
				fmt.Fprintf(&detail, ", %d day(s) before the deadline", -*facts.DeadlineDeltaDays)
			default:
				detail.WriteString(", exactly on the deadline")
			}
		}
		detail.WriteString(".")
	}
	if detail.Len() == 0 {
		detail.WriteString("Not enough snapshot history yet for a pace or completion estimate.")
	}

	return &NarrativeTexts{
		Summary:        summary,
		Detail:         detail.String(),
		Recommendation: phaseRecommendation(facts),
	}
}

func phaseRecommendation(facts PhaseFacts) string {
	switch facts.Status {
	case domain.StatusCompleted:
		return "Close out the phase and release the crew for upcoming work."
	case domain.StatusCritical:
		rec := "Escalate now: re-plan the phase or shift the deadline."
		if facts.TeamFreeHours != nil && *facts.TeamFreeHours > 0 {
			rec = fmt.Sprintf("Escalate now: the crew has %.0f free hours in the coming weeks that could be pulled in.", *facts.TeamFreeHours)
		}
		return rec
	case domain.StatusBehind, domain.StatusAtRisk:
		rec := "Review staffing for this phase before the backlog grows."
		if facts.TeamFreeHours != nil && *facts.TeamFreeHours > 0 {
			rec = fmt.Sprintf("Consider adding capacity: the crew has %.0f free hours available in the coming weeks.", *facts.TeamFreeHours)
		}
		if facts.PoorWeatherDays != nil && *facts.PoorWeatherDays > 0 {
			rec += fmt.Sprintf(" Note %d day(s) of poor weather ahead at the site.", *facts.PoorWeatherDays)
		}
		return rec
	default:
		return "No action needed; keep the current pace."
	}
}

// DeterministicProjectTexts builds a project rollup narrative from the
// facts without a language model.
func DeterministicProjectTexts(facts ProjectFacts) *NarrativeTexts {
	summary := fmt.Sprintf("Project %q is %s at %.0f%% overall progress across %d phase(s).",
		facts.ProjectName, statusLabel(facts.Status), facts.OverallProgressPercent, facts.PhasesTotal)

	var detail strings.Builder
	fmt.Fprintf(&detail, "Phase breakdown: %d on track, %d at risk, %d behind, %d critical, %d completed.",
		facts.PhasesOnTrack, facts.PhasesAtRisk, facts.PhasesBehind, facts.PhasesCritical, facts.PhasesCompleted)
	if facts.ProjectedCompletionDate != nil {
		fmt.Fprintf(&detail, " Projected completion is %s", facts.ProjectedCompletionDate.Format("2006-01-02"))
		if facts.DeadlineDeltaDays != nil && *facts.DeadlineDeltaDays > 0 {
			fmt.Fprintf(&detail, ", %d day(s) past the project deadline", *facts.DeadlineDeltaDays)
		}
		detail.WriteString(".")
	}

	rec := "No action needed; keep the current pace."
	troubled := facts.PhasesCritical + facts.PhasesBehind
	switch {
	case facts.Status == domain.StatusCompleted:
		rec = "All phases are done; archive the project after the final review."
	case facts.PhasesCritical > 0:
		rec = fmt.Sprintf("Start with the %d critical phase(s); they drive the projected completion date.", facts.PhasesCritical)
	case troubled > 0:
		rec = fmt.Sprintf("Review the %d phase(s) running behind before they push the completion date.", troubled)
	case facts.PhasesAtRisk > 0:
		rec = fmt.Sprintf("Keep an eye on the %d at-risk phase(s) in the next review.", facts.PhasesAtRisk)
	}

	return &NarrativeTexts{
		Summary:        summary,
		Detail:         detail.String(),
		Recommendation: rec,
	}
}

func statusLabel(s domain.InsightStatus) string {
	switch s {
	case domain.StatusOnTrack:
		return "on track"
	case domain.StatusAtRisk:
		return "at risk"
	case domain.StatusBehind:
		return "behind schedule"
	case domain.StatusCritical:
		return "in critical condition"
	case domain.StatusCompleted:
		return "completed"
	default:
		return string(s)
	}
}

func trendLabel(t string) string {
	switch t {
	case "up":
		return "upward"
	case "down":
		return "downward"
	default:
		return "flat"
	}
}
