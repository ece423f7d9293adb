package formatter

import (
	"fmt"
	"strings"

	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/pipeline"
)

// FormatSnapshotReport renders a snapshot run for the terminal.
func FormatSnapshotReport(report *pipeline.SnapshotReport) string {
	var b strings.Builder
	b.WriteString(Header("Snapshot run"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  as of %s\n", runStateIndicator(report.State), report.AsOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "  Tenants: %d   Phases: %d\n", report.TenantsSeen, report.PhasesSeen)
	fmt.Fprintf(&b, "  Created: %s   Skipped existing: %s\n",
		StyleGreen.Render(fmt.Sprintf("%d", report.Created)),
		Dim(fmt.Sprintf("%d", report.SkippedExisting)))
	b.WriteString(formatUnitErrors(report.Errors))
	return b.String()
}

// FormatInsightReport renders an insight run for the terminal.
func FormatInsightReport(report *pipeline.InsightReport) string {
	var b strings.Builder
	b.WriteString(Header("Insight run"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n", runStateIndicator(report.State))
	fmt.Fprintf(&b, "  Tenants: %d   Projects: %d\n", report.TenantsSeen, report.ProjectsSeen)
	fmt.Fprintf(&b, "  Phase insights: %d   Project insights: %d   Summaries: %d\n",
		report.PhaseInsights, report.ProjectInsights, report.TenantSummaries)
	b.WriteString(formatUnitErrors(report.Errors))
	return b.String()
}

// FormatTenantSummary renders the dashboard read model.
func FormatTenantSummary(name string, summary *domain.TenantSummary) string {
	var b strings.Builder
	b.WriteString(Header("Tenant " + name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Projects: %d   On track: %s   At risk: %s   Critical phases: %s\n",
		summary.ProjectsTotal,
		StyleGreen.Render(fmt.Sprintf("%d", summary.ProjectsOnTrack)),
		StyleYellow.Render(fmt.Sprintf("%d", summary.ProjectsAtRisk)),
		StyleRed.Render(fmt.Sprintf("%d", summary.CriticalPhases)))
	fmt.Fprintf(&b, "  Average progress: %.0f%%", summary.AvgProgressPercent)
	if summary.BurnRateTrend != nil {
		fmt.Fprintf(&b, "   Trend: %s", trendArrow(*summary.BurnRateTrend))
	}
	b.WriteString("\n")

	if len(summary.TopRiskProjects) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Top risk projects"))
		b.WriteString("\n")
		rows := make([][]string, 0, len(summary.TopRiskProjects))
		for _, rp := range summary.TopRiskProjects {
			delta := Dim("–")
			if rp.DeadlineDelta != nil {
				delta = fmt.Sprintf("%+dd", *rp.DeadlineDelta)
			}
			rows = append(rows, []string{
				rp.ProjectName,
				StatusIndicator(rp.Status),
				fmt.Sprintf("%d", rp.PhasesAtRisk),
				fmt.Sprintf("%.0f%%", rp.ProgressPct),
				delta,
			})
		}
		b.WriteString(RenderTable([]string{"Project", "Status", "Troubled phases", "Progress", "Deadline"}, rows))
	}
	return b.String()
}

// FormatRefreshResult renders the outcome of a manual refresh.
func FormatRefreshResult(result *pipeline.RefreshResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s refreshed at %s\n",
		StyleGreen.Render("✓"), result.LastRefreshAt.Format("15:04:05"))
	if result.Snapshots != nil {
		fmt.Fprintf(&b, "  Snapshots created: %d, skipped: %d\n",
			result.Snapshots.Created, result.Snapshots.SkippedExisting)
	}
	if result.Insights != nil {
		fmt.Fprintf(&b, "  Phase insights: %d, project insights: %d\n",
			result.Insights.PhaseInsights, result.Insights.ProjectInsights)
	}
	return b.String()
}

func runStateIndicator(state domain.RunState) string {
	switch state {
	case domain.RunCompleted:
		return StyleGreen.Render("● COMPLETED")
	case domain.RunCompletedWithErrors:
		return StyleYellow.Render("● COMPLETED WITH ERRORS")
	case domain.RunRunning:
		return StyleBlue.Render("● RUNNING")
	default:
		return StyleDim.Render("● " + strings.ToUpper(string(state)))
	}
}

func formatUnitErrors(errs []pipeline.UnitError) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n", StyleRed.Render(fmt.Sprintf("%d unit error(s):", len(errs))))
	for _, e := range errs {
		fmt.Fprintf(&b, "    %s\n", Dim(e.Error()))
	}
	return b.String()
}

func trendArrow(t domain.TrendDirection) string {
	switch t {
	case domain.TrendUp:
		return StyleGreen.Render("▲ up")
	case domain.TrendDown:
		return StyleRed.Render("▼ down")
	default:
		return Dim("▬ stable")
	}
}
