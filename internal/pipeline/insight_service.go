package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mlechner/polier/internal/analytics"
	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/intelligence"
	"github.com/mlechner/polier/internal/repository"
	"github.com/mlechner/polier/internal/weather"
)

const (
	// topRiskProjects caps the tenant dashboard risk list.
	topRiskProjects = 3
	// availabilityLookaheadDays is the window availability enrichment
	// looks at for troubled phases.
	availabilityLookaheadDays = 14
	// weatherLookaheadDays is the forecast horizon for site weather.
	weatherLookaheadDays = 7
)

// InsightService derives phase, project and tenant insights from the
// snapshot history.
type InsightService struct {
	tenants    repository.TenantRepo
	projects   repository.ProjectRepo
	phases     repository.PhaseRepo
	hours      repository.HoursRepo
	snapshots  repository.SnapshotRepo
	insights   repository.InsightRepo
	narratives intelligence.NarrativeService
	weather    weather.Provider
	observer   RunObserver
	thresholds analytics.Thresholds
	budget     time.Duration
	now        func() time.Time
}

func NewInsightService(
	tenants repository.TenantRepo,
	projects repository.ProjectRepo,
	phases repository.PhaseRepo,
	hours repository.HoursRepo,
	snapshots repository.SnapshotRepo,
	insights repository.InsightRepo,
	narratives intelligence.NarrativeService,
	weatherProvider weather.Provider,
	observer RunObserver,
) *InsightService {
	return &InsightService{
		tenants:    tenants,
		projects:   projects,
		phases:     phases,
		hours:      hours,
		snapshots:  snapshots,
		insights:   insights,
		narratives: narratives,
		weather:    weatherProvider,
		observer:   observerOrNoop(observer),
		thresholds: analytics.DefaultThresholds(),
		budget:     DefaultRunBudget,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *InsightService) SetRunBudget(d time.Duration) {
	if d > 0 {
		s.budget = d
	}
}

// SetNow overrides the clock, for deterministic tests.
func (s *InsightService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RunInsights rebuilds insights for every tenant.
func (s *InsightService) RunInsights(ctx context.Context) (*InsightReport, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return s.run(ctx, tenants), nil
}

// RunTenantInsights rebuilds insights for one tenant only.
func (s *InsightService) RunTenantInsights(ctx context.Context, tenantID string) (*InsightReport, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading tenant: %w", err)
	}
	return s.run(ctx, []*domain.Tenant{tenant}), nil
}

func (s *InsightService) run(ctx context.Context, tenants []*domain.Tenant) *InsightReport {
	start := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	report := &InsightReport{
		State:     domain.RunRunning,
		StartedAt: start,
	}

	budgetHit := false
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			budgetHit = true
			break
		}
		report.TenantsSeen++
		s.runTenant(ctx, tenant, report)
	}

	if budgetHit {
		report.Errors = append(report.Errors, UnitError{
			Unit:    "tenant_summary",
			Message: "run budget exceeded, remaining units skipped",
		})
	}
	report.FinishedAt = s.now()
	report.State = finalState(report.Errors)

	s.observer.ObserveRun(ctx, RunEvent{
		Name:      "run_insights",
		StartedAt: start,
		Duration:  report.FinishedAt.Sub(start),
		Success:   report.State == domain.RunCompleted,
		Fields: map[string]any{
			"tenants":          report.TenantsSeen,
			"projects":         report.ProjectsSeen,
			"phase_insights":   report.PhaseInsights,
			"project_insights": report.ProjectInsights,
			"errors":           len(report.Errors),
		},
	})
	return report
}

func (s *InsightService) runTenant(ctx context.Context, tenant *domain.Tenant, report *InsightReport) {
	projects, err := s.projects.ListActiveByTenant(ctx, tenant.ID)
	if err != nil {
		report.Errors = append(report.Errors, UnitError{
			TenantID: tenant.ID,
			Unit:     "project_insight",
			Message:  fmt.Sprintf("listing projects: %v", err),
		})
		return
	}

	var projectInsights []*domain.ProjectInsight
	var allPhaseInsights []*domain.PhaseInsight
	for _, project := range projects {
		if ctx.Err() != nil {
			return
		}
		report.ProjectsSeen++

		projectInsight, phaseInsights, err := s.buildProject(ctx, project, report)
		if err != nil {
			report.Errors = append(report.Errors, UnitError{
				TenantID: tenant.ID,
				Unit:     "project_insight",
				Message:  fmt.Sprintf("project %s: %v", project.ID, err),
			})
			continue
		}
		report.ProjectInsights++
		projectInsights = append(projectInsights, projectInsight)
		allPhaseInsights = append(allPhaseInsights, phaseInsights...)
	}

	summary := s.BuildTenantSummary(tenant, projects, projectInsights, allPhaseInsights)
	if err := s.insights.UpsertTenantSummary(ctx, summary); err != nil {
		report.Errors = append(report.Errors, UnitError{
			TenantID: tenant.ID,
			Unit:     "tenant_summary",
			Message:  err.Error(),
		})
		return
	}
	report.TenantSummaries++
}

func (s *InsightService) buildProject(ctx context.Context, project *domain.Project, report *InsightReport) (*domain.ProjectInsight, []*domain.PhaseInsight, error) {
	phases, err := s.phases.ListActiveByProject(ctx, project.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing phases: %w", err)
	}

	var insights []*domain.PhaseInsight
	var insightPhases []*domain.Phase
	for _, phase := range phases {
		insight, err := s.BuildPhaseInsight(ctx, project, phase)
		if err != nil {
			report.Errors = append(report.Errors, UnitError{
				TenantID: project.TenantID,
				PhaseID:  phase.ID,
				Unit:     "phase_insight",
				Message:  err.Error(),
			})
			continue
		}
		if err := s.insights.InsertPhaseInsight(ctx, insight); err != nil {
			report.Errors = append(report.Errors, UnitError{
				TenantID: project.TenantID,
				PhaseID:  phase.ID,
				Unit:     "phase_insight",
				Message:  fmt.Sprintf("storing insight: %v", err),
			})
			continue
		}
		report.PhaseInsights++
		insights = append(insights, insight)
		insightPhases = append(insightPhases, phase)
	}

	projectInsight := s.BuildProjectInsight(ctx, project, insightPhases, insights)
	if err := s.insights.InsertProjectInsight(ctx, projectInsight); err != nil {
		return nil, insights, fmt.Errorf("storing project insight: %w", err)
	}
	return projectInsight, insights, nil
}

// BuildPhaseInsight computes one phase's insight from its snapshot
// history. Fails only when the history or hours cannot be read;
// narrative and enrichment failures degrade to fallbacks.
func (s *InsightService) BuildPhaseInsight(ctx context.Context, project *domain.Project, phase *domain.Phase) (*domain.PhaseInsight, error) {
	history, err := s.snapshots.History(ctx, phase.ID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot history: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no snapshots yet")
	}

	now := s.now()
	asOf := history[len(history)-1].SnapshotDate
	latest := history[len(history)-1]
	trend := analytics.ComputeTrend(history, asOf)

	phaseDeadline := phase.EndDate
	deadlineDelta := analytics.DeadlineDelta(trend.ForecastCompletionDate, &phaseDeadline)

	progress := latest.ProgressPercent()
	status := analytics.Classify(analytics.ClassifyInput{
		ProgressPercent:    progress,
		TimeElapsedPercent: timeElapsedPercent(phase.StartDate, phase.EndDate, asOf),
		BurnRate:           trend.BurnRateIst,
		Trend:              trend.Trend,
		DeadlineDeltaDays:  deadlineDelta,
	}, s.thresholds)

	facts := intelligence.PhaseFacts{
		PhaseName:         phase.Name,
		ProjectName:       project.Name,
		Status:            status,
		ProgressPercent:   progress,
		RemainingHours:    latest.RemainingHours(),
		BurnRatePerDay:    trend.BurnRateIst,
		ForecastDate:      trend.ForecastCompletionDate,
		DeadlineDeltaDays: deadlineDelta,
	}
	if trend.Trend != nil {
		t := string(*trend.Trend)
		facts.Trend = &t
	}
	if domain.StatusSeverity(status) >= domain.StatusSeverity(domain.StatusAtRisk) && status != domain.StatusCompleted {
		s.enrichFacts(ctx, phase, &facts)
	}

	texts := s.narratives.GeneratePhaseTexts(ctx, facts)

	return &domain.PhaseInsight{
		ID:                     uuid.New().String(),
		TenantID:               phase.TenantID,
		PhaseID:                phase.ID,
		GeneratedAt:            now,
		Status:                 status,
		BurnRateIst:            trend.BurnRateIst,
		BurnRateTrend:          trend.Trend,
		ForecastCompletionDate: trend.ForecastCompletionDate,
		DeadlineDeltaDays:      deadlineDelta,
		ProgressPercent:        progress,
		SummaryText:            texts.Summary,
		DetailText:             texts.Detail,
		RecommendationText:     texts.Recommendation,
	}, nil
}

// enrichFacts adds availability and weather context for troubled
// phases. Failures here never block the insight.
func (s *InsightService) enrichFacts(ctx context.Context, phase *domain.Phase, facts *intelligence.PhaseFacts) {
	from := s.now().Truncate(24 * time.Hour)
	window := analytics.Window{From: from, To: from.AddDate(0, 0, availabilityLookaheadDays-1)}

	userIDs, err := s.hours.AssignedUserIDs(ctx, phase.ID)
	if err == nil && len(userIDs) > 0 {
		allocations, aerr := s.hours.ListAllocationsForUsers(ctx, phase.TenantID, userIDs, window.From, window.To)
		absences, berr := s.hours.ListAbsencesForUsers(ctx, phase.TenantID, userIDs, window.From, window.To)
		if aerr == nil && berr == nil {
			team := analytics.AnalyzeAvailability(userIDs, window, allocations, absences, analytics.DefaultWeeklyCapacityHours)
			facts.TeamFreeHours = &team.TotalFreeHours
		}
	}

	if s.weather != nil && phase.Latitude != nil && phase.Longitude != nil {
		forecast, err := s.weather.Forecast(ctx, *phase.Latitude, *phase.Longitude, weatherLookaheadDays)
		if err == nil {
			poor := weather.PoorDays(forecast)
			facts.PoorWeatherDays = &poor
		}
	}
}

// BuildProjectInsight rolls phase insights up into a project insight.
// Progress is weighted by each phase's SOLL budget so a 900h phase
// dominates a 100h one.
func (s *InsightService) BuildProjectInsight(ctx context.Context, project *domain.Project, phases []*domain.Phase, phaseInsights []*domain.PhaseInsight) *domain.ProjectInsight {
	insight := &domain.ProjectInsight{
		ID:          uuid.New().String(),
		TenantID:    project.TenantID,
		ProjectID:   project.ID,
		GeneratedAt: s.now(),
		PhasesTotal: len(phaseInsights),
	}

	var weightedProgress, totalSoll float64
	var projected *time.Time
	forecastMissing := false
	for i, pi := range phaseInsights {
		switch pi.Status {
		case domain.StatusOnTrack:
			insight.PhasesOnTrack++
		case domain.StatusAtRisk:
			insight.PhasesAtRisk++
		case domain.StatusBehind:
			insight.PhasesBehind++
		case domain.StatusCritical:
			insight.PhasesCritical++
		case domain.StatusCompleted:
			insight.PhasesCompleted++
		}

		soll := phases[i].SollHours
		weightedProgress += soll * pi.ProgressPercent
		totalSoll += soll

		if pi.ProgressPercent < 100 {
			// Only phases with outstanding hours push the projection.
			if pi.ForecastCompletionDate == nil {
				forecastMissing = true
			} else if projected == nil || pi.ForecastCompletionDate.After(*projected) {
				projected = pi.ForecastCompletionDate
			}
		}
	}
	if totalSoll > 0 {
		insight.OverallProgressPercent = weightedProgress / totalSoll
	}
	if !forecastMissing {
		insight.ProjectedCompletionDate = projected
	}
	insight.DeadlineDeltaDays = analytics.DeadlineDelta(insight.ProjectedCompletionDate, project.Deadline)
	insight.Status = projectStatus(insight)

	facts := intelligence.ProjectFacts{
		ProjectName:             project.Name,
		Status:                  insight.Status,
		OverallProgressPercent:  insight.OverallProgressPercent,
		PhasesTotal:             insight.PhasesTotal,
		PhasesOnTrack:           insight.PhasesOnTrack,
		PhasesAtRisk:            insight.PhasesAtRisk,
		PhasesBehind:            insight.PhasesBehind,
		PhasesCritical:          insight.PhasesCritical,
		PhasesCompleted:         insight.PhasesCompleted,
		ProjectedCompletionDate: insight.ProjectedCompletionDate,
		DeadlineDeltaDays:       insight.DeadlineDeltaDays,
	}
	texts := s.narratives.GenerateProjectTexts(ctx, facts)
	insight.SummaryText = texts.Summary
	insight.DetailText = texts.Detail
	insight.RecommendationText = texts.Recommendation
	if forecastMissing {
		insight.DetailText += " Projected completion is unavailable: at least one open phase has no forecast yet."
	}
	return insight
}

// projectStatus derives the project status from its phase mix: the
// worst open phase wins, completed only when every phase is done.
func projectStatus(in *domain.ProjectInsight) domain.InsightStatus {
	switch {
	case in.PhasesTotal > 0 && in.PhasesCompleted == in.PhasesTotal:
		return domain.StatusCompleted
	case in.PhasesCritical > 0:
		return domain.StatusCritical
	case in.PhasesBehind > 0:
		return domain.StatusBehind
	case in.PhasesAtRisk > 0:
		return domain.StatusAtRisk
	default:
		return domain.StatusOnTrack
	}
}

// BuildTenantSummary condenses a tenant's project insights into the
// dashboard read model.
func (s *InsightService) BuildTenantSummary(tenant *domain.Tenant, projects []*domain.Project, projectInsights []*domain.ProjectInsight, phaseInsights []*domain.PhaseInsight) *domain.TenantSummary {
	summary := &domain.TenantSummary{
		TenantID:      tenant.ID,
		GeneratedAt:   s.now(),
		ProjectsTotal: len(projectInsights),
	}

	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	var progressSum float64
	var risky []domain.RiskProjectRef
	for _, pi := range projectInsights {
		progressSum += pi.OverallProgressPercent
		summary.CriticalPhases += pi.PhasesCritical

		if domain.StatusSeverity(pi.Status) >= domain.StatusSeverity(domain.StatusAtRisk) && pi.Status != domain.StatusCompleted {
			summary.ProjectsAtRisk++
			risky = append(risky, domain.RiskProjectRef{
				ProjectID:     pi.ProjectID,
				ProjectName:   projectNames[pi.ProjectID],
				Status:        pi.Status,
				PhasesAtRisk:  pi.PhasesAtRisk + pi.PhasesBehind + pi.PhasesCritical,
				ProgressPct:   pi.OverallProgressPercent,
				DeadlineDelta: pi.DeadlineDeltaDays,
			})
		} else if pi.Status == domain.StatusOnTrack {
			summary.ProjectsOnTrack++
		}
	}
	if len(projectInsights) > 0 {
		summary.AvgProgressPercent = progressSum / float64(len(projectInsights))
	}
	summary.BurnRateTrend = dominantTrend(phaseInsights)

	sort.SliceStable(risky, func(i, j int) bool {
		if domain.StatusSeverity(risky[i].Status) != domain.StatusSeverity(risky[j].Status) {
			return domain.StatusSeverity(risky[i].Status) > domain.StatusSeverity(risky[j].Status)
		}
		return risky[i].PhasesAtRisk > risky[j].PhasesAtRisk
	})
	if len(risky) > topRiskProjects {
		risky = risky[:topRiskProjects]
	}
	summary.TopRiskProjects = risky
	return summary
}

// dominantTrend picks the most common non-nil phase trend.
func dominantTrend(phaseInsights []*domain.PhaseInsight) *domain.TrendDirection {
	counts := make(map[domain.TrendDirection]int)
	for _, pi := range phaseInsights {
		if pi.BurnRateTrend != nil {
			counts[*pi.BurnRateTrend]++
		}
	}
	var best *domain.TrendDirection
	bestCount := 0
	for _, dir := range []domain.TrendDirection{domain.TrendDown, domain.TrendStable, domain.TrendUp} {
		if counts[dir] > bestCount {
			bestCount = counts[dir]
			d := dir
			best = &d
		}
	}
	return best
}

// timeElapsedPercent locates asOf inside the phase window, clamped to
// [0, 100].
func timeElapsedPercent(start, end, asOf time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	pct := asOf.Sub(start).Hours() / total.Hours() * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
