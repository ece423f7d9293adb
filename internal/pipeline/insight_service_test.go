package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/testutil"
)

func TestRunInsights_BurnRateScenario(t *testing.T) {
	// Three snapshots at 10/20/30 of an 80h budget burn 10h/day, so
	// completion lands five days after the last snapshot. With the
	// phase ending two days earlier the phase is behind.
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant, testutil.WithDeadline(testutil.Day(5)))
	phase := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(5)))
	e.seedSnapshot(t, phase, testutil.Day(0), testutil.WithIstHours(10))
	e.seedSnapshot(t, phase, testutil.Day(1), testutil.WithIstHours(20))
	e.seedSnapshot(t, phase, testutil.Day(2), testutil.WithIstHours(30))

	e.insightSvc.SetNow(fixedNow(testutil.Day(2)))
	report, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, report.State)
	assert.Equal(t, 1, report.PhaseInsights)

	insight, err := e.insights.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)

	require.NotNil(t, insight.BurnRateIst)
	assert.InDelta(t, 10, *insight.BurnRateIst, 0.001)
	require.NotNil(t, insight.ForecastCompletionDate)
	assert.Equal(t, testutil.Day(7), *insight.ForecastCompletionDate)
	require.NotNil(t, insight.DeadlineDeltaDays)
	assert.Equal(t, 2, *insight.DeadlineDeltaDays)
	assert.Equal(t, domain.StatusBehind, insight.Status)
	assert.NotEmpty(t, insight.SummaryText)
	assert.NotEmpty(t, insight.RecommendationText)
}

func TestRunInsights_SingleSnapshotHasNilOutputs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant)
	phase := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-1), testutil.Day(30)))
	e.seedSnapshot(t, phase, testutil.Day(0), testutil.WithIstHours(10))

	e.insightSvc.SetNow(fixedNow(testutil.Day(0)))
	_, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	insight, err := e.insights.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)
	assert.Nil(t, insight.BurnRateIst)
	assert.Nil(t, insight.BurnRateTrend)
	assert.Nil(t, insight.ForecastCompletionDate)
	assert.Nil(t, insight.DeadlineDeltaDays)
	assert.NotEmpty(t, insight.SummaryText)
}

func TestRunInsights_CompletedRegardlessOfTrend(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant)
	phase := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-20), testutil.Day(1)))
	e.seedSnapshot(t, phase, testutil.Day(0), testutil.WithIstHours(78))
	e.seedSnapshot(t, phase, testutil.Day(1), testutil.WithIstHours(80))

	e.insightSvc.SetNow(fixedNow(testutil.Day(1)))
	_, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	insight, err := e.insights.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, insight.Status)
}

func TestRunInsights_WeightedProjectProgress(t *testing.T) {
	// A 100h phase at 0% and a 900h phase at 100% average to 90%, not
	// to the unweighted 50%.
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant)
	small := e.seedPhase(t, project, "Klein",
		testutil.WithSollHours(100),
		testutil.WithPhaseDates(testutil.Day(-1), testutil.Day(60)))
	big := e.seedPhase(t, project, "Gross",
		testutil.WithSollHours(900),
		testutil.WithPhaseDates(testutil.Day(-30), testutil.Day(10)))
	e.seedSnapshot(t, small, testutil.Day(0), testutil.WithIstHours(0))
	e.seedSnapshot(t, big, testutil.Day(0), testutil.WithIstHours(900))

	e.insightSvc.SetNow(fixedNow(testutil.Day(0)))
	_, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	insight, err := e.insights.LatestProjectInsight(ctx, project.ID)
	require.NoError(t, err)
	assert.InDelta(t, 90, insight.OverallProgressPercent, 0.001)
	assert.Equal(t, 2, insight.PhasesTotal)
	assert.Equal(t, 1, insight.PhasesCompleted)

	// The open phase has no forecast, so the projection is withheld
	// and the detail text says so.
	assert.Nil(t, insight.ProjectedCompletionDate)
	assert.Contains(t, insight.DetailText, "no forecast")
}

func TestRunInsights_ProjectForecastIsMaxOpenPhaseForecast(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant, testutil.WithDeadline(testutil.Day(30)))
	early := e.seedPhase(t, project, "Schnell",
		testutil.WithSollHours(40),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(20)))
	late := e.seedPhase(t, project, "Langsam",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(20)))
	// 10h/day with 20h left: done in 2 days.
	e.seedSnapshot(t, early, testutil.Day(0), testutil.WithIstHours(10))
	e.seedSnapshot(t, early, testutil.Day(1), testutil.WithIstHours(20))
	// 5h/day with 70h left: done in 14 days.
	e.seedSnapshot(t, late, testutil.Day(0), testutil.WithIstHours(5))
	e.seedSnapshot(t, late, testutil.Day(1), testutil.WithIstHours(10))

	e.insightSvc.SetNow(fixedNow(testutil.Day(1)))
	_, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	insight, err := e.insights.LatestProjectInsight(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, insight.ProjectedCompletionDate)
	assert.Equal(t, testutil.Day(15), *insight.ProjectedCompletionDate)
}

func TestRunInsights_PhaseWithoutSnapshotsIsUnitError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant)
	bare := e.seedPhase(t, project, "Leer",
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(20)))
	good := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(20)))
	e.seedSnapshot(t, good, testutil.Day(0), testutil.WithIstHours(10))

	e.insightSvc.SetNow(fixedNow(testutil.Day(0)))
	report, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompletedWithErrors, report.State)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, bare.ID, report.Errors[0].PhaseID)

	// The healthy phase and the rollups still landed.
	assert.Equal(t, 1, report.PhaseInsights)
	assert.Equal(t, 1, report.ProjectInsights)
	assert.Equal(t, 1, report.TenantSummaries)
}

func TestRunInsights_TenantSummaryStored(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant, testutil.WithDeadline(testutil.Day(3)))
	phase := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(3)))
	// Burning 10h/day with 50h left overshoots the deadline by 4 days.
	e.seedSnapshot(t, phase, testutil.Day(0), testutil.WithIstHours(10))
	e.seedSnapshot(t, phase, testutil.Day(1), testutil.WithIstHours(20))
	e.seedSnapshot(t, phase, testutil.Day(2), testutil.WithIstHours(30))

	e.insightSvc.SetNow(fixedNow(testutil.Day(2)))
	_, err := e.insightSvc.RunInsights(ctx)
	require.NoError(t, err)

	summary, err := e.insights.GetTenantSummary(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProjectsTotal)
	assert.Equal(t, 1, summary.ProjectsAtRisk)
	require.Len(t, summary.TopRiskProjects, 1)
	assert.Equal(t, project.ID, summary.TopRiskProjects[0].ProjectID)
	assert.Equal(t, "Halle West", summary.TopRiskProjects[0].ProjectName)
}

func TestBuildTenantSummary_TopThreeBySeverity(t *testing.T) {
	e := newEnv(t)
	e.insightSvc.SetNow(fixedNow(testutil.Day(0)))
	tenant := testutil.NewTestTenant("Bau AG")

	mk := func(name string, status domain.InsightStatus, troubled int) (*domain.Project, *domain.ProjectInsight) {
		p := testutil.NewTestProject(tenant.ID, name)
		pi := &domain.ProjectInsight{
			ID:        name,
			TenantID:  tenant.ID,
			ProjectID: p.ID,
			Status:    status,
		}
		switch status {
		case domain.StatusCritical:
			pi.PhasesCritical = troubled
		case domain.StatusBehind:
			pi.PhasesBehind = troubled
		default:
			pi.PhasesAtRisk = troubled
		}
		return p, pi
	}

	var projects []*domain.Project
	var insights []*domain.ProjectInsight
	for _, spec := range []struct {
		name     string
		status   domain.InsightStatus
		troubled int
	}{
		{"ruhig", domain.StatusOnTrack, 0},
		{"wackelt", domain.StatusAtRisk, 1},
		{"spät", domain.StatusBehind, 2},
		{"brennt", domain.StatusCritical, 1},
		{"wackelt-mehr", domain.StatusAtRisk, 3},
	} {
		p, pi := mk(spec.name, spec.status, spec.troubled)
		projects = append(projects, p)
		insights = append(insights, pi)
	}

	summary := e.insightSvc.BuildTenantSummary(tenant, projects, insights, nil)

	assert.Equal(t, 5, summary.ProjectsTotal)
	assert.Equal(t, 4, summary.ProjectsAtRisk)
	assert.Equal(t, 1, summary.ProjectsOnTrack)
	require.Len(t, summary.TopRiskProjects, 3)
	assert.Equal(t, "brennt", summary.TopRiskProjects[0].ProjectName)
	assert.Equal(t, "spät", summary.TopRiskProjects[1].ProjectName)
	assert.Equal(t, "wackelt-mehr", summary.TopRiskProjects[2].ProjectName)
}

func TestRunInsights_BudgetExpiryFinishesPartial(t *testing.T) {
	e := newEnv(t)
	tenant := e.seedTenant(t)
	project := e.seedProject(t, tenant)
	phase := e.seedPhase(t, project, "Fundament",
		testutil.WithSollHours(80),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(20)))
	e.seedSnapshot(t, phase, testutil.Day(0), testutil.WithIstHours(10))

	e.insightSvc.SetRunBudget(time.Nanosecond)
	report, err := e.insightSvc.RunInsights(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompletedWithErrors, report.State)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[len(report.Errors)-1].Message, "run budget")
}
