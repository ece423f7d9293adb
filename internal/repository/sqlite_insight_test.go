package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightTestSetup(t *testing.T) (*SQLiteInsightRepo, *domain.Project, *domain.Phase) {
	t.Helper()
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	tenantRepo := NewSQLiteTenantRepo(db)
	projectRepo := NewSQLiteProjectRepo(db)
	phaseRepo := NewSQLitePhaseRepo(db)

	tenant := testutil.NewTestTenant("Bau AG")
	require.NoError(t, tenantRepo.Create(ctx, tenant))
	project := testutil.NewTestProject(tenant.ID, "Brücke West")
	require.NoError(t, projectRepo.Create(ctx, project))
	phase := testutil.NewTestPhase(project, "Fundament")
	require.NoError(t, phaseRepo.Create(ctx, phase))

	return NewSQLiteInsightRepo(db), project, phase
}

func TestInsightRepo_PhaseInsightRoundTrip(t *testing.T) {
	repo, _, phase := insightTestSetup(t)
	ctx := context.Background()

	burnRate := 10.5
	trend := domain.TrendUp
	forecast := testutil.Day(8)
	delta := 3

	in := &domain.PhaseInsight{
		ID:                     uuid.New().String(),
		TenantID:               phase.TenantID,
		PhaseID:                phase.ID,
		GeneratedAt:            time.Now().UTC().Truncate(time.Second),
		Status:                 domain.StatusBehind,
		BurnRateIst:            &burnRate,
		BurnRateTrend:          &trend,
		ForecastCompletionDate: &forecast,
		DeadlineDeltaDays:      &delta,
		ProgressPercent:        37.5,
		SummaryText:            "Phase is behind schedule.",
		DetailText:             "Burn rate trending up but forecast misses the deadline.",
		RecommendationText:     "Add capacity in the coming weeks.",
	}
	require.NoError(t, repo.InsertPhaseInsight(ctx, in))

	fetched, err := repo.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBehind, fetched.Status)
	require.NotNil(t, fetched.BurnRateIst)
	assert.Equal(t, 10.5, *fetched.BurnRateIst)
	require.NotNil(t, fetched.BurnRateTrend)
	assert.Equal(t, domain.TrendUp, *fetched.BurnRateTrend)
	require.NotNil(t, fetched.ForecastCompletionDate)
	assert.Equal(t, forecast, *fetched.ForecastCompletionDate)
	require.NotNil(t, fetched.DeadlineDeltaDays)
	assert.Equal(t, 3, *fetched.DeadlineDeltaDays)
	assert.Equal(t, 37.5, fetched.ProgressPercent)
	assert.NotEmpty(t, fetched.SummaryText)
}

func TestInsightRepo_PhaseInsight_NullableFieldsStayNil(t *testing.T) {
	repo, _, phase := insightTestSetup(t)
	ctx := context.Background()

	in := &domain.PhaseInsight{
		ID:          uuid.New().String(),
		TenantID:    phase.TenantID,
		PhaseID:     phase.ID,
		GeneratedAt: time.Now().UTC(),
		Status:      domain.StatusOnTrack,
		SummaryText: "Too little history for a forecast.",
	}
	require.NoError(t, repo.InsertPhaseInsight(ctx, in))

	fetched, err := repo.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.BurnRateIst)
	assert.Nil(t, fetched.BurnRateTrend)
	assert.Nil(t, fetched.ForecastCompletionDate)
	assert.Nil(t, fetched.DeadlineDeltaDays)
}

func TestInsightRepo_LatestPhaseInsight_ReturnsNewest(t *testing.T) {
	repo, _, phase := insightTestSetup(t)
	ctx := context.Background()

	older := &domain.PhaseInsight{
		ID: uuid.New().String(), TenantID: phase.TenantID, PhaseID: phase.ID,
		GeneratedAt: time.Now().UTC().Add(-2 * time.Hour),
		Status:      domain.StatusAtRisk, SummaryText: "old",
	}
	newer := &domain.PhaseInsight{
		ID: uuid.New().String(), TenantID: phase.TenantID, PhaseID: phase.ID,
		GeneratedAt: time.Now().UTC(),
		Status:      domain.StatusOnTrack, SummaryText: "new",
	}
	require.NoError(t, repo.InsertPhaseInsight(ctx, older))
	require.NoError(t, repo.InsertPhaseInsight(ctx, newer))

	fetched, err := repo.LatestPhaseInsight(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, fetched.ID)
	assert.Equal(t, domain.StatusOnTrack, fetched.Status)
}

func TestInsightRepo_ProjectInsightRoundTrip(t *testing.T) {
	repo, project, _ := insightTestSetup(t)
	ctx := context.Background()

	projected := testutil.Day(30)
	in := &domain.ProjectInsight{
		ID:                      uuid.New().String(),
		TenantID:                project.TenantID,
		ProjectID:               project.ID,
		GeneratedAt:             time.Now().UTC(),
		Status:                  domain.StatusAtRisk,
		PhasesTotal:             4,
		PhasesOnTrack:           2,
		PhasesAtRisk:            1,
		PhasesCompleted:         1,
		OverallProgressPercent:  62.5,
		ProjectedCompletionDate: &projected,
		SummaryText:             "Project at risk.",
	}
	require.NoError(t, repo.InsertProjectInsight(ctx, in))

	fetched, err := repo.LatestProjectInsight(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched.PhasesTotal)
	assert.Equal(t, 1, fetched.PhasesAtRisk)
	assert.Equal(t, 62.5, fetched.OverallProgressPercent)
	require.NotNil(t, fetched.ProjectedCompletionDate)
	assert.Equal(t, projected, *fetched.ProjectedCompletionDate)
}

func TestInsightRepo_TenantSummary_UpsertReplaces(t *testing.T) {
	repo, project, _ := insightTestSetup(t)
	ctx := context.Background()

	trend := domain.TrendStable
	first := &domain.TenantSummary{
		TenantID:           project.TenantID,
		GeneratedAt:        time.Now().UTC().Add(-time.Hour),
		ProjectsTotal:      3,
		ProjectsAtRisk:     2,
		ProjectsOnTrack:    1,
		CriticalPhases:     4,
		AvgProgressPercent: 40,
		BurnRateTrend:      &trend,
		TopRiskProjects: []domain.RiskProjectRef{
			{ProjectID: project.ID, ProjectName: project.Name, Status: domain.StatusCritical, PhasesAtRisk: 3},
		},
	}
	require.NoError(t, repo.UpsertTenantSummary(ctx, first))

	second := &domain.TenantSummary{
		TenantID:           project.TenantID,
		GeneratedAt:        time.Now().UTC(),
		ProjectsTotal:      3,
		ProjectsAtRisk:     1,
		ProjectsOnTrack:    2,
		CriticalPhases:     1,
		AvgProgressPercent: 55,
	}
	require.NoError(t, repo.UpsertTenantSummary(ctx, second))

	fetched, err := repo.GetTenantSummary(ctx, project.TenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.ProjectsAtRisk, "summary is replaced wholesale")
	assert.Equal(t, 55.0, fetched.AvgProgressPercent)
	assert.Nil(t, fetched.BurnRateTrend)
	assert.Empty(t, fetched.TopRiskProjects)
}

func TestInsightRepo_GetTenantSummary_NotFound(t *testing.T) {
	repo, _, _ := insightTestSetup(t)

	_, err := repo.GetTenantSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
