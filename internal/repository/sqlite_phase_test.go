package repository

import (
	"context"
	"testing"

	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseRepo_ListSnapshotDue_FiltersStatusAndStart(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	tenantRepo := NewSQLiteTenantRepo(db)
	projectRepo := NewSQLiteProjectRepo(db)
	phaseRepo := NewSQLitePhaseRepo(db)

	tenant := testutil.NewTestTenant("Bau AG")
	require.NoError(t, tenantRepo.Create(ctx, tenant))
	project := testutil.NewTestProject(tenant.ID, "Projekt")
	require.NoError(t, projectRepo.Create(ctx, project))

	asOf := testutil.Day(0)

	started := testutil.NewTestPhase(project, "Started",
		testutil.WithPhaseDates(testutil.Day(-10), testutil.Day(30)))
	require.NoError(t, phaseRepo.Create(ctx, started))

	startsToday := testutil.NewTestPhase(project, "StartsToday",
		testutil.WithPhaseDates(testutil.Day(0), testutil.Day(30)))
	require.NoError(t, phaseRepo.Create(ctx, startsToday))

	future := testutil.NewTestPhase(project, "Future",
		testutil.WithPhaseDates(testutil.Day(5), testutil.Day(40)))
	require.NoError(t, phaseRepo.Create(ctx, future))

	planned := testutil.NewTestPhase(project, "Planned",
		testutil.WithPhaseStatus(domain.PhasePlanned),
		testutil.WithPhaseDates(testutil.Day(-5), testutil.Day(30)))
	require.NoError(t, phaseRepo.Create(ctx, planned))

	due, err := phaseRepo.ListSnapshotDue(ctx, tenant.ID, asOf)
	require.NoError(t, err)
	require.Len(t, due, 2)

	names := []string{due[0].Name, due[1].Name}
	assert.Contains(t, names, "Started")
	assert.Contains(t, names, "StartsToday")
}

func TestPhaseRepo_GetByID_RoundTripsLocation(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	tenantRepo := NewSQLiteTenantRepo(db)
	projectRepo := NewSQLiteProjectRepo(db)
	phaseRepo := NewSQLitePhaseRepo(db)

	tenant := testutil.NewTestTenant("Bau AG")
	require.NoError(t, tenantRepo.Create(ctx, tenant))
	project := testutil.NewTestProject(tenant.ID, "Projekt")
	require.NoError(t, projectRepo.Create(ctx, project))

	phase := testutil.NewTestPhase(project, "Dach", testutil.WithLocation(48.137, 11.575))
	require.NoError(t, phaseRepo.Create(ctx, phase))

	fetched, err := phaseRepo.GetByID(ctx, phase.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Latitude)
	require.NotNil(t, fetched.Longitude)
	assert.Equal(t, 48.137, *fetched.Latitude)
	assert.Equal(t, 11.575, *fetched.Longitude)
}

func TestPhaseRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	phaseRepo := NewSQLitePhaseRepo(db)

	_, err := phaseRepo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
