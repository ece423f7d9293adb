package pipeline

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlechner/polier/internal/domain"
	"github.com/mlechner/polier/internal/intelligence"
	"github.com/mlechner/polier/internal/repository"
	"github.com/mlechner/polier/internal/testutil"
)

// env bundles the sqlite-backed repos and services for pipeline tests.
type env struct {
	db        *sql.DB
	tenants   *repository.SQLiteTenantRepo
	projects  *repository.SQLiteProjectRepo
	phases    *repository.SQLitePhaseRepo
	hours     *repository.SQLiteHoursRepo
	snapshots *repository.SQLiteSnapshotRepo
	insights  *repository.SQLiteInsightRepo

	snapshotSvc *SnapshotService
	insightSvc  *InsightService
	refreshSvc  *RefreshService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewTestDB(t)
	e := &env{
		db:        db,
		tenants:   repository.NewSQLiteTenantRepo(db),
		projects:  repository.NewSQLiteProjectRepo(db),
		phases:    repository.NewSQLitePhaseRepo(db),
		hours:     repository.NewSQLiteHoursRepo(db),
		snapshots: repository.NewSQLiteSnapshotRepo(db),
		insights:  repository.NewSQLiteInsightRepo(db),
	}
	e.snapshotSvc = NewSnapshotService(e.tenants, e.phases, e.hours, e.snapshots, nil)
	e.insightSvc = NewInsightService(e.tenants, e.projects, e.phases, e.hours, e.snapshots, e.insights,
		intelligence.NewNarrativeService(nil, false), nil, nil)
	e.refreshSvc = NewRefreshService(e.tenants, e.snapshotSvc, e.insightSvc, nil)
	return e
}

func (e *env) seedTenant(t *testing.T, opts ...testutil.TenantOption) *domain.Tenant {
	t.Helper()
	tenant := testutil.NewTestTenant("Bau AG", opts...)
	require.NoError(t, e.tenants.Create(context.Background(), tenant))
	return tenant
}

func (e *env) seedProject(t *testing.T, tenant *domain.Tenant, opts ...testutil.ProjectOption) *domain.Project {
	t.Helper()
	project := testutil.NewTestProject(tenant.ID, "Halle West", opts...)
	require.NoError(t, e.projects.Create(context.Background(), project))
	return project
}

func (e *env) seedPhase(t *testing.T, project *domain.Project, name string, opts ...testutil.PhaseOption) *domain.Phase {
	t.Helper()
	phase := testutil.NewTestPhase(project, name, opts...)
	require.NoError(t, e.phases.Create(context.Background(), phase))
	return phase
}

func (e *env) seedSnapshot(t *testing.T, phase *domain.Phase, date time.Time, opts ...testutil.SnapshotOption) {
	t.Helper()
	created, err := e.snapshots.Insert(context.Background(), testutil.NewTestSnapshot(phase, date, opts...))
	require.NoError(t, err)
	require.True(t, created)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
