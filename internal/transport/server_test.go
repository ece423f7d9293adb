package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlechner/polier/internal/intelligence"
	"github.com/mlechner/polier/internal/pipeline"
	"github.com/mlechner/polier/internal/repository"
	"github.com/mlechner/polier/internal/testutil"
)

const testSecret = "trigger-secret"

type fixture struct {
	server  *Server
	handler http.Handler
	tenants *repository.SQLiteTenantRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	tenants := repository.NewSQLiteTenantRepo(db)
	projects := repository.NewSQLiteProjectRepo(db)
	phases := repository.NewSQLitePhaseRepo(db)
	hours := repository.NewSQLiteHoursRepo(db)
	snapshots := repository.NewSQLiteSnapshotRepo(db)
	insights := repository.NewSQLiteInsightRepo(db)

	snapshotSvc := pipeline.NewSnapshotService(tenants, phases, hours, snapshots, nil)
	insightSvc := pipeline.NewInsightService(tenants, projects, phases, hours, snapshots, insights,
		intelligence.NewNarrativeService(nil, false), nil, nil)
	refreshSvc := pipeline.NewRefreshService(tenants, snapshotSvc, insightSvc, nil)

	server := NewServer(snapshotSvc, insightSvc, refreshSvc, nil)
	return &fixture{
		server:  server,
		handler: server.Handler(testSecret),
		tenants: tenants,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotTrigger_Authorized(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tenants.Create(context.Background(), testutil.NewTestTenant("Bau AG")))

	rec := f.do(t, http.MethodPost, "/triggers/snapshots?asOf=2026-03-02", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	var report pipeline.SnapshotReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TenantsSeen)
	assert.Equal(t, testutil.Day(0), report.AsOf)
}

func TestSnapshotTrigger_WrongSecret(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/triggers/snapshots", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSnapshotTrigger_MissingToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/triggers/snapshots", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSnapshotTrigger_SecretNotConfigured(t *testing.T) {
	f := newFixture(t)
	open := f.server.Handler("")

	req := httptest.NewRequest(http.MethodPost, "/triggers/snapshots", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "secret not configured")
}

func TestSnapshotTrigger_BadAsOf(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/triggers/snapshots?asOf=02.03.2026", testSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsightTrigger_Authorized(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tenants.Create(context.Background(), testutil.NewTestTenant("Bau AG")))

	rec := f.do(t, http.MethodPost, "/triggers/insights", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	var report pipeline.InsightReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TenantsSeen)
}

func TestRefresh_Success(t *testing.T) {
	f := newFixture(t)
	tenant := testutil.NewTestTenant("Bau AG")
	require.NoError(t, f.tenants.Create(context.Background(), tenant))

	rec := f.do(t, http.MethodPost, "/tenants/"+tenant.ID+"/refresh", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.LastRefreshAt)
}

func TestRefresh_RateLimited(t *testing.T) {
	f := newFixture(t)
	tenant := testutil.NewTestTenant("Bau AG",
		testutil.WithLastRefreshAt(time.Now().UTC().Add(-10*time.Minute)))
	require.NoError(t, f.tenants.Create(context.Background(), tenant))

	rec := f.do(t, http.MethodPost, "/tenants/"+tenant.ID+"/refresh", testSecret)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "rate_limited", resp.Error)
	require.NotNil(t, resp.WaitMinutes)
	assert.InDelta(t, 50, *resp.WaitMinutes, 1)
	require.NotNil(t, resp.NextRefreshAt)
}

func TestRefresh_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/tenants/nope/refresh", testSecret)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
