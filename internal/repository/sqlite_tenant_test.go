package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mlechner/polier/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTenantRepo(db)
	ctx := context.Background()

	tenant := testutil.NewTestTenant("Huber Bau GmbH")
	require.NoError(t, repo.Create(ctx, tenant))

	fetched, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, fetched.ID)
	assert.Equal(t, "Huber Bau GmbH", fetched.Name)
	assert.Nil(t, fetched.LastRefreshAt, "new tenant has never refreshed")
}

func TestTenantRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTenantRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantRepo_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTenantRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestTenant("A")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestTenant("B")))

	tenants, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestTenantRepo_SetLastRefreshAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTenantRepo(db)
	ctx := context.Background()

	tenant := testutil.NewTestTenant("Refresher")
	require.NoError(t, repo.Create(ctx, tenant))

	stamp := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastRefreshAt(ctx, tenant.ID, stamp))

	fetched, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastRefreshAt)
	assert.True(t, fetched.LastRefreshAt.Equal(stamp), "stamp must survive a round trip")
}

func TestTenantRepo_SetLastRefreshAt_UnknownTenant(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTenantRepo(db)

	err := repo.SetLastRefreshAt(context.Background(), "missing", time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
}
