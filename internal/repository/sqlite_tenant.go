package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

// SQLiteTenantRepo implements TenantRepo using a SQLite database.
type SQLiteTenantRepo struct {
	db *sql.DB
}

// NewSQLiteTenantRepo creates a new SQLiteTenantRepo.
func NewSQLiteTenantRepo(db *sql.DB) *SQLiteTenantRepo {
	return &SQLiteTenantRepo{db: db}
}

func (r *SQLiteTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	query := `INSERT INTO tenants (id, name, last_refresh_at, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Name,
		nullableTimeToString(t.LastRefreshAt, time.RFC3339),
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *SQLiteTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT id, name, last_refresh_at, created_at FROM tenants WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var t domain.Tenant
	var lastRefreshStr sql.NullString
	var createdAtStr string
	if err := row.Scan(&t.ID, &t.Name, &lastRefreshStr, &createdAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	var parseErr error
	t.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	t.LastRefreshAt = parseNullableTime(lastRefreshStr, time.RFC3339)

	return &t, nil
}

func (r *SQLiteTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	query := `SELECT id, name, last_refresh_at, created_at FROM tenants ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		var lastRefreshStr sql.NullString
		var createdAtStr string
		if err := rows.Scan(&t.ID, &t.Name, &lastRefreshStr, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		t.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		t.LastRefreshAt = parseNullableTime(lastRefreshStr, time.RFC3339)
		tenants = append(tenants, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}
	return tenants, nil
}

func (r *SQLiteTenantRepo) SetLastRefreshAt(ctx context.Context, tenantID string, at time.Time) error {
	query := `UPDATE tenants SET last_refresh_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), tenantID)
	if err != nil {
		return fmt.Errorf("stamping last_refresh_at: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tenant: %w", ErrNotFound)
	}
	return nil
}
