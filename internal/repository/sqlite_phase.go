package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

const phaseColumns = `id, project_id, tenant_id, name, status, start_date, end_date,
		soll_hours, latitude, longitude, created_at`

// SQLitePhaseRepo implements PhaseRepo using a SQLite database.
type SQLitePhaseRepo struct {
	db *sql.DB
}

// NewSQLitePhaseRepo creates a new SQLitePhaseRepo.
func NewSQLitePhaseRepo(db *sql.DB) *SQLitePhaseRepo {
	return &SQLitePhaseRepo{db: db}
}

func (r *SQLitePhaseRepo) Create(ctx context.Context, p *domain.Phase) error {
	query := `INSERT INTO phases (id, project_id, tenant_id, name, status, start_date, end_date,
		soll_hours, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ProjectID,
		p.TenantID,
		p.Name,
		string(p.Status),
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.SollHours,
		nullableFloat(p.Latitude),
		nullableFloat(p.Longitude),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting phase: %w", err)
	}
	return nil
}

func (r *SQLitePhaseRepo) GetByID(ctx context.Context, id string) (*domain.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPhase(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("phase: %w", ErrNotFound)
	}
	return p, err
}

func (r *SQLitePhaseRepo) ListSnapshotDue(ctx context.Context, tenantID string, asOf time.Time) ([]*domain.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases
		WHERE tenant_id = ? AND status = 'active' AND start_date <= ?
		ORDER BY project_id, start_date, id`
	rows, err := r.db.QueryContext(ctx, query, tenantID, asOf.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing snapshot-due phases: %w", err)
	}
	defer rows.Close()
	return collectPhases(rows)
}

func (r *SQLitePhaseRepo) ListActiveByProject(ctx context.Context, projectID string) ([]*domain.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases
		WHERE project_id = ? AND status IN ('active','done') ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project phases: %w", err)
	}
	defer rows.Close()
	return collectPhases(rows)
}

func collectPhases(rows *sql.Rows) ([]*domain.Phase, error) {
	var phases []*domain.Phase
	for rows.Next() {
		p, err := scanPhase(rows.Scan)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating phases: %w", err)
	}
	return phases, nil
}

func scanPhase(scan func(dest ...any) error) (*domain.Phase, error) {
	var p domain.Phase
	var statusStr, startDateStr, endDateStr, createdAtStr string
	var lat, lng sql.NullFloat64

	err := scan(&p.ID, &p.ProjectID, &p.TenantID, &p.Name, &statusStr,
		&startDateStr, &endDateStr, &p.SollHours, &lat, &lng, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning phase: %w", err)
	}

	p.Status = domain.PhaseStatus(statusStr)

	var parseErr error
	p.StartDate, parseErr = time.Parse(dateLayout, startDateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date: %w", parseErr)
	}
	p.EndDate, parseErr = time.Parse(dateLayout, endDateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing end_date: %w", parseErr)
	}
	p.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}

	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Longitude = &lng.Float64
	}

	return &p, nil
}
