package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

const snapshotColumns = `id, tenant_id, phase_id, snapshot_date, ist_hours, plan_hours,
		soll_hours, allocation_count, assigned_user_count, created_at`

// SQLiteSnapshotRepo implements SnapshotRepo using a SQLite database.
// Snapshots are append-only; there are no update or delete operations.
type SQLiteSnapshotRepo struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepo creates a new SQLiteSnapshotRepo.
func NewSQLiteSnapshotRepo(db *sql.DB) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: db}
}

// Insert appends a snapshot row. ON CONFLICT DO NOTHING against the
// (phase_id, snapshot_date) unique index makes repeated or concurrent
// generation for the same day a skip, never a duplicate or overwrite.
func (r *SQLiteSnapshotRepo) Insert(ctx context.Context, s *domain.PhaseSnapshot) (bool, error) {
	query := `INSERT INTO phase_snapshots (id, tenant_id, phase_id, snapshot_date, ist_hours,
		plan_hours, soll_hours, allocation_count, assigned_user_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(phase_id, snapshot_date) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.TenantID,
		s.PhaseID,
		s.SnapshotDate.Format(dateLayout),
		s.IstHours,
		s.PlanHours,
		s.SollHours,
		s.AllocationCount,
		s.AssignedUserCount,
		s.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("inserting snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return affected > 0, nil
}

// History returns all snapshots for a phase ordered oldest to newest.
func (r *SQLiteSnapshotRepo) History(ctx context.Context, phaseID string) ([]*domain.PhaseSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM phase_snapshots
		WHERE phase_id = ? ORDER BY snapshot_date`
	rows, err := r.db.QueryContext(ctx, query, phaseID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.PhaseSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// Latest returns the newest snapshot for a phase.
func (r *SQLiteSnapshotRepo) Latest(ctx context.Context, phaseID string) (*domain.PhaseSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM phase_snapshots
		WHERE phase_id = ? ORDER BY snapshot_date DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, phaseID)
	s, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot: %w", ErrNotFound)
	}
	return s, err
}

func scanSnapshot(scan func(dest ...any) error) (*domain.PhaseSnapshot, error) {
	var s domain.PhaseSnapshot
	var snapshotDateStr, createdAtStr string

	err := scan(&s.ID, &s.TenantID, &s.PhaseID, &snapshotDateStr, &s.IstHours,
		&s.PlanHours, &s.SollHours, &s.AllocationCount, &s.AssignedUserCount, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	var parseErr error
	s.SnapshotDate, parseErr = time.Parse(dateLayout, snapshotDateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing snapshot_date: %w", parseErr)
	}
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}

	return &s, nil
}
