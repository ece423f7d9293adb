package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

// SQLiteHoursRepo implements HoursRepo over the externally synced
// allocations, time_entries and absences tables.
type SQLiteHoursRepo struct {
	db *sql.DB
}

// NewSQLiteHoursRepo creates a new SQLiteHoursRepo.
func NewSQLiteHoursRepo(db *sql.DB) *SQLiteHoursRepo {
	return &SQLiteHoursRepo{db: db}
}

func (r *SQLiteHoursRepo) SumActualHours(ctx context.Context, phaseID string, asOf time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(hours), 0) FROM time_entries WHERE phase_id = ? AND entry_date <= ?`
	var sum float64
	if err := r.db.QueryRowContext(ctx, query, phaseID, asOf.Format(dateLayout)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing actual hours: %w", err)
	}
	return sum, nil
}

func (r *SQLiteHoursRepo) SumPlannedHours(ctx context.Context, phaseID string) (float64, error) {
	query := `SELECT COALESCE(SUM(hours), 0) FROM allocations WHERE phase_id = ?`
	var sum float64
	if err := r.db.QueryRowContext(ctx, query, phaseID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing planned hours: %w", err)
	}
	return sum, nil
}

func (r *SQLiteHoursRepo) AllocationStats(ctx context.Context, phaseID string) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT user_id) FROM allocations WHERE phase_id = ?`
	var allocations, users int
	if err := r.db.QueryRowContext(ctx, query, phaseID).Scan(&allocations, &users); err != nil {
		return 0, 0, fmt.Errorf("counting allocations: %w", err)
	}
	return allocations, users, nil
}

func (r *SQLiteHoursRepo) AssignedUserIDs(ctx context.Context, phaseID string) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM allocations WHERE phase_id = ? ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, phaseID)
	if err != nil {
		return nil, fmt.Errorf("listing assigned users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user ids: %w", err)
	}
	return userIDs, nil
}

func (r *SQLiteHoursRepo) ListAllocationsForUsers(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) ([]domain.Allocation, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, tenant_id, phase_id, user_id, week_start, hours FROM allocations
		WHERE tenant_id = ? AND user_id IN (` + placeholders(len(userIDs)) + `)
		AND week_start >= ? AND week_start <= ? ORDER BY week_start, id`
	args := make([]any, 0, len(userIDs)+3)
	args = append(args, tenantID)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, from.Format(dateLayout), to.Format(dateLayout))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		var weekStartStr string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.PhaseID, &a.UserID, &weekStartStr, &a.Hours); err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}
		a.WeekStart, err = time.Parse(dateLayout, weekStartStr)
		if err != nil {
			return nil, fmt.Errorf("parsing week_start: %w", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}
	return allocations, nil
}

func (r *SQLiteHoursRepo) ListAbsencesForUsers(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) ([]domain.Absence, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, tenant_id, user_id, start_date, end_date, kind FROM absences
		WHERE tenant_id = ? AND user_id IN (` + placeholders(len(userIDs)) + `)
		AND end_date >= ? AND start_date <= ? ORDER BY start_date, id`
	args := make([]any, 0, len(userIDs)+3)
	args = append(args, tenantID)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, from.Format(dateLayout), to.Format(dateLayout))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing absences: %w", err)
	}
	defer rows.Close()

	var absences []domain.Absence
	for rows.Next() {
		var a domain.Absence
		var startStr, endStr string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.UserID, &startStr, &endStr, &a.Kind); err != nil {
			return nil, fmt.Errorf("scanning absence: %w", err)
		}
		a.StartDate, err = time.Parse(dateLayout, startStr)
		if err != nil {
			return nil, fmt.Errorf("parsing start_date: %w", err)
		}
		a.EndDate, err = time.Parse(dateLayout, endStr)
		if err != nil {
			return nil, fmt.Errorf("parsing end_date: %w", err)
		}
		absences = append(absences, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating absences: %w", err)
	}
	return absences, nil
}

func (r *SQLiteHoursRepo) CreateAllocation(ctx context.Context, a *domain.Allocation) error {
	query := `INSERT INTO allocations (id, tenant_id, phase_id, user_id, week_start, hours)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.TenantID, a.PhaseID, a.UserID,
		a.WeekStart.Format(dateLayout), a.Hours)
	if err != nil {
		return fmt.Errorf("inserting allocation: %w", err)
	}
	return nil
}

func (r *SQLiteHoursRepo) CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error {
	query := `INSERT INTO time_entries (id, tenant_id, phase_id, user_id, entry_date, hours)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.TenantID, e.PhaseID, e.UserID,
		e.EntryDate.Format(dateLayout), e.Hours)
	if err != nil {
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (r *SQLiteHoursRepo) CreateAbsence(ctx context.Context, a *domain.Absence) error {
	query := `INSERT INTO absences (id, tenant_id, user_id, start_date, end_date, kind)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.TenantID, a.UserID,
		a.StartDate.Format(dateLayout), a.EndDate.Format(dateLayout), a.Kind)
	if err != nil {
		return fmt.Errorf("inserting absence: %w", err)
	}
	return nil
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
