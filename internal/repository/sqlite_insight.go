package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

const phaseInsightColumns = `id, tenant_id, phase_id, generated_at, status, burn_rate_ist,
		burn_rate_trend, forecast_completion_date, deadline_delta_days, progress_percent,
		summary_text, detail_text, recommendation_text`

const projectInsightColumns = `id, tenant_id, project_id, generated_at, status, phases_total,
		phases_on_track, phases_at_risk, phases_behind, phases_critical, phases_completed,
		overall_progress_percent, projected_completion_date, deadline_delta_days,
		summary_text, detail_text, recommendation_text`

// SQLiteInsightRepo implements InsightRepo using a SQLite database.
// Insight rows are regenerated wholesale per run; the latest row per
// entity is current and older rows only serve "last updated" history.
type SQLiteInsightRepo struct {
	db *sql.DB
}

// NewSQLiteInsightRepo creates a new SQLiteInsightRepo.
func NewSQLiteInsightRepo(db *sql.DB) *SQLiteInsightRepo {
	return &SQLiteInsightRepo{db: db}
}

func (r *SQLiteInsightRepo) InsertPhaseInsight(ctx context.Context, in *domain.PhaseInsight) error {
	query := `INSERT INTO phase_insights (` + phaseInsightColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var trendStr *string
	if in.BurnRateTrend != nil {
		s := string(*in.BurnRateTrend)
		trendStr = &s
	}
	_, err := r.db.ExecContext(ctx, query,
		in.ID,
		in.TenantID,
		in.PhaseID,
		in.GeneratedAt.Format(time.RFC3339),
		string(in.Status),
		nullableFloat(in.BurnRateIst),
		nullableString(trendStr),
		nullableTimeToString(in.ForecastCompletionDate, dateLayout),
		nullableInt(in.DeadlineDeltaDays),
		in.ProgressPercent,
		in.SummaryText,
		in.DetailText,
		in.RecommendationText,
	)
	if err != nil {
		return fmt.Errorf("inserting phase insight: %w", err)
	}
	return nil
}

func (r *SQLiteInsightRepo) LatestPhaseInsight(ctx context.Context, phaseID string) (*domain.PhaseInsight, error) {
	query := `SELECT ` + phaseInsightColumns + ` FROM phase_insights
		WHERE phase_id = ? ORDER BY generated_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, phaseID)

	var in domain.PhaseInsight
	var generatedAtStr, statusStr string
	var burnRate sql.NullFloat64
	var trendStr, forecastStr sql.NullString
	var deadlineDelta sql.NullInt64

	err := row.Scan(&in.ID, &in.TenantID, &in.PhaseID, &generatedAtStr, &statusStr,
		&burnRate, &trendStr, &forecastStr, &deadlineDelta, &in.ProgressPercent,
		&in.SummaryText, &in.DetailText, &in.RecommendationText)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("phase insight: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning phase insight: %w", err)
	}

	in.Status = domain.InsightStatus(statusStr)
	in.GeneratedAt, err = time.Parse(time.RFC3339, generatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing generated_at: %w", err)
	}
	if burnRate.Valid {
		in.BurnRateIst = &burnRate.Float64
	}
	if trendStr.Valid && trendStr.String != "" {
		trend := domain.TrendDirection(trendStr.String)
		in.BurnRateTrend = &trend
	}
	in.ForecastCompletionDate = parseNullableTime(forecastStr, dateLayout)
	if deadlineDelta.Valid {
		d := int(deadlineDelta.Int64)
		in.DeadlineDeltaDays = &d
	}

	return &in, nil
}

func (r *SQLiteInsightRepo) InsertProjectInsight(ctx context.Context, in *domain.ProjectInsight) error {
	query := `INSERT INTO project_insights (` + projectInsightColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		in.ID,
		in.TenantID,
		in.ProjectID,
		in.GeneratedAt.Format(time.RFC3339),
		string(in.Status),
		in.PhasesTotal,
		in.PhasesOnTrack,
		in.PhasesAtRisk,
		in.PhasesBehind,
		in.PhasesCritical,
		in.PhasesCompleted,
		in.OverallProgressPercent,
		nullableTimeToString(in.ProjectedCompletionDate, dateLayout),
		nullableInt(in.DeadlineDeltaDays),
		in.SummaryText,
		in.DetailText,
		in.RecommendationText,
	)
	if err != nil {
		return fmt.Errorf("inserting project insight: %w", err)
	}
	return nil
}

func (r *SQLiteInsightRepo) LatestProjectInsight(ctx context.Context, projectID string) (*domain.ProjectInsight, error) {
	query := `SELECT ` + projectInsightColumns + ` FROM project_insights
		WHERE project_id = ? ORDER BY generated_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, projectID)

	var in domain.ProjectInsight
	var generatedAtStr, statusStr string
	var projectedStr sql.NullString
	var deadlineDelta sql.NullInt64

	err := row.Scan(&in.ID, &in.TenantID, &in.ProjectID, &generatedAtStr, &statusStr,
		&in.PhasesTotal, &in.PhasesOnTrack, &in.PhasesAtRisk, &in.PhasesBehind,
		&in.PhasesCritical, &in.PhasesCompleted, &in.OverallProgressPercent,
		&projectedStr, &deadlineDelta,
		&in.SummaryText, &in.DetailText, &in.RecommendationText)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project insight: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project insight: %w", err)
	}

	in.Status = domain.InsightStatus(statusStr)
	in.GeneratedAt, err = time.Parse(time.RFC3339, generatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing generated_at: %w", err)
	}
	in.ProjectedCompletionDate = parseNullableTime(projectedStr, dateLayout)
	if deadlineDelta.Valid {
		d := int(deadlineDelta.Int64)
		in.DeadlineDeltaDays = &d
	}

	return &in, nil
}

func (r *SQLiteInsightRepo) UpsertTenantSummary(ctx context.Context, s *domain.TenantSummary) error {
	topRisk, err := json.Marshal(s.TopRiskProjects)
	if err != nil {
		return fmt.Errorf("marshaling top risk projects: %w", err)
	}
	var trendStr *string
	if s.BurnRateTrend != nil {
		t := string(*s.BurnRateTrend)
		trendStr = &t
	}
	query := `INSERT INTO tenant_summaries (tenant_id, generated_at, projects_total,
		projects_at_risk, projects_on_track, critical_phases, avg_progress_percent,
		burn_rate_trend, top_risk_projects)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			generated_at = excluded.generated_at,
			projects_total = excluded.projects_total,
			projects_at_risk = excluded.projects_at_risk,
			projects_on_track = excluded.projects_on_track,
			critical_phases = excluded.critical_phases,
			avg_progress_percent = excluded.avg_progress_percent,
			burn_rate_trend = excluded.burn_rate_trend,
			top_risk_projects = excluded.top_risk_projects`
	_, err = r.db.ExecContext(ctx, query,
		s.TenantID,
		s.GeneratedAt.Format(time.RFC3339),
		s.ProjectsTotal,
		s.ProjectsAtRisk,
		s.ProjectsOnTrack,
		s.CriticalPhases,
		s.AvgProgressPercent,
		nullableString(trendStr),
		string(topRisk),
	)
	if err != nil {
		return fmt.Errorf("upserting tenant summary: %w", err)
	}
	return nil
}

func (r *SQLiteInsightRepo) GetTenantSummary(ctx context.Context, tenantID string) (*domain.TenantSummary, error) {
	query := `SELECT tenant_id, generated_at, projects_total, projects_at_risk,
		projects_on_track, critical_phases, avg_progress_percent, burn_rate_trend,
		top_risk_projects
		FROM tenant_summaries WHERE tenant_id = ?`
	row := r.db.QueryRowContext(ctx, query, tenantID)

	var s domain.TenantSummary
	var generatedAtStr, topRiskJSON string
	var trendStr sql.NullString

	err := row.Scan(&s.TenantID, &generatedAtStr, &s.ProjectsTotal, &s.ProjectsAtRisk,
		&s.ProjectsOnTrack, &s.CriticalPhases, &s.AvgProgressPercent, &trendStr, &topRiskJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant summary: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning tenant summary: %w", err)
	}

	s.GeneratedAt, err = time.Parse(time.RFC3339, generatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing generated_at: %w", err)
	}
	if trendStr.Valid && trendStr.String != "" {
		trend := domain.TrendDirection(trendStr.String)
		s.BurnRateTrend = &trend
	}
	if err := json.Unmarshal([]byte(topRiskJSON), &s.TopRiskProjects); err != nil {
		return nil, fmt.Errorf("unmarshaling top risk projects: %w", err)
	}

	return &s, nil
}
