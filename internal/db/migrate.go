package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent
// (CREATE IF NOT EXISTS / tolerated ALTER errors) so the full list
// re-runs safely on every startup.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Reference data. Owned by the planning CRUD surface and the
	// Asana/TimeTac sync jobs; the pipeline only reads these tables
	// (except tenants.last_refresh_at, stamped by manual refresh).
	`CREATE TABLE IF NOT EXISTS tenants (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		last_refresh_at TEXT,
		created_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'active'
		           CHECK(status IN ('active','paused','done','archived')),
		start_date TEXT NOT NULL,
		deadline   TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_tenant ON projects(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS phases (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'planned'
		           CHECK(status IN ('planned','active','done','archived')),
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		soll_hours REAL NOT NULL DEFAULT 0,
		latitude   REAL,
		longitude  REAL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_phases_project ON phases(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_phases_tenant_status ON phases(tenant_id, status)`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id         TEXT PRIMARY KEY,
		tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		phase_id   TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		week_start TEXT NOT NULL,
		hours      REAL NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocations_phase ON allocations(phase_id)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_user ON allocations(tenant_id, user_id)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id         TEXT PRIMARY KEY,
		tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		phase_id   TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		hours      REAL NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_entries_phase_date ON time_entries(phase_id, entry_date)`,

	`CREATE TABLE IF NOT EXISTS absences (
		id         TEXT PRIMARY KEY,
		tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		kind       TEXT NOT NULL DEFAULT 'vacation'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_absences_user ON absences(tenant_id, user_id)`,

	// Pipeline-owned data. phase_snapshots is append-only; the unique
	// index is what makes concurrent snapshot generation idempotent
	// (the second writer conflicts and skips instead of duplicating).
	`CREATE TABLE IF NOT EXISTS phase_snapshots (
		id                  TEXT PRIMARY KEY,
		tenant_id           TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		phase_id            TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		snapshot_date       TEXT NOT NULL,
		ist_hours           REAL NOT NULL,
		plan_hours          REAL NOT NULL,
		soll_hours          REAL NOT NULL,
		allocation_count    INTEGER NOT NULL DEFAULT 0,
		assigned_user_count INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_phase_date ON phase_snapshots(phase_id, snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_tenant_date ON phase_snapshots(tenant_id, snapshot_date)`,

	`CREATE TABLE IF NOT EXISTS phase_insights (
		id                       TEXT PRIMARY KEY,
		tenant_id                TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		phase_id                 TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		generated_at             TEXT NOT NULL,
		status                   TEXT NOT NULL
		                         CHECK(status IN ('on_track','at_risk','behind','critical','completed')),
		burn_rate_ist            REAL,
		burn_rate_trend          TEXT CHECK(burn_rate_trend IN ('up','down','stable')),
		forecast_completion_date TEXT,
		deadline_delta_days      INTEGER,
		progress_percent         REAL NOT NULL DEFAULT 0,
		summary_text             TEXT NOT NULL DEFAULT '',
		detail_text              TEXT NOT NULL DEFAULT '',
		recommendation_text      TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_phase_insights_phase ON phase_insights(phase_id, generated_at)`,

	`CREATE TABLE IF NOT EXISTS project_insights (
		id                        TEXT PRIMARY KEY,
		tenant_id                 TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		project_id                TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		generated_at              TEXT NOT NULL,
		status                    TEXT NOT NULL
		                          CHECK(status IN ('on_track','at_risk','behind','critical','completed')),
		phases_total              INTEGER NOT NULL DEFAULT 0,
		phases_on_track           INTEGER NOT NULL DEFAULT 0,
		phases_at_risk            INTEGER NOT NULL DEFAULT 0,
		phases_behind             INTEGER NOT NULL DEFAULT 0,
		phases_critical           INTEGER NOT NULL DEFAULT 0,
		phases_completed          INTEGER NOT NULL DEFAULT 0,
		overall_progress_percent  REAL NOT NULL DEFAULT 0,
		projected_completion_date TEXT,
		deadline_delta_days       INTEGER,
		summary_text              TEXT NOT NULL DEFAULT '',
		detail_text               TEXT NOT NULL DEFAULT '',
		recommendation_text       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_insights_project ON project_insights(project_id, generated_at)`,

	`CREATE TABLE IF NOT EXISTS tenant_summaries (
		tenant_id            TEXT PRIMARY KEY REFERENCES tenants(id) ON DELETE CASCADE,
		generated_at         TEXT NOT NULL,
		projects_total       INTEGER NOT NULL DEFAULT 0,
		projects_at_risk     INTEGER NOT NULL DEFAULT 0,
		projects_on_track    INTEGER NOT NULL DEFAULT 0,
		critical_phases      INTEGER NOT NULL DEFAULT 0,
		avg_progress_percent REAL NOT NULL DEFAULT 0,
		burn_rate_trend      TEXT CHECK(burn_rate_trend IN ('up','down','stable')),
		top_risk_projects    TEXT NOT NULL DEFAULT '[]'
	)`,
}
