package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run on
// every open.
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
	`CREATE TABLE IF NOT EXISTS cases (
		id                 TEXT PRIMARY KEY,
		student_name       TEXT NOT NULL,
		student_birthday   TEXT NOT NULL,
		school             TEXT NOT NULL,
		grade              TEXT NOT NULL,
		gender             TEXT NOT NULL CHECK(gender IN ('male','female','other')),
		teacher_id         TEXT NOT NULL,
		current_stage      INTEGER NOT NULL DEFAULT 1 CHECK(current_stage BETWEEN 1 AND 7),
		completed_stages   TEXT NOT NULL DEFAULT '[]',
		case_completed     INTEGER NOT NULL DEFAULT 0,
		session_number     INTEGER NOT NULL DEFAULT 1 CHECK(session_number >= 1),
		session_started_at TEXT NOT NULL,
		version            INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS case_members (
		case_id  TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		user_id  TEXT NOT NULL,
		role     TEXT NOT NULL CHECK(role IN ('teacher','doctor','parent')),
		added_at TEXT NOT NULL,
		PRIMARY KEY (case_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_case_members_user ON case_members(user_id)`,
	`CREATE TABLE IF NOT EXISTS stage_payloads (
		case_id        TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		stage          INTEGER NOT NULL CHECK(stage BETWEEN 1 AND 7),
		session_number INTEGER NOT NULL,
		kind           TEXT NOT NULL,
		body           TEXT NOT NULL,
		author_id      TEXT NOT NULL,
		author_role    TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (case_id, stage, session_number)
	)`,
	`CREATE TABLE IF NOT EXISTS therapy_reports (
		id                 TEXT PRIMARY KEY,
		case_id            TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		session_number     INTEGER NOT NULL,
		outcome            TEXT NOT NULL CHECK(outcome IN ('terminated','continued')),
		started_at         TEXT NOT NULL,
		ended_at           TEXT,
		termination_reason TEXT NOT NULL DEFAULT '',
		diagnosis          TEXT NOT NULL DEFAULT '',
		total_activities   INTEGER NOT NULL DEFAULT 0,
		progress_records   INTEGER NOT NULL DEFAULT 0,
		body               TEXT NOT NULL,
		created_by         TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		UNIQUE (case_id, session_number)
	)`,
	`CREATE TABLE IF NOT EXISTS stakeholder_recommendations (
		id               TEXT PRIMARY KEY,
		case_id          TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		session_number   INTEGER NOT NULL,
		author_id        TEXT NOT NULL,
		author_role      TEXT NOT NULL CHECK(author_role IN ('teacher','parent')),
		observations     TEXT NOT NULL,
		recommendations  TEXT NOT NULL,
		concerns         TEXT NOT NULL DEFAULT '',
		positive_changes TEXT NOT NULL DEFAULT '',
		support_needed   TEXT NOT NULL DEFAULT '',
		submitted_at     TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		UNIQUE (case_id, session_number, author_role)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_case_session ON stakeholder_recommendations(case_id, session_number)`,
}
