package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// SQLiteReportRepo implements ReportRepo. Reports are insert-only; the
// session snapshot is stored as one JSON body next to the summary columns.
type SQLiteReportRepo struct {
	db db.DBTX
}

func NewSQLiteReportRepo(db db.DBTX) *SQLiteReportRepo {
	return &SQLiteReportRepo{db: db}
}

type reportBody struct {
	Activities      *domain.ActivityAssignments        `json:"activities,omitempty"`
	Progress        *domain.ActivityProgress           `json:"progress,omitempty"`
	Evaluation      *domain.FinalEvaluation            `json:"evaluation,omitempty"`
	Recommendations []domain.StakeholderRecommendation `json:"recommendations,omitempty"`
}

const reportColumns = `id, case_id, session_number, outcome, started_at, ended_at, termination_reason,
	diagnosis, total_activities, progress_records, body, created_by, created_at`

func (r *SQLiteReportRepo) Create(ctx context.Context, rep *domain.TherapyReport) error {
	body, err := json.Marshal(reportBody{
		Activities:      rep.Activities,
		Progress:        rep.Progress,
		Evaluation:      rep.Evaluation,
		Recommendations: rep.Recommendations,
	})
	if err != nil {
		return fmt.Errorf("encoding therapy report: %w", err)
	}
	query := `INSERT INTO therapy_reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		rep.ID,
		rep.CaseID,
		rep.SessionNumber,
		string(rep.Outcome),
		formatTime(rep.StartedAt),
		nullableTimeToString(rep.EndedAt, time.RFC3339),
		rep.TerminationReason,
		string(rep.Diagnosis),
		rep.TotalActivities,
		rep.ProgressRecords,
		string(body),
		rep.CreatedBy,
		formatTime(rep.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting therapy report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepo) GetBySession(ctx context.Context, caseID string, session int) (*domain.TherapyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM therapy_reports WHERE case_id = ? AND session_number = ?`
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, caseID, session))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("therapy report for session %d: %w", session, ErrNotFound)
	}
	return rep, err
}

func (r *SQLiteReportRepo) ListByCase(ctx context.Context, caseID string) ([]*domain.TherapyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM therapy_reports WHERE case_id = ? ORDER BY session_number`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing therapy reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.TherapyReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating therapy reports: %w", err)
	}
	return reports, nil
}

func (r *SQLiteReportRepo) DeleteByCase(ctx context.Context, caseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM therapy_reports WHERE case_id = ?`, caseID); err != nil {
		return fmt.Errorf("deleting therapy reports: %w", err)
	}
	return nil
}

func scanReport(row rowScanner) (*domain.TherapyReport, error) {
	var rep domain.TherapyReport
	var outcome, startedAt, diagnosis, body, createdAt string
	var endedAt sql.NullString
	err := row.Scan(
		&rep.ID, &rep.CaseID, &rep.SessionNumber, &outcome, &startedAt, &endedAt, &rep.TerminationReason,
		&diagnosis, &rep.TotalActivities, &rep.ProgressRecords, &body, &rep.CreatedBy, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning therapy report: %w", err)
	}
	rep.Outcome = domain.SessionOutcome(outcome)
	rep.Diagnosis = domain.Diagnosis(diagnosis)
	rep.EndedAt = parseNullableTime(endedAt, time.RFC3339)

	var b reportBody
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		return nil, fmt.Errorf("decoding therapy report body: %w", err)
	}
	rep.Activities = b.Activities
	rep.Progress = b.Progress
	rep.Evaluation = b.Evaluation
	rep.Recommendations = b.Recommendations

	if rep.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if rep.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &rep, nil
}
