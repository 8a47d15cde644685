package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// SQLiteRecommendationRepo implements RecommendationRepo using a SQLite database.
type SQLiteRecommendationRepo struct {
	db db.DBTX
}

func NewSQLiteRecommendationRepo(db db.DBTX) *SQLiteRecommendationRepo {
	return &SQLiteRecommendationRepo{db: db}
}

func (r *SQLiteRecommendationRepo) Upsert(ctx context.Context, rec *domain.StakeholderRecommendation) error {
	query := `INSERT INTO stakeholder_recommendations (id, case_id, session_number, author_id, author_role,
			observations, recommendations, concerns, positive_changes, support_needed, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id, session_number, author_role) DO UPDATE SET
			author_id = excluded.author_id,
			observations = excluded.observations,
			recommendations = excluded.recommendations,
			concerns = excluded.concerns,
			positive_changes = excluded.positive_changes,
			support_needed = excluded.support_needed,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CaseID, rec.SessionNumber, rec.AuthorID, string(rec.AuthorRole),
		rec.Observations, rec.Recommendations, rec.Concerns, rec.PositiveChanges, rec.SupportNeeded,
		formatTime(rec.SubmittedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting stakeholder recommendation: %w", err)
	}
	return nil
}

func (r *SQLiteRecommendationRepo) ListBySession(ctx context.Context, caseID string, session int) ([]domain.StakeholderRecommendation, error) {
	query := `SELECT id, case_id, session_number, author_id, author_role, observations, recommendations,
			concerns, positive_changes, support_needed, submitted_at, updated_at
		FROM stakeholder_recommendations WHERE case_id = ? AND session_number = ?
		ORDER BY author_role`
	rows, err := r.db.QueryContext(ctx, query, caseID, session)
	if err != nil {
		return nil, fmt.Errorf("listing stakeholder recommendations: %w", err)
	}
	defer rows.Close()

	var out []domain.StakeholderRecommendation
	for rows.Next() {
		var rec domain.StakeholderRecommendation
		var role, submittedAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.CaseID, &rec.SessionNumber, &rec.AuthorID, &role,
			&rec.Observations, &rec.Recommendations, &rec.Concerns, &rec.PositiveChanges, &rec.SupportNeeded,
			&submittedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning stakeholder recommendation: %w", err)
		}
		rec.AuthorRole = domain.Role(role)
		if rec.SubmittedAt, err = parseTime(submittedAt, "submitted_at"); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stakeholder recommendations: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecommendationRepo) DeleteBySession(ctx context.Context, caseID string, session int) error {
	query := `DELETE FROM stakeholder_recommendations WHERE case_id = ? AND session_number = ?`
	if _, err := r.db.ExecContext(ctx, query, caseID, session); err != nil {
		return fmt.Errorf("deleting session %d recommendations: %w", session, err)
	}
	return nil
}

func (r *SQLiteRecommendationRepo) DeleteByCase(ctx context.Context, caseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stakeholder_recommendations WHERE case_id = ?`, caseID); err != nil {
		return fmt.Errorf("deleting stakeholder recommendations: %w", err)
	}
	return nil
}
