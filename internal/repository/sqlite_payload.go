package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// SQLitePayloadRepo stores stage payloads as JSON bodies keyed by
// (case, stage, session).
type SQLitePayloadRepo struct {
	db db.DBTX
}

func NewSQLitePayloadRepo(db db.DBTX) *SQLitePayloadRepo {
	return &SQLitePayloadRepo{db: db}
}

const payloadColumns = `case_id, stage, session_number, body, author_id, author_role, created_at, updated_at`

func (r *SQLitePayloadRepo) Get(ctx context.Context, caseID string, stage domain.Stage, session int) (*domain.StagePayload, error) {
	query := `SELECT ` + payloadColumns + ` FROM stage_payloads WHERE case_id = ? AND stage = ? AND session_number = ?`
	p, err := scanPayload(r.db.QueryRowContext(ctx, query, caseID, int(stage), session))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stage %d payload: %w", stage, ErrNotFound)
	}
	return p, err
}

// Upsert inserts the payload or overwrites the draft for the same key. The
// original creation time is preserved.
func (r *SQLitePayloadRepo) Upsert(ctx context.Context, p *domain.StagePayload) error {
	body, err := domain.EncodePayload(p.Data)
	if err != nil {
		return err
	}
	query := `INSERT INTO stage_payloads (case_id, stage, session_number, kind, body, author_id, author_role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id, stage, session_number) DO UPDATE SET
			body = excluded.body,
			author_id = excluded.author_id,
			author_role = excluded.author_role,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		p.CaseID,
		int(p.Stage),
		p.SessionNumber,
		string(p.Data.PayloadKind()),
		string(body),
		p.AuthorID,
		string(p.AuthorRole),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting stage %d payload: %w", p.Stage, err)
	}
	return nil
}

func (r *SQLitePayloadRepo) ListByCase(ctx context.Context, caseID string) ([]*domain.StagePayload, error) {
	query := `SELECT ` + payloadColumns + ` FROM stage_payloads WHERE case_id = ? ORDER BY session_number, stage`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing stage payloads: %w", err)
	}
	defer rows.Close()

	var out []*domain.StagePayload
	for rows.Next() {
		p, err := scanPayload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage payloads: %w", err)
	}
	return out, nil
}

func (r *SQLitePayloadRepo) DeleteFromStage(ctx context.Context, caseID string, session int, from domain.Stage) error {
	query := `DELETE FROM stage_payloads WHERE case_id = ? AND session_number = ? AND stage >= ?`
	if _, err := r.db.ExecContext(ctx, query, caseID, session, int(from)); err != nil {
		return fmt.Errorf("deleting session %d payloads: %w", session, err)
	}
	return nil
}

func (r *SQLitePayloadRepo) DeleteByCase(ctx context.Context, caseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stage_payloads WHERE case_id = ?`, caseID); err != nil {
		return fmt.Errorf("deleting stage payloads: %w", err)
	}
	return nil
}

func scanPayload(row rowScanner) (*domain.StagePayload, error) {
	var p domain.StagePayload
	var stage int
	var body, role, createdAt, updatedAt string
	if err := row.Scan(&p.CaseID, &stage, &p.SessionNumber, &body, &p.AuthorID, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning stage payload: %w", err)
	}
	p.Stage = domain.Stage(stage)
	p.AuthorRole = domain.Role(role)

	data, err := domain.DecodePayload(p.Stage, []byte(body))
	if err != nil {
		return nil, fmt.Errorf("decoding stored stage %d payload: %w", stage, err)
	}
	p.Data = data
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
