package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// SQLiteMemberRepo implements MemberRepo using a SQLite database.
type SQLiteMemberRepo struct {
	db db.DBTX
}

func NewSQLiteMemberRepo(db db.DBTX) *SQLiteMemberRepo {
	return &SQLiteMemberRepo{db: db}
}

// Add links a user to a case. Re-adding an existing member updates the role.
func (r *SQLiteMemberRepo) Add(ctx context.Context, m *domain.CaseMember) error {
	query := `INSERT INTO case_members (case_id, user_id, role, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(case_id, user_id) DO UPDATE SET role = excluded.role`
	_, err := r.db.ExecContext(ctx, query, m.CaseID, m.UserID, string(m.Role), formatTime(m.AddedAt))
	if err != nil {
		return fmt.Errorf("inserting case member: %w", err)
	}
	return nil
}

func (r *SQLiteMemberRepo) Get(ctx context.Context, caseID, userID string) (*domain.CaseMember, error) {
	query := `SELECT case_id, user_id, role, added_at FROM case_members WHERE case_id = ? AND user_id = ?`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, caseID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case member: %w", ErrNotFound)
	}
	return m, err
}

func (r *SQLiteMemberRepo) List(ctx context.Context, caseID string) ([]*domain.CaseMember, error) {
	query := `SELECT case_id, user_id, role, added_at FROM case_members WHERE case_id = ? ORDER BY added_at, user_id`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing case members: %w", err)
	}
	defer rows.Close()

	var members []*domain.CaseMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating case members: %w", err)
	}
	return members, nil
}

func (r *SQLiteMemberRepo) Remove(ctx context.Context, caseID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM case_members WHERE case_id = ? AND user_id = ?`, caseID, userID)
	if err != nil {
		return fmt.Errorf("deleting case member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("case member: %w", ErrNotFound)
	}
	return nil
}

func scanMember(row rowScanner) (*domain.CaseMember, error) {
	var m domain.CaseMember
	var role, addedAt string
	if err := row.Scan(&m.CaseID, &m.UserID, &role, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning case member: %w", err)
	}
	m.Role = domain.Role(role)
	var err error
	if m.AddedAt, err = parseTime(addedAt, "added_at"); err != nil {
		return nil, err
	}
	return &m, nil
}
