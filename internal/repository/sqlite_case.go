package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// SQLiteCaseRepo implements CaseRepo using a SQLite database.
type SQLiteCaseRepo struct {
	db db.DBTX
}

func NewSQLiteCaseRepo(db db.DBTX) *SQLiteCaseRepo {
	return &SQLiteCaseRepo{db: db}
}

const caseColumns = `id, student_name, student_birthday, school, grade, gender, teacher_id,
	current_stage, completed_stages, case_completed, session_number, session_started_at,
	version, created_at, updated_at`

func (r *SQLiteCaseRepo) Create(ctx context.Context, c *domain.Case) error {
	completed, err := encodeStages(c.CompletedStages)
	if err != nil {
		return err
	}
	query := `INSERT INTO cases (` + caseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID,
		c.Student.Name,
		c.Student.Birthday.Format(dateLayout),
		c.Student.School,
		c.Student.Grade,
		string(c.Student.Gender),
		c.TeacherID,
		int(c.CurrentStage),
		completed,
		boolToInt(c.CaseCompleted),
		c.SessionNumber,
		formatTime(c.SessionStartedAt),
		c.Version,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting case: %w", err)
	}
	return nil
}

func (r *SQLiteCaseRepo) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = ?`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return c, err
}

func (r *SQLiteCaseRepo) ListForMember(ctx context.Context, userID string) ([]*domain.Case, error) {
	query := `SELECT ` + prefixed("c.", caseColumns) + `
		FROM cases c
		JOIN case_members m ON m.case_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.created_at, c.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cases for member: %w", err)
	}
	defer rows.Close()

	var cases []*domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cases: %w", err)
	}
	return cases, nil
}

func (r *SQLiteCaseRepo) Update(ctx context.Context, c *domain.Case) error {
	completed, err := encodeStages(c.CompletedStages)
	if err != nil {
		return err
	}
	query := `UPDATE cases SET
		student_name = ?, student_birthday = ?, school = ?, grade = ?, gender = ?,
		current_stage = ?, completed_stages = ?, case_completed = ?, session_number = ?,
		session_started_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Student.Name,
		c.Student.Birthday.Format(dateLayout),
		c.Student.School,
		c.Student.Grade,
		string(c.Student.Gender),
		int(c.CurrentStage),
		completed,
		boolToInt(c.CaseCompleted),
		c.SessionNumber,
		formatTime(c.SessionStartedAt),
		formatTime(c.UpdatedAt),
		c.ID,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("updating case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating case: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("case %s at version %d: %w", c.ID, c.Version, ErrVersionConflict)
	}
	c.Version++
	return nil
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var c domain.Case
	var birthday, completed, gender, sessionStarted, createdAt, updatedAt string
	var current, caseCompleted int

	err := row.Scan(
		&c.ID, &c.Student.Name, &birthday, &c.Student.School, &c.Student.Grade, &gender, &c.TeacherID,
		&current, &completed, &caseCompleted, &c.SessionNumber, &sessionStarted,
		&c.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}

	c.Student.Gender = domain.Gender(gender)
	c.CurrentStage = domain.Stage(current)
	c.CaseCompleted = intToBool(caseCompleted)
	if c.Student.Birthday, err = time.Parse(dateLayout, birthday); err != nil {
		return nil, fmt.Errorf("parsing student birthday: %w", err)
	}
	if c.CompletedStages, err = decodeStages(completed); err != nil {
		return nil, err
	}
	if c.SessionStartedAt, err = parseTime(sessionStarted, "session_started_at"); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
