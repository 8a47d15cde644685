package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/caseflow/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a case update loses the
	// compare-and-swap on its version.
	ErrVersionConflict = errors.New("version conflict")
)

type CaseRepo interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	ListForMember(ctx context.Context, userID string) ([]*domain.Case, error)
	// Update writes c if its stored version still equals c.Version, then
	// bumps c.Version.
	Update(ctx context.Context, c *domain.Case) error
}

type MemberRepo interface {
	Add(ctx context.Context, m *domain.CaseMember) error
	Get(ctx context.Context, caseID, userID string) (*domain.CaseMember, error)
	List(ctx context.Context, caseID string) ([]*domain.CaseMember, error)
	Remove(ctx context.Context, caseID, userID string) error
}

type PayloadRepo interface {
	Get(ctx context.Context, caseID string, stage domain.Stage, session int) (*domain.StagePayload, error)
	Upsert(ctx context.Context, p *domain.StagePayload) error
	ListByCase(ctx context.Context, caseID string) ([]*domain.StagePayload, error)
	// DeleteFromStage removes payloads of stages >= from for one session.
	DeleteFromStage(ctx context.Context, caseID string, session int, from domain.Stage) error
	DeleteByCase(ctx context.Context, caseID string) error
}

type ReportRepo interface {
	Create(ctx context.Context, r *domain.TherapyReport) error
	GetBySession(ctx context.Context, caseID string, session int) (*domain.TherapyReport, error)
	ListByCase(ctx context.Context, caseID string) ([]*domain.TherapyReport, error)
	DeleteByCase(ctx context.Context, caseID string) error
}

type RecommendationRepo interface {
	// Upsert keeps one recommendation per author role per session.
	Upsert(ctx context.Context, r *domain.StakeholderRecommendation) error
	ListBySession(ctx context.Context, caseID string, session int) ([]domain.StakeholderRecommendation, error)
	DeleteBySession(ctx context.Context, caseID string, session int) error
	DeleteByCase(ctx context.Context, caseID string) error
}
