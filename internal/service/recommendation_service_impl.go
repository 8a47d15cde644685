package service

import (
	"context"
	"time"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/validation"
)

type recommendationService struct {
	*engine
}

func NewRecommendationService(reads repository.Set, uow db.UnitOfWork, v *validation.Validator, observers ...UseCaseObserver) RecommendationService {
	return &recommendationService{engine: newEngine(reads, uow, v, observers)}
}

// Submit stores the caller's observations for the doctor's evaluation. It is
// open while the case sits at the evaluation stage; resubmitting replaces
// the caller role's earlier entry for the session.
func (s *recommendationService) Submit(ctx context.Context, caller domain.Caller, caseID string, rec domain.StakeholderRecommendation) (out *domain.StakeholderRecommendation, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "role": string(caller.Role)}
	defer func() { s.observe(ctx, "submit-recommendation", startedAt, fields, err) }()

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadCase(ctx, repos, caller, caseID)
		if err != nil {
			return err
		}
		if !domain.CanRecommend(m.Role) {
			return requireRole(m, "submit stakeholder recommendations", domain.RoleTeacher, domain.RoleParent)
		}
		if c.CaseCompleted {
			return domain.EditError(domain.Access{Reason: domain.ReasonCaseCompleted})
		}
		if c.CurrentStage != domain.StageEvaluation {
			return domain.EditError(domain.Access{Reason: domain.ReasonNotUnlocked})
		}

		rec.Trim()
		if err := s.validator.Struct(&rec); err != nil {
			return err
		}
		now := s.now()
		rec.ID = s.newID()
		rec.CaseID = c.ID
		rec.SessionNumber = c.SessionNumber
		rec.AuthorID = m.UserID
		rec.AuthorRole = m.Role
		rec.SubmittedAt = now
		rec.UpdatedAt = now

		existing, err := repos.Recommendations.ListBySession(ctx, c.ID, c.SessionNumber)
		if err != nil {
			return err
		}
		for _, prev := range existing {
			if prev.AuthorRole == m.Role {
				rec.ID = prev.ID
				rec.SubmittedAt = prev.SubmittedAt
			}
		}
		if err := repos.Recommendations.Upsert(ctx, &rec); err != nil {
			return err
		}
		if err := s.touch(ctx, repos, c); err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the current session's recommendations.
func (s *recommendationService) List(ctx context.Context, caller domain.Caller, caseID string) ([]domain.StakeholderRecommendation, error) {
	c, _, err := loadCase(ctx, s.reads, caller, caseID)
	if err != nil {
		return nil, err
	}
	return s.reads.Recommendations.ListBySession(ctx, c.ID, c.SessionNumber)
}
