package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/validation"
)

// engine is the state every case use case shares. Reads go through the
// pool-backed repositories; every mutation runs in one unit of work over
// transaction-scoped repositories.
type engine struct {
	reads     repository.Set
	uow       db.UnitOfWork
	validator *validation.Validator
	observer  UseCaseObserver
	now       func() time.Time
	newID     func() string
}

func newEngine(reads repository.Set, uow db.UnitOfWork, v *validation.Validator, observers []UseCaseObserver) *engine {
	if v == nil {
		v = validation.New()
	}
	return &engine{
		reads:     reads,
		uow:       uow,
		validator: v,
		observer:  useCaseObserverOrNoop(observers),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		newID:     func() string { return uuid.New().String() },
	}
}

// inTx runs fn over transaction-scoped repositories and maps lost races to
// LOCKED.
func (e *engine) inTx(ctx context.Context, fn func(ctx context.Context, repos repository.Set) error) error {
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, repository.NewSQLiteSet(tx))
	})
	if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, db.ErrBusy) {
		return domain.NewError(domain.CodeLocked, "case changed concurrently; reload and retry")
	}
	return err
}

func (e *engine) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	e.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

// loadCase fetches the case and the caller's membership. The membership
// role is authoritative: a caller claiming a different role is refused.
func loadCase(ctx context.Context, repos repository.Set, caller domain.Caller, caseID string) (*domain.Case, *domain.CaseMember, error) {
	c, err := repos.Cases.GetByID(ctx, caseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, domain.NewError(domain.CodeUnknownCase, fmt.Sprintf("case %q does not exist", caseID))
	}
	if err != nil {
		return nil, nil, err
	}
	m, err := authorize(ctx, repos, caller, caseID)
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

// loadStage is loadCase for stage operations: an unknown stage is reported
// before membership.
func loadStage(ctx context.Context, repos repository.Set, caller domain.Caller, caseID string, stage domain.Stage) (*domain.Case, *domain.CaseMember, error) {
	c, err := repos.Cases.GetByID(ctx, caseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, domain.NewError(domain.CodeUnknownCase, fmt.Sprintf("case %q does not exist", caseID))
	}
	if err != nil {
		return nil, nil, err
	}
	if _, err := domain.LookupStage(stage); err != nil {
		return nil, nil, err
	}
	m, err := authorize(ctx, repos, caller, caseID)
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

func authorize(ctx context.Context, repos repository.Set, caller domain.Caller, caseID string) (*domain.CaseMember, error) {
	m, err := repos.Members.Get(ctx, caseID, caller.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotMemberError()
	}
	if err != nil {
		return nil, err
	}
	if m.Role != caller.Role {
		return nil, &domain.Error{
			Code:    domain.CodeForbidden,
			Message: fmt.Sprintf("caller is linked to this case as %s, not %s", m.Role, caller.Role),
			Reason:  domain.ReasonWrongRole,
		}
	}
	return m, nil
}

// requireRole refuses members whose role is not one of roles.
func requireRole(m *domain.CaseMember, action string, roles ...domain.Role) error {
	for _, r := range roles {
		if m.Role == r {
			return nil
		}
	}
	return &domain.Error{
		Code:    domain.CodeForbidden,
		Message: fmt.Sprintf("%s may not %s", m.Role, action),
		Reason:  domain.ReasonWrongRole,
	}
}

// touch persists the case with a compare-and-swap on its version.
func (e *engine) touch(ctx context.Context, repos repository.Set, c *domain.Case) error {
	c.UpdatedAt = e.now()
	return repos.Cases.Update(ctx, c)
}

// payloadData returns the stored payload of stage for the session the case
// keeps it under, or nil when none was saved.
func payloadData(ctx context.Context, repos repository.Set, c *domain.Case, stage domain.Stage) (domain.Payload, error) {
	p, err := repos.Payloads.Get(ctx, c.ID, stage, c.PayloadSession(stage))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}

func as[T domain.Payload](p domain.Payload) T {
	t, _ := p.(T)
	return t
}

// upstream loads the earlier-stage payloads stage's rules read.
func upstream(ctx context.Context, repos repository.Set, c *domain.Case, stage domain.Stage) (validation.Upstream, error) {
	var up validation.Upstream
	load := func(s domain.Stage) (domain.Payload, error) { return payloadData(ctx, repos, c, s) }

	var needs []domain.Stage
	switch stage {
	case domain.StageScoring:
		needs = []domain.Stage{domain.StageTasks}
	case domain.StageAssessment:
		needs = []domain.Stage{domain.StageTasks, domain.StageScoring}
	case domain.StageActivities:
		needs = []domain.Stage{domain.StageAssessment}
	case domain.StageProgress:
		needs = []domain.Stage{domain.StageActivities}
	case domain.StageEvaluation:
		needs = []domain.Stage{domain.StageProgress}
	}
	for _, s := range needs {
		p, err := load(s)
		if err != nil {
			return up, err
		}
		switch s {
		case domain.StageTasks:
			up.Tasks = as[*domain.TaskDefinitions](p)
		case domain.StageScoring:
			up.Scores = as[*domain.TaskScores](p)
		case domain.StageAssessment:
			up.Assessment = as[*domain.AssessmentSummary](p)
		case domain.StageActivities:
			up.Activities = as[*domain.ActivityAssignments](p)
		case domain.StageProgress:
			up.Progress = as[*domain.ActivityProgress](p)
		}
	}
	return up, nil
}
