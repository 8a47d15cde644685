package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/validation"
)

type lifecycleService struct {
	*engine
}

func NewLifecycleService(reads repository.Set, uow db.UnitOfWork, v *validation.Validator, observers ...UseCaseObserver) LifecycleService {
	return &lifecycleService{engine: newEngine(reads, uow, v, observers)}
}

// DecideSessionOutcome closes the current therapy session. Both decisions
// archive the session through the same snapshot; Complete then ends the
// course and Continue opens the next session at the restart stage.
func (s *lifecycleService) DecideSessionOutcome(ctx context.Context, caller domain.Caller, req app.DecisionRequest) (report *domain.TherapyReport, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": req.CaseID, "decision": string(req.Decision)}
	defer func() { s.observe(ctx, "decide-session-outcome", startedAt, fields, err) }()

	if _, err := domain.ParseDecision(string(req.Decision)); err != nil {
		return nil, domain.Validationf(err.Error())
	}

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadCase(ctx, repos, caller, req.CaseID)
		if err != nil {
			return err
		}
		if err := requireRole(m, "decide a session outcome", domain.RoleDoctor); err != nil {
			return err
		}
		if err := checkSessionOpen(ctx, repos, c, req.SessionNumber); err != nil {
			return err
		}
		if c.CurrentStage != domain.LastStage {
			if err := checkJustContinued(ctx, repos, c); err != nil {
				return err
			}
			return domain.NewError(domain.CodeLocked, fmt.Sprintf("session outcome is decided at stage %d; case is at stage %d", domain.LastStage, c.CurrentStage))
		}

		snap, err := snapshot(ctx, repos, c)
		if err != nil {
			return err
		}
		up, err := upstream(ctx, repos, c, domain.LastStage)
		if err != nil {
			return err
		}
		var eval domain.Payload
		if snap.Evaluation != nil {
			eval = snap.Evaluation
		}
		if err := s.validator.Ready(domain.LastStage, eval, up); err != nil {
			return err
		}

		reason := strings.TrimSpace(req.Reason)
		outcome := domain.OutcomeContinued
		if req.Decision == domain.DecisionComplete {
			if reason == "" {
				return domain.Validationf("a termination reason is required to complete therapy")
			}
			outcome = domain.OutcomeTerminated
		}

		now := s.now()
		report = domain.NewTherapyReport(s.newID(), c, outcome, reason, snap, m.UserID, now)
		if err := repos.Reports.Create(ctx, report); err != nil {
			return err
		}

		switch req.Decision {
		case domain.DecisionComplete:
			c.CloseCourse(now)
		case domain.DecisionContinue:
			// The report holds the closed session's therapy data.
			if err := repos.Payloads.DeleteFromStage(ctx, c.ID, c.SessionNumber, domain.RestartStage); err != nil {
				return err
			}
			if err := repos.Recommendations.DeleteBySession(ctx, c.ID, c.SessionNumber); err != nil {
				return err
			}
			c.RestartCourse(now)
		}
		fields["session_number"] = report.SessionNumber
		return s.touch(ctx, repos, c)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// checkSessionOpen rejects a decision against a session that already has an
// outcome.
func checkSessionOpen(ctx context.Context, repos repository.Set, c *domain.Case, pinned int) error {
	session := c.SessionNumber
	if pinned > 0 {
		session = pinned
	}
	if c.CaseCompleted || session < c.SessionNumber {
		return domain.NewError(domain.CodeSessionAlreadyClosed, fmt.Sprintf("session %d already has an outcome", session))
	}
	if session > c.SessionNumber {
		return domain.Validationf(fmt.Sprintf("session %d has not started; current session is %d", session, c.SessionNumber))
	}
	_, err := repos.Reports.GetBySession(ctx, c.ID, session)
	if err == nil {
		return domain.NewError(domain.CodeSessionAlreadyClosed, fmt.Sprintf("session %d already has an outcome", session))
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// checkJustContinued reports a repeated unpinned decision as
// SESSION_ALREADY_CLOSED: the previous session was continued and nothing of
// the new session has been completed yet.
func checkJustContinued(ctx context.Context, repos repository.Set, c *domain.Case) error {
	if c.SessionNumber < 2 || c.CurrentStage != domain.RestartStage || c.IsStageCompleted(domain.RestartStage) {
		return nil
	}
	prev, err := repos.Reports.GetBySession(ctx, c.ID, c.SessionNumber-1)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if prev.Outcome != domain.OutcomeContinued {
		return nil
	}
	return domain.NewError(domain.CodeSessionAlreadyClosed, fmt.Sprintf("session %d already has an outcome; session %d is at stage %d", prev.SessionNumber, c.SessionNumber, c.CurrentStage))
}

// snapshot gathers the current session's therapy data for a report.
func snapshot(ctx context.Context, repos repository.Set, c *domain.Case) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	for _, stage := range []domain.Stage{domain.StageActivities, domain.StageProgress, domain.StageEvaluation} {
		p, err := payloadData(ctx, repos, c, stage)
		if err != nil {
			return snap, err
		}
		switch stage {
		case domain.StageActivities:
			snap.Activities = as[*domain.ActivityAssignments](p)
		case domain.StageProgress:
			snap.Progress = as[*domain.ActivityProgress](p)
		case domain.StageEvaluation:
			snap.Evaluation = as[*domain.FinalEvaluation](p)
		}
	}
	recs, err := repos.Recommendations.ListBySession(ctx, c.ID, c.SessionNumber)
	if err != nil {
		return snap, err
	}
	snap.Recommendations = recs
	return snap, nil
}

// TerminateProgress wipes every payload and report of the case and resets it
// to stage 1. Identity and membership survive. Nothing is archived.
func (s *lifecycleService) TerminateProgress(ctx context.Context, caller domain.Caller, caseID string, confirmed bool) (state *app.CaseState, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "confirmed": confirmed}
	defer func() { s.observe(ctx, "terminate-progress", startedAt, fields, err) }()

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadCase(ctx, repos, caller, caseID)
		if err != nil {
			return err
		}
		if err := requireRole(m, "terminate progress", domain.RoleTeacher); err != nil {
			return err
		}
		if !confirmed {
			return domain.NewError(domain.CodeNotConfirmed, "terminating progress is irreversible and must be explicitly confirmed")
		}
		if !c.IsStageCompleted(domain.FirstStage) {
			return domain.NewError(domain.CodeLocked, "progress can only be terminated after stage 1 is completed")
		}
		if err := repos.Payloads.DeleteByCase(ctx, c.ID); err != nil {
			return err
		}
		if err := repos.Reports.DeleteByCase(ctx, c.ID); err != nil {
			return err
		}
		if err := repos.Recommendations.DeleteByCase(ctx, c.ID); err != nil {
			return err
		}
		fields["sessions_wiped"] = c.SessionNumber
		c.ResetProgress(s.now())
		if err := s.touch(ctx, repos, c); err != nil {
			return err
		}
		st := app.StateOf(c)
		state = &st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
