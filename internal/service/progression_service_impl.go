package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/validation"
)

type progressionService struct {
	*engine
}

func NewProgressionService(reads repository.Set, uow db.UnitOfWork, v *validation.Validator, observers ...UseCaseObserver) ProgressionService {
	return &progressionService{engine: newEngine(reads, uow, v, observers)}
}

func (s *progressionService) GetStagePayload(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage) (*app.StageView, error) {
	c, m, err := loadStage(ctx, s.reads, caller, caseID, stage)
	if err != nil {
		return nil, err
	}
	if err := domain.ViewError(domain.CanView(c, stage)); err != nil {
		return nil, err
	}
	spec, _ := domain.LookupStage(stage)
	view := &app.StageView{Stage: stage, Title: spec.Title, Status: domain.StatusFor(c, stage, m.Role)}

	p, err := s.reads.Payloads.Get(ctx, c.ID, stage, c.PayloadSession(stage))
	if errors.Is(err, repository.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	if eval, ok := p.Data.(*domain.FinalEvaluation); ok && m.Role != domain.RoleDoctor {
		redacted := eval.Redacted()
		p.Data = &redacted
	}
	view.Payload = p
	return view, nil
}

func (s *progressionService) SubmitStagePayload(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage, data domain.Payload) (stored *domain.StagePayload, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "stage": int(stage), "role": string(caller.Role)}
	defer func() { s.observe(ctx, "submit-stage-payload", startedAt, fields, err) }()

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadStage(ctx, repos, caller, caseID, stage)
		if err != nil {
			return err
		}
		if err := domain.EditError(domain.CanEdit(c, stage, m.Role)); err != nil {
			return err
		}
		stored, err = s.save(ctx, repos, c, m, stage, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// RecordActivityProgress appends one stage-6 entry to the session's
// progress log.
func (s *progressionService) RecordActivityProgress(ctx context.Context, caller domain.Caller, caseID string, entry domain.ProgressEntry) (stored *domain.StagePayload, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "activity_id": entry.ActivityID, "role": string(caller.Role)}
	defer func() { s.observe(ctx, "record-activity-progress", startedAt, fields, err) }()

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadStage(ctx, repos, caller, caseID, domain.StageProgress)
		if err != nil {
			return err
		}
		if err := domain.EditError(domain.CanEdit(c, domain.StageProgress, m.Role)); err != nil {
			return err
		}
		existing, err := payloadData(ctx, repos, c, domain.StageProgress)
		if err != nil {
			return err
		}
		log := &domain.ActivityProgress{}
		if prev := as[*domain.ActivityProgress](existing); prev != nil {
			log.Entries = append(log.Entries, prev.Entries...)
		}
		log.Entries = append(log.Entries, entry)
		stored, err = s.save(ctx, repos, c, m, domain.StageProgress, log)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["entries"] = len(stored.Data.(*domain.ActivityProgress).Entries)
	return stored, nil
}

// UpdateActivityProgress replaces one stage-6 entry, matched by id. Only
// the member who recorded the entry may change it.
func (s *progressionService) UpdateActivityProgress(ctx context.Context, caller domain.Caller, caseID string, entry domain.ProgressEntry) (stored *domain.StagePayload, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "entry_id": entry.ID, "role": string(caller.Role)}
	defer func() { s.observe(ctx, "update-activity-progress", startedAt, fields, err) }()

	if strings.TrimSpace(entry.ID) == "" {
		return nil, domain.Validationf("progress entry id is required")
	}
	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadStage(ctx, repos, caller, caseID, domain.StageProgress)
		if err != nil {
			return err
		}
		if err := domain.EditError(domain.CanEdit(c, domain.StageProgress, m.Role)); err != nil {
			return err
		}
		existing, err := payloadData(ctx, repos, c, domain.StageProgress)
		if err != nil {
			return err
		}
		prev := as[*domain.ActivityProgress](existing)
		if prev == nil {
			return domain.Validationf(fmt.Sprintf("progress entry %q does not exist", entry.ID))
		}
		i := slices.IndexFunc(prev.Entries, func(e domain.ProgressEntry) bool { return e.ID == entry.ID })
		if i < 0 {
			return domain.Validationf(fmt.Sprintf("progress entry %q does not exist", entry.ID))
		}
		log := &domain.ActivityProgress{Entries: slices.Clone(prev.Entries)}
		log.Entries[i] = entry
		stored, err = s.save(ctx, repos, c, m, domain.StageProgress, log)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ActivityProgressHistory lists the session's progress entries for one
// activity, oldest session date first.
func (s *progressionService) ActivityProgressHistory(ctx context.Context, caller domain.Caller, caseID, activityID string) ([]domain.ProgressEntry, error) {
	c, _, err := loadStage(ctx, s.reads, caller, caseID, domain.StageProgress)
	if err != nil {
		return nil, err
	}
	if err := domain.ViewError(domain.CanView(c, domain.StageProgress)); err != nil {
		return nil, err
	}
	activities, err := payloadData(ctx, s.reads, c, domain.StageActivities)
	if err != nil {
		return nil, err
	}
	plan := as[*domain.ActivityAssignments](activities)
	if plan == nil {
		return nil, domain.Validationf(fmt.Sprintf("activity %q is not assigned in stage 5", activityID))
	}
	if _, ok := plan.Find(activityID); !ok {
		return nil, domain.Validationf(fmt.Sprintf("activity %q is not assigned in stage 5", activityID))
	}
	data, err := payloadData(ctx, s.reads, c, domain.StageProgress)
	if err != nil {
		return nil, err
	}
	history := []domain.ProgressEntry{}
	if log := as[*domain.ActivityProgress](data); log != nil {
		for _, e := range log.Entries {
			if e.ActivityID == activityID {
				history = append(history, e)
			}
		}
	}
	slices.SortStableFunc(history, func(a, b domain.ProgressEntry) int {
		return strings.Compare(a.SessionDate, b.SessionDate)
	})
	return history, nil
}

func (s *progressionService) CompleteStage(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage) (out *app.StageCompletion, err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "stage": int(stage), "role": string(caller.Role)}
	defer func() { s.observe(ctx, "complete-stage", startedAt, fields, err) }()

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadStage(ctx, repos, caller, caseID, stage)
		if err != nil {
			return err
		}
		if err := domain.EditError(domain.CanEdit(c, stage, m.Role)); err != nil {
			return err
		}
		data, err := payloadData(ctx, repos, c, stage)
		if err != nil {
			return err
		}
		up, err := upstream(ctx, repos, c, stage)
		if err != nil {
			return err
		}
		if err := s.validator.Ready(stage, data, up); err != nil {
			return err
		}
		// The last stage is closed by a session outcome decision.
		if stage == domain.LastStage {
			out = &app.StageCompletion{State: app.StateOf(c)}
			return nil
		}
		if err := c.Advance(stage, s.now()); err != nil {
			return err
		}
		if err := s.touch(ctx, repos, c); err != nil {
			return err
		}
		out = &app.StageCompletion{State: app.StateOf(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["current_stage"] = int(out.State.CurrentStage)
	return out, nil
}

// save prepares, validates and stores a draft, then bumps the case version
// so concurrent transitions observe the write.
func (s *progressionService) save(ctx context.Context, repos repository.Set, c *domain.Case, m *domain.CaseMember, stage domain.Stage, data domain.Payload) (*domain.StagePayload, error) {
	if data == nil {
		return nil, domain.Validationf("payload is required")
	}
	now := s.now()
	session := c.PayloadSession(stage)
	prev, err := repos.Payloads.Get(ctx, c.ID, stage, session)
	if errors.Is(err, repository.ErrNotFound) {
		prev = nil
	} else if err != nil {
		return nil, err
	}

	if log, ok := data.(*domain.ActivityProgress); ok {
		var stored *domain.ActivityProgress
		if prev != nil {
			stored = as[*domain.ActivityProgress](prev.Data)
		}
		merged, err := attributeProgress(stored, log, m, now)
		if err != nil {
			return nil, err
		}
		data = merged
	}
	s.assignIDs(data)

	up, err := upstream(ctx, repos, c, stage)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Draft(stage, data, up); err != nil {
		return nil, err
	}
	if summary, ok := data.(*domain.AssessmentSummary); ok {
		domain.Assess(up.Tasks, up.Scores, summary.CutoffPercentage).Apply(summary)
	}

	p := &domain.StagePayload{
		CaseID:        c.ID,
		Stage:         stage,
		SessionNumber: session,
		Data:          data,
		AuthorID:      m.UserID,
		AuthorRole:    m.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if prev != nil {
		p.CreatedAt = prev.CreatedAt
	}
	if err := repos.Payloads.Upsert(ctx, p); err != nil {
		return nil, err
	}
	if err := s.touch(ctx, repos, c); err != nil {
		return nil, err
	}
	return p, nil
}

// assignIDs gives new list items a server id.
func (s *progressionService) assignIDs(data domain.Payload) {
	switch p := data.(type) {
	case *domain.TaskDefinitions:
		for i := range p.Tasks {
			if p.Tasks[i].ID == "" {
				p.Tasks[i].ID = s.newID()
			}
		}
	case *domain.ActivityAssignments:
		for i := range p.Activities {
			if p.Activities[i].ID == "" {
				p.Activities[i].ID = s.newID()
			}
		}
	case *domain.ActivityProgress:
		for i := range p.Entries {
			if p.Entries[i].ID == "" {
				p.Entries[i].ID = s.newID()
			}
		}
	}
}

// attributeProgress reconciles a submitted progress log with the stored one.
// Recorder fields are never taken from the client: existing entries keep
// their stored attribution and new entries are credited to m. A member may
// edit or drop only the entries they recorded; entries of other members
// that the submission omits are kept.
func attributeProgress(stored, submitted *domain.ActivityProgress, m *domain.CaseMember, now time.Time) (*domain.ActivityProgress, error) {
	out := &domain.ActivityProgress{}
	used := make([]bool, len(submitted.Entries))
	if stored != nil {
		for _, old := range stored.Entries {
			i := slices.IndexFunc(submitted.Entries, func(e domain.ProgressEntry) bool { return e.ID != "" && e.ID == old.ID })
			if i < 0 {
				if old.RecordedBy != "" && old.RecordedBy != m.UserID {
					out.Entries = append(out.Entries, old)
				}
				continue
			}
			used[i] = true
			e := submitted.Entries[i]
			e.RecordedBy, e.RecordedRole, e.RecordedAt = old.RecordedBy, old.RecordedRole, old.RecordedAt
			if old.RecordedBy != "" && old.RecordedBy != m.UserID && e != old {
				return nil, &domain.Error{
					Code:    domain.CodeForbidden,
					Message: fmt.Sprintf("progress entry %q was recorded by another member", old.ID),
					Reason:  domain.ReasonNotRecorder,
				}
			}
			out.Entries = append(out.Entries, e)
		}
	}
	for i, e := range submitted.Entries {
		if used[i] {
			continue
		}
		e.RecordedBy, e.RecordedRole, e.RecordedAt = m.UserID, m.Role, now
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}
