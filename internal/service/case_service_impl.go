package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
)

type caseService struct {
	*engine
}

func NewCaseService(reads repository.Set, uow db.UnitOfWork, observers ...UseCaseObserver) CaseService {
	return &caseService{engine: newEngine(reads, uow, nil, observers)}
}

// Create opens a case for a student. Only teachers open cases; the creating
// teacher is linked as the first member.
func (s *caseService) Create(ctx context.Context, caller domain.Caller, req app.CreateCaseRequest) (c *domain.Case, err error) {
	startedAt := time.Now()
	fields := map[string]any{"role": string(caller.Role)}
	defer func() { s.observe(ctx, "create-case", startedAt, fields, err) }()

	if caller.Role != domain.RoleTeacher {
		return nil, &domain.Error{Code: domain.CodeForbidden, Message: "only teachers can open a case", Reason: domain.ReasonWrongRole}
	}
	if err := req.Student.Validate(); err != nil {
		return nil, domain.Validationf(err.Error())
	}
	members := []*domain.CaseMember{{UserID: caller.UserID, Role: domain.RoleTeacher}}
	seen := map[string]bool{}
	for _, ids := range []struct {
		role domain.Role
		ids  []string
	}{{domain.RoleDoctor, req.DoctorIDs}, {domain.RoleParent, req.ParentIDs}} {
		for _, id := range ids.ids {
			if id == "" || id == caller.UserID {
				return nil, domain.Validationf(fmt.Sprintf("invalid %s id %q", ids.role, id))
			}
			if seen[id] {
				return nil, domain.Validationf(fmt.Sprintf("user %q is listed more than once", id))
			}
			seen[id] = true
			members = append(members, &domain.CaseMember{UserID: id, Role: ids.role})
		}
	}

	now := s.now()
	c = domain.NewCase(s.newID(), caller.UserID, req.Student, now)
	err = s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		if err := repos.Cases.Create(ctx, c); err != nil {
			return err
		}
		for _, m := range members {
			m.CaseID = c.ID
			m.AddedAt = now
			if err := repos.Members.Add(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["case_id"] = c.ID
	fields["members"] = len(members)
	return c, nil
}

func (s *caseService) List(ctx context.Context, caller domain.Caller) ([]*domain.Case, error) {
	return s.reads.Cases.ListForMember(ctx, caller.UserID)
}

func (s *caseService) GetState(ctx context.Context, caller domain.Caller, caseID string) (*app.CaseState, error) {
	c, _, err := loadCase(ctx, s.reads, caller, caseID)
	if err != nil {
		return nil, err
	}
	st := app.StateOf(c)
	return &st, nil
}

func (s *caseService) View(ctx context.Context, caller domain.Caller, caseID string) (*app.CaseView, error) {
	c, m, err := loadCase(ctx, s.reads, caller, caseID)
	if err != nil {
		return nil, err
	}
	members, err := s.reads.Members.List(ctx, caseID)
	if err != nil {
		return nil, err
	}
	payloads, err := s.reads.Payloads.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	saved := make(map[domain.Stage]bool)
	for _, p := range payloads {
		if p.SessionNumber == c.PayloadSession(p.Stage) {
			saved[p.Stage] = true
		}
	}

	view := &app.CaseView{Case: c, State: app.StateOf(c), Role: m.Role, Members: members}
	for _, spec := range domain.Stages() {
		st := app.StageStatus{
			Stage:      spec.Number,
			Title:      spec.Title,
			Owners:     spec.Owners,
			Status:     domain.StatusFor(c, spec.Number, m.Role),
			Completed:  c.IsStageCompleted(spec.Number),
			HasPayload: saved[spec.Number],
		}
		if a := domain.CanEdit(c, spec.Number, m.Role); !a.Allowed {
			st.Reason = a.Reason
		}
		view.Stages = append(view.Stages, st)
	}
	return view, nil
}

// AddMember links a doctor, parent or co-teacher. Only a teacher on the case
// manages its members.
func (s *caseService) AddMember(ctx context.Context, caller domain.Caller, caseID, userID string, role domain.Role) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "member": userID, "member_role": string(role)}
	defer func() { s.observe(ctx, "add-member", startedAt, fields, err) }()

	if !domain.ValidRoles[role] {
		return domain.Validationf(fmt.Sprintf("unknown role %q", role))
	}
	if userID == "" {
		return domain.Validationf("user id is required")
	}
	return s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadCase(ctx, repos, caller, caseID)
		if err != nil {
			return err
		}
		if err := requireRole(m, "manage case members", domain.RoleTeacher); err != nil {
			return err
		}
		if userID == c.TeacherID && role != domain.RoleTeacher {
			return domain.Validationf("the case teacher cannot change role")
		}
		return repos.Members.Add(ctx, &domain.CaseMember{CaseID: caseID, UserID: userID, Role: role, AddedAt: s.now()})
	})
}

func (s *caseService) RemoveMember(ctx context.Context, caller domain.Caller, caseID, userID string) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"case_id": caseID, "member": userID}
	defer func() { s.observe(ctx, "remove-member", startedAt, fields, err) }()

	return s.inTx(ctx, func(ctx context.Context, repos repository.Set) error {
		c, m, err := loadCase(ctx, repos, caller, caseID)
		if err != nil {
			return err
		}
		if err := requireRole(m, "manage case members", domain.RoleTeacher); err != nil {
			return err
		}
		if userID == c.TeacherID {
			return domain.Validationf("the case teacher cannot be unlinked")
		}
		err = repos.Members.Remove(ctx, caseID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Validationf(fmt.Sprintf("user %q is not linked to this case", userID))
		}
		return err
	})
}
