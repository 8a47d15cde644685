package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
)

type archiveService struct {
	*engine
}

func NewArchiveService(reads repository.Set, uow db.UnitOfWork, observers ...UseCaseObserver) ArchiveService {
	return &archiveService{engine: newEngine(reads, uow, nil, observers)}
}

// ListReports returns the case's reports in session order, projected for
// the caller's role. The open session is appended as an ongoing projection
// once its activities are assigned.
func (s *archiveService) ListReports(ctx context.Context, caller domain.Caller, q app.ReportQuery) ([]domain.TherapyReport, error) {
	c, m, err := loadCase(ctx, s.reads, caller, q.CaseID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reads.Reports.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TherapyReport, 0, len(reports)+1)
	for _, r := range reports {
		out = append(out, r.ProjectFor(m.Role))
	}

	if q.IncludeOngoing && !c.CaseCompleted && c.CurrentStage >= domain.RestartStage {
		snap, err := snapshot(ctx, s.reads, c)
		if err != nil {
			return nil, err
		}
		if snap.Activities == nil {
			return out, nil
		}
		ongoing := domain.NewTherapyReport("", c, domain.OutcomeOngoing, "", snap, "", s.now())
		out = append(out, ongoing.ProjectFor(m.Role))
	}
	return out, nil
}

func (s *archiveService) GetReport(ctx context.Context, caller domain.Caller, caseID string, session int) (*domain.TherapyReport, error) {
	c, m, err := loadCase(ctx, s.reads, caller, caseID)
	if err != nil {
		return nil, err
	}
	r, err := s.reads.Reports.GetBySession(ctx, c.ID, session)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.CodeUnknownReport, fmt.Sprintf("no report for session %d", session))
	}
	if err != nil {
		return nil, err
	}
	projected := r.ProjectFor(m.Role)
	return &projected, nil
}
