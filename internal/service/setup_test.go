package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/testutil"
	"github.com/alexanderramin/caseflow/internal/validation"
)

var (
	teacher  = domain.Caller{UserID: "teacher-1", Role: domain.RoleTeacher}
	doctor   = domain.Caller{UserID: "doctor-1", Role: domain.RoleDoctor}
	parent   = domain.Caller{UserID: "parent-1", Role: domain.RoleParent}
	stranger = domain.Caller{UserID: "nobody", Role: domain.RoleDoctor}
)

// harness wires every service over one database, the way the CLI does.
type harness struct {
	db        *sql.DB
	reads     repository.Set
	cases     CaseService
	progress  ProgressionService
	lifecycle LifecycleService
	archive   ArchiveService
	recs      RecommendationService
}

func setupEngine(t *testing.T) *harness {
	t.Helper()
	return newHarness(testutil.NewTestDB(t))
}

func newHarness(database *sql.DB, observers ...UseCaseObserver) *harness {
	reads := repository.NewSQLiteSet(database)
	uow := testutil.NewTestUoW(database)
	v := validation.New()
	return &harness{
		db:        database,
		reads:     reads,
		cases:     NewCaseService(reads, uow, observers...),
		progress:  NewProgressionService(reads, uow, v, observers...),
		lifecycle: NewLifecycleService(reads, uow, v, observers...),
		archive:   NewArchiveService(reads, uow, observers...),
		recs:      NewRecommendationService(reads, uow, v, observers...),
	}
}

// openCase creates a case as teacher-1 with doctor-1 and parent-1 linked.
func (h *harness) openCase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := h.cases.Create(ctx, teacher, app.CreateCaseRequest{
		Student:   testutil.NewTestStudent("Ada"),
		DoctorIDs: []string{doctor.UserID},
		ParentIDs: []string{parent.UserID},
	})
	require.NoError(t, err)
	return c.ID
}

func (h *harness) submit(t *testing.T, caseID string, as domain.Caller, stage domain.Stage, p domain.Payload) *domain.StagePayload {
	t.Helper()
	stored, err := h.progress.SubmitStagePayload(context.Background(), as, caseID, stage, p)
	require.NoError(t, err)
	return stored
}

func (h *harness) complete(t *testing.T, caseID string, as domain.Caller, stage domain.Stage) app.CaseState {
	t.Helper()
	out, err := h.progress.CompleteStage(context.Background(), as, caseID, stage)
	require.NoError(t, err)
	return out.State
}

func (h *harness) state(t *testing.T, caseID string) app.CaseState {
	t.Helper()
	st, err := h.cases.GetState(context.Background(), teacher, caseID)
	require.NoError(t, err)
	return *st
}

// driveTo fills and completes every stage before target with default
// payloads: tasks of 10 and 10 scored 7 and 5, a 60% cutoff, activities
// a1 and a2 and one parent progress entry.
func (h *harness) driveTo(t *testing.T, caseID string, target domain.Stage) {
	t.Helper()
	ctx := context.Background()
	for stage := h.state(t, caseID).CurrentStage; stage < target; stage++ {
		switch stage {
		case domain.StageHandwriting:
			h.submit(t, caseID, teacher, stage, testutil.NewTestHandwriting())
			h.complete(t, caseID, teacher, stage)
		case domain.StageTasks:
			h.submit(t, caseID, doctor, stage, testutil.NewTestTasks(10, 10))
			h.complete(t, caseID, doctor, stage)
		case domain.StageScoring:
			h.submit(t, caseID, teacher, stage, testutil.NewTestScores(7, 5))
			h.complete(t, caseID, teacher, stage)
		case domain.StageAssessment:
			h.submit(t, caseID, doctor, stage, &domain.AssessmentSummary{CutoffPercentage: 60})
			h.complete(t, caseID, doctor, stage)
		case domain.StageActivities:
			h.submit(t, caseID, doctor, stage, testutil.NewTestActivities("a1", "a2"))
			h.complete(t, caseID, doctor, stage)
		case domain.StageProgress:
			_, err := h.progress.RecordActivityProgress(ctx, parent, caseID, testutil.NewTestProgressEntry("", "a1"))
			require.NoError(t, err)
			h.complete(t, caseID, parent, stage)
		}
	}
	require.Equal(t, target, h.state(t, caseID).CurrentStage)
}

// readyForDecision drives a case to stage 7 and saves a mild diagnosis.
func (h *harness) readyForDecision(t *testing.T, caseID string) {
	t.Helper()
	h.driveTo(t, caseID, domain.StageEvaluation)
	h.submit(t, caseID, doctor, domain.StageEvaluation, testutil.NewTestEvaluation(domain.DiagnosisMild))
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domain.CodeOf(err), "unexpected error: %v", err)
}
