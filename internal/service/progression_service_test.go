package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/testutil"
)

func TestSubmitStagePayload_ScoresWithinTaskBounds(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageScoring)

	stored := h.submit(t, id, teacher, domain.StageScoring, testutil.NewTestScores(7))
	sc, ok := stored.Data.(*domain.TaskScores).Find("t1")
	require.True(t, ok)
	assert.Equal(t, 70.0, domain.ScorePercentage(sc.Score, 10))

	_, err := h.progress.SubmitStagePayload(ctx, teacher, id, domain.StageScoring, testutil.NewTestScores(11))
	assertCode(t, err, domain.CodeValidation)

	// The rejected draft leaves the stored one untouched.
	view, err := h.progress.GetStagePayload(ctx, teacher, id, domain.StageScoring)
	require.NoError(t, err)
	require.NotNil(t, view.Payload)
	got, _ := view.Payload.Data.(*domain.TaskScores).Find("t1")
	assert.Equal(t, 7.0, got.Score)
}

func TestCompleteStage_WithoutPayloadIsNotReady(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageAssessment)

	_, err := h.progress.CompleteStage(context.Background(), doctor, id, domain.StageAssessment)
	assertCode(t, err, domain.CodeStageNotReady)
	assert.Equal(t, domain.StageAssessment, h.state(t, id).CurrentStage)
}

func TestCompleteStage_PartialScoringNamesMissingTask(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageScoring)
	h.submit(t, id, teacher, domain.StageScoring, testutil.NewTestScores(7))

	_, err := h.progress.CompleteStage(context.Background(), teacher, id, domain.StageScoring)
	assertCode(t, err, domain.CodeStageNotReady)
	assert.Contains(t, err.Error(), "Task 2")
}

func TestSubmitStagePayload_Gates(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageTasks)

	tests := []struct {
		name   string
		caller domain.Caller
		stage  domain.Stage
		data   domain.Payload
		code   domain.ErrorCode
		reason domain.AccessReason
	}{
		{"teacher on doctor stage", teacher, domain.StageTasks, testutil.NewTestTasks(10), domain.CodeForbidden, domain.ReasonWrongRole},
		{"closed stage", teacher, domain.StageHandwriting, testutil.NewTestHandwriting(), domain.CodeLocked, domain.ReasonStageClosed},
		{"future stage", teacher, domain.StageScoring, testutil.NewTestScores(1), domain.CodeLocked, domain.ReasonNotUnlocked},
		{"non member", stranger, domain.StageTasks, testutil.NewTestTasks(10), domain.CodeForbidden, domain.ReasonNotMember},
		{"claimed role differs from membership", domain.Caller{UserID: "parent-1", Role: domain.RoleDoctor}, domain.StageTasks, testutil.NewTestTasks(10), domain.CodeForbidden, domain.ReasonWrongRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.progress.SubmitStagePayload(ctx, tt.caller, id, tt.stage, tt.data)
			assertCode(t, err, tt.code)
			var e *domain.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.reason, e.Reason)
		})
	}
}

func TestSubmitStagePayload_UnknownCaseAndStage(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)

	_, err := h.progress.SubmitStagePayload(ctx, teacher, "missing", domain.StageHandwriting, testutil.NewTestHandwriting())
	assertCode(t, err, domain.CodeUnknownCase)

	// An unknown stage is reported before membership.
	_, err = h.progress.SubmitStagePayload(ctx, stranger, id, 8, testutil.NewTestHandwriting())
	assertCode(t, err, domain.CodeUnknownStage)
}

func TestSubmitStagePayload_WrongShapeIsValidationError(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)

	_, err := h.progress.SubmitStagePayload(context.Background(), teacher, id, domain.StageHandwriting, testutil.NewTestTasks(10))
	assertCode(t, err, domain.CodeValidation)
}

func TestSubmitStagePayload_AssignsIDsAndKeepsCreatedAt(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageTasks)

	tasks := &domain.TaskDefinitions{Tasks: []domain.TaskDefinition{{Name: "Spelling", MaxScore: 20}}}
	first := h.submit(t, id, doctor, domain.StageTasks, tasks)
	assigned := first.Data.(*domain.TaskDefinitions).Tasks[0].ID
	assert.NotEmpty(t, assigned)

	second := h.submit(t, id, doctor, domain.StageTasks, first.Data)
	assert.Equal(t, assigned, second.Data.(*domain.TaskDefinitions).Tasks[0].ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, domain.RoleDoctor, second.AuthorRole)
}

func TestSubmitStagePayload_DerivesAssessment(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageScoring)
	h.submit(t, id, teacher, domain.StageScoring, testutil.NewTestScores(7, 4))
	h.complete(t, id, teacher, domain.StageScoring)

	// A client-supplied total is recomputed from the scores.
	stored := h.submit(t, id, doctor, domain.StageAssessment, &domain.AssessmentSummary{CutoffPercentage: 60, TotalScore: 99})
	summary := stored.Data.(*domain.AssessmentSummary)
	assert.Equal(t, 11.0, summary.TotalScore)
	assert.Equal(t, 20.0, summary.TotalMaxScore)
	assert.InDelta(t, 55.0, summary.Percentage(), 1e-9)
	assert.Equal(t, domain.RiskMedium, summary.RiskLevel)
	assert.True(t, summary.DyslexiaIndication)
	assert.Equal(t, []string{"t2"}, summary.UnderperformingTasks)
}

func TestCompleteStage_AdvancesOneStep(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.submit(t, id, teacher, domain.StageHandwriting, testutil.NewTestHandwriting())

	st := h.complete(t, id, teacher, domain.StageHandwriting)
	assert.Equal(t, domain.StageTasks, st.CurrentStage)
	assert.Equal(t, []domain.Stage{domain.StageHandwriting}, st.CompletedStages)
	assert.False(t, st.CaseCompleted)

	_, err := h.progress.CompleteStage(context.Background(), teacher, id, domain.StageHandwriting)
	assertCode(t, err, domain.CodeLocked)
}

func TestCompleteStage_LastStageAwaitsDecision(t *testing.T) {
	h := setupEngine(t)
	id := h.openCase(t)
	h.readyForDecision(t, id)

	st := h.complete(t, id, doctor, domain.StageEvaluation)
	assert.Equal(t, domain.StageEvaluation, st.CurrentStage)
	assert.True(t, st.AwaitingDecision)
	assert.False(t, st.CaseCompleted)
	assert.NotContains(t, st.CompletedStages, domain.StageEvaluation)
}

func TestGetStagePayload_Visibility(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageTasks)

	view, err := h.progress.GetStagePayload(ctx, parent, id, domain.StageHandwriting)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewReadOnly, view.Status)
	require.NotNil(t, view.Payload)
	assert.Equal(t, 62.5, view.Payload.Data.(*domain.HandwritingAnalysis).Score)

	view, err = h.progress.GetStagePayload(ctx, doctor, id, domain.StageTasks)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewEditable, view.Status)
	assert.Nil(t, view.Payload)

	_, err = h.progress.GetStagePayload(ctx, doctor, id, domain.StageScoring)
	assertCode(t, err, domain.CodeForbidden)

	_, err = h.progress.GetStagePayload(ctx, stranger, id, domain.StageHandwriting)
	assertCode(t, err, domain.CodeForbidden)
}

func TestGetStagePayload_EvaluationRedactedForNonDoctors(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.readyForDecision(t, id)

	view, err := h.progress.GetStagePayload(ctx, doctor, id, domain.StageEvaluation)
	require.NoError(t, err)
	assert.Equal(t, "Refer to OT if no change", view.Payload.Data.(*domain.FinalEvaluation).ClinicalNotes)

	view, err = h.progress.GetStagePayload(ctx, parent, id, domain.StageEvaluation)
	require.NoError(t, err)
	eval := view.Payload.Data.(*domain.FinalEvaluation)
	assert.Empty(t, eval.ClinicalNotes)
	assert.Empty(t, eval.ReferralsNeeded)
	assert.Equal(t, domain.DiagnosisMild, eval.FinalDiagnosis)
}

func TestRecordActivityProgress_AppendsEntries(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageProgress)

	_, err := h.progress.RecordActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("", "a1"))
	require.NoError(t, err)
	stored, err := h.progress.RecordActivityProgress(ctx, teacher, id, testutil.NewTestProgressEntry("", "a2"))
	require.NoError(t, err)

	entries := stored.Data.(*domain.ActivityProgress).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "parent-1", entries[0].RecordedBy)
	assert.Equal(t, domain.RoleParent, entries[0].RecordedRole)
	assert.Equal(t, "teacher-1", entries[1].RecordedBy)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	_, err = h.progress.RecordActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("", "unassigned"))
	assertCode(t, err, domain.CodeValidation)

	_, err = h.progress.RecordActivityProgress(ctx, doctor, id, testutil.NewTestProgressEntry("", "a1"))
	assertCode(t, err, domain.CodeForbidden)

	bad := testutil.NewTestProgressEntry("", "a1")
	bad.StudentEngagement = 11
	_, err = h.progress.RecordActivityProgress(ctx, parent, id, bad)
	assertCode(t, err, domain.CodeValidation)
}

func TestSubmitStagePayload_ProgressKeepsAttribution(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageProgress)

	recorded, err := h.progress.RecordActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("", "a1"))
	require.NoError(t, err)
	parentEntry := recorded.Data.(*domain.ActivityProgress).Entries[0]

	// Recorder fields sent by the client are ignored and omitted entries of
	// other members survive.
	claimed := testutil.NewTestProgressEntry("", "a2")
	claimed.RecordedBy = parent.UserID
	claimed.RecordedRole = domain.RoleParent
	stored := h.submit(t, id, teacher, domain.StageProgress, &domain.ActivityProgress{Entries: []domain.ProgressEntry{claimed}})
	entries := stored.Data.(*domain.ActivityProgress).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, parentEntry.ID, entries[0].ID)
	assert.Equal(t, parent.UserID, entries[0].RecordedBy)
	assert.Equal(t, teacher.UserID, entries[1].RecordedBy)
	assert.Equal(t, domain.RoleTeacher, entries[1].RecordedRole)

	// Resubmitting the log unchanged is fine; rewriting another member's
	// entry is not.
	h.submit(t, id, teacher, domain.StageProgress, &domain.ActivityProgress{Entries: entries})
	edited := entries[0]
	edited.Notes = "rewritten by teacher"
	_, err = h.progress.SubmitStagePayload(ctx, teacher, id, domain.StageProgress,
		&domain.ActivityProgress{Entries: []domain.ProgressEntry{edited, entries[1]}})
	assertCode(t, err, domain.CodeForbidden)

	// A member may drop their own entries.
	stored = h.submit(t, id, parent, domain.StageProgress, &domain.ActivityProgress{})
	entries = stored.Data.(*domain.ActivityProgress).Entries
	require.Len(t, entries, 1)
	assert.Equal(t, teacher.UserID, entries[0].RecordedBy)
}

func TestUpdateActivityProgress(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageProgress)

	recorded, err := h.progress.RecordActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("", "a1"))
	require.NoError(t, err)
	entryID := recorded.Data.(*domain.ActivityProgress).Entries[0].ID
	_, err = h.progress.RecordActivityProgress(ctx, teacher, id, testutil.NewTestProgressEntry("", "a2"))
	require.NoError(t, err)

	changed := testutil.NewTestProgressEntry(entryID, "a1")
	changed.Notes = "Better focus"
	changed.StudentEngagement = 9
	stored, err := h.progress.UpdateActivityProgress(ctx, parent, id, changed)
	require.NoError(t, err)
	entries := stored.Data.(*domain.ActivityProgress).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, "Better focus", entries[0].Notes)
	assert.Equal(t, 9, entries[0].StudentEngagement)
	assert.Equal(t, parent.UserID, entries[0].RecordedBy)

	changed.Notes = "teacher edit"
	_, err = h.progress.UpdateActivityProgress(ctx, teacher, id, changed)
	assertCode(t, err, domain.CodeForbidden)

	_, err = h.progress.UpdateActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("missing", "a1"))
	assertCode(t, err, domain.CodeValidation)
	_, err = h.progress.UpdateActivityProgress(ctx, parent, id, testutil.NewTestProgressEntry("", "a1"))
	assertCode(t, err, domain.CodeValidation)
	_, err = h.progress.UpdateActivityProgress(ctx, doctor, id, changed)
	assertCode(t, err, domain.CodeForbidden)
}

func TestActivityProgressHistory(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageProgress)

	later := testutil.NewTestProgressEntry("", "a1")
	later.SessionDate = "2025-06-20"
	earlier := testutil.NewTestProgressEntry("", "a1")
	earlier.SessionDate = "2025-06-01"
	for _, rec := range []struct {
		as    domain.Caller
		entry domain.ProgressEntry
	}{
		{parent, later},
		{teacher, testutil.NewTestProgressEntry("", "a2")},
		{teacher, earlier},
	} {
		_, err := h.progress.RecordActivityProgress(ctx, rec.as, id, rec.entry)
		require.NoError(t, err)
	}

	history, err := h.progress.ActivityProgressHistory(ctx, doctor, id, "a1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-06-01", history[0].SessionDate)
	assert.Equal(t, "2025-06-20", history[1].SessionDate)

	history, err = h.progress.ActivityProgressHistory(ctx, parent, id, "a2")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = h.progress.ActivityProgressHistory(ctx, doctor, id, "zz")
	assertCode(t, err, domain.CodeValidation)
	_, err = h.progress.ActivityProgressHistory(ctx, stranger, id, "a1")
	assertCode(t, err, domain.CodeForbidden)

	fresh := h.openCase(t)
	_, err = h.progress.ActivityProgressHistory(ctx, parent, fresh, "a1")
	assertCode(t, err, domain.CodeForbidden)
}

func TestEvaluation_DraftAndReadiness(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageEvaluation)

	// Free text is always draftable.
	h.submit(t, id, doctor, domain.StageEvaluation, &domain.FinalEvaluation{ShortTermGoals: "Read aloud nightly"})

	_, err := h.progress.SubmitStagePayload(ctx, doctor, id, domain.StageEvaluation, &domain.FinalEvaluation{FinalDiagnosis: "bogus"})
	assertCode(t, err, domain.CodeValidation)

	_, err = h.progress.CompleteStage(ctx, doctor, id, domain.StageEvaluation)
	assertCode(t, err, domain.CodeStageNotReady)
	assert.Contains(t, err.Error(), "final diagnosis")
}
