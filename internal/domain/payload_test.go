package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_ShapePerStage(t *testing.T) {
	for _, spec := range Stages() {
		p, err := DecodePayload(spec.Number, []byte(`{}`))
		require.NoError(t, err, "stage %d", spec.Number)
		assert.Equal(t, spec.Kind, p.PayloadKind())
	}
}

func TestDecodePayload_RejectsUnknownFields(t *testing.T) {
	_, err := DecodePayload(StageTasks, []byte(`{"taks": []}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "stage 2")
}

func TestDecodePayload_UnknownStage(t *testing.T) {
	_, err := DecodePayload(8, []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestDecodePayload_TaskScores(t *testing.T) {
	p, err := DecodePayload(StageScoring, []byte(`{"scores":[{"task_id":"t1","score_obtained":7}]}`))
	require.NoError(t, err)
	scores := p.(*TaskScores)
	sc, ok := scores.Find("t1")
	require.True(t, ok)
	assert.Equal(t, 7.0, sc.Score)
	_, ok = scores.Find("t2")
	assert.False(t, ok)
}

func TestFinalEvaluationRedacted(t *testing.T) {
	e := FinalEvaluation{
		FinalDiagnosis:  DiagnosisMild,
		ClinicalNotes:   "handoff",
		ReferralsNeeded: "ot",
		ShortTermGoals:  "read daily",
	}
	r := e.Redacted()
	assert.Empty(t, r.ClinicalNotes)
	assert.Empty(t, r.ReferralsNeeded)
	assert.Equal(t, "read daily", r.ShortTermGoals)
	assert.Equal(t, "handoff", e.ClinicalNotes, "original untouched")
}

func TestTherapyReportProjectFor(t *testing.T) {
	c := newTestCase()
	eval := &FinalEvaluation{FinalDiagnosis: DiagnosisMild, ClinicalNotes: "private"}
	r := NewTherapyReport("r1", c, OutcomeTerminated, "goals met", SessionSnapshot{
		Activities: &ActivityAssignments{Activities: []Activity{{ID: "a1"}}},
		Progress:   &ActivityProgress{Entries: []ProgressEntry{{ID: "p1"}, {ID: "p2"}}},
		Evaluation: eval,
	}, "doc-1", testNow)

	assert.Equal(t, 1, r.TotalActivities)
	assert.Equal(t, 2, r.ProgressRecords)
	assert.Equal(t, DiagnosisMild, r.Diagnosis)
	assert.Equal(t, testNow, r.EndedAt)

	assert.Equal(t, "private", r.ProjectFor(RoleDoctor).Evaluation.ClinicalNotes)
	assert.Empty(t, r.ProjectFor(RoleParent).Evaluation.ClinicalNotes)
	assert.Equal(t, "private", r.Evaluation.ClinicalNotes)
}

func TestDiagnosisIsTerminal(t *testing.T) {
	assert.True(t, DiagnosisMild.IsTerminal())
	assert.True(t, DiagnosisNone.IsTerminal())
	assert.False(t, DiagnosisFurtherAssess.IsTerminal())
	assert.False(t, Diagnosis("").IsTerminal())
}
