package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestCase() *Case {
	return NewCase("case-1", "teacher-1", Student{
		Name:     "Ada",
		Birthday: time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
		School:   "Northside",
		Grade:    "3",
		Gender:   GenderFemale,
	}, testNow)
}

func TestNewCase_StartsAtFirstStage(t *testing.T) {
	c := newTestCase()
	assert.Equal(t, StageHandwriting, c.CurrentStage)
	assert.Empty(t, c.CompletedStages)
	assert.Equal(t, 1, c.SessionNumber)
	assert.False(t, c.CaseCompleted)
	require.NoError(t, c.CheckInvariants())
}

func TestStudentValidate(t *testing.T) {
	s := newTestCase().Student
	require.NoError(t, s.Validate())

	s.Name = "  "
	assert.ErrorContains(t, s.Validate(), "name")

	s = newTestCase().Student
	s.Gender = "unknown"
	assert.ErrorContains(t, s.Validate(), "gender")
}

func TestAdvance_MovesPointerAndRecordsCompletion(t *testing.T) {
	c := newTestCase()
	for s := StageHandwriting; s < LastStage; s++ {
		require.NoError(t, c.Advance(s, testNow))
		assert.Equal(t, s+1, c.CurrentStage)
		assert.True(t, c.IsStageCompleted(s))
		require.NoError(t, c.CheckInvariants())
	}
	assert.Equal(t, LastStage, c.CurrentStage)
	assert.True(t, c.AwaitingDecision())
}

func TestAdvance_RejectsNonCurrentStage(t *testing.T) {
	c := newTestCase()
	err := c.Advance(StageTasks, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Equal(t, StageHandwriting, c.CurrentStage)
}

func TestAdvance_LastStageNeedsDecision(t *testing.T) {
	c := newTestCase()
	c.CurrentStage = LastStage
	c.CompletedStages = []Stage{1, 2, 3, 4, 5, 6}
	err := c.Advance(LastStage, testNow)
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, c.IsStageCompleted(LastStage))
}

func TestRestartCourse_KeepsAssessmentStages(t *testing.T) {
	c := newTestCase()
	c.CurrentStage = LastStage
	c.CompletedStages = []Stage{1, 2, 3, 4, 5, 6}
	later := testNow.Add(48 * time.Hour)

	c.RestartCourse(later)

	assert.Equal(t, StageActivities, c.CurrentStage)
	assert.Equal(t, []Stage{1, 2, 3, 4}, c.CompletedStages)
	assert.Equal(t, 2, c.SessionNumber)
	assert.Equal(t, later, c.SessionStartedAt)
	assert.False(t, c.CaseCompleted)
	require.NoError(t, c.CheckInvariants())
}

func TestCloseCourse_MarksCompleted(t *testing.T) {
	c := newTestCase()
	c.CurrentStage = LastStage
	c.CompletedStages = []Stage{1, 2, 3, 4, 5, 6}

	c.CloseCourse(testNow)

	assert.True(t, c.CaseCompleted)
	assert.True(t, c.IsStageCompleted(LastStage))
	assert.False(t, c.AwaitingDecision())
	require.NoError(t, c.CheckInvariants())
}

func TestResetProgress_KeepsIdentity(t *testing.T) {
	c := newTestCase()
	c.CurrentStage = StageProgress
	c.CompletedStages = []Stage{1, 2, 3, 4, 5}
	c.SessionNumber = 3
	student := c.Student

	c.ResetProgress(testNow)

	assert.Equal(t, StageHandwriting, c.CurrentStage)
	assert.Empty(t, c.CompletedStages)
	assert.Equal(t, 1, c.SessionNumber)
	assert.Equal(t, student, c.Student)
}

func TestPayloadSession(t *testing.T) {
	c := newTestCase()
	c.SessionNumber = 3
	assert.Equal(t, 1, c.PayloadSession(StageTasks))
	assert.Equal(t, 1, c.PayloadSession(StageAssessment))
	assert.Equal(t, 3, c.PayloadSession(StageActivities))
	assert.Equal(t, 3, c.PayloadSession(StageEvaluation))
}

func TestCheckInvariants_DetectsCurrentInCompleted(t *testing.T) {
	c := newTestCase()
	c.CurrentStage = StageTasks
	c.CompletedStages = []Stage{1, 2}
	assert.Error(t, c.CheckInvariants())
}
