package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func TestCreateCaseRequest_ToApp(t *testing.T) {
	req := CreateCaseRequest{
		StudentName: " Ada ", Birthday: "2015-03-01", School: "Northside", Grade: "3", Gender: "Female",
		DoctorIDs: []string{"d-1"},
	}
	got, err := req.ToApp()
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Student.Name)
	assert.Equal(t, time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC), got.Student.Birthday)
	assert.Equal(t, domain.GenderFemale, got.Student.Gender)
	assert.Equal(t, []string{"d-1"}, got.DoctorIDs)

	req.Birthday = "01/03/2015"
	_, err = req.ToApp()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewCaseState_EmptyCompletedIsArray(t *testing.T) {
	data, err := json.Marshal(NewCaseState(app.CaseState{CaseID: "c", CurrentStage: 1, SessionNumber: 1}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"completed_stages":[]`)
}

func TestNewStagePayload_RawData(t *testing.T) {
	p, err := NewStagePayload(&domain.StagePayload{
		CaseID: "c", Stage: domain.StageScoring, SessionNumber: 1,
		Data: &domain.TaskScores{Scores: []domain.TaskScore{{TaskID: "t1", Score: 7}}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindScores, p.Kind)
	assert.JSONEq(t, `{"scores":[{"task_id":"t1","score_obtained":7}]}`, string(p.Data))

	none, err := NewStagePayload(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNewErrorEnvelope(t *testing.T) {
	env := NewErrorEnvelope(fmt.Errorf("wrapped: %w", domain.EditError(domain.Access{Reason: domain.ReasonNotUnlocked})))
	assert.Equal(t, "LOCKED", env.Error.Code)
	assert.Equal(t, "not_unlocked", env.Error.Reason)
	assert.Equal(t, "stage is not unlocked yet", env.Error.Message)

	env = NewErrorEnvelope(errors.New("database is on fire"))
	assert.Equal(t, CodeInternal, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "fire")
}
