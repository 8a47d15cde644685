package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/testutil"
)

func TestCreateCase(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()

	c, err := h.cases.Create(ctx, teacher, app.CreateCaseRequest{Student: testutil.NewTestStudent("Ada"), DoctorIDs: []string{"doctor-9"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StageHandwriting, c.CurrentStage)
	assert.Equal(t, 1, c.SessionNumber)
	assert.Equal(t, teacher.UserID, c.TeacherID)

	view, err := h.cases.View(ctx, domain.Caller{UserID: "doctor-9", Role: domain.RoleDoctor}, c.ID)
	require.NoError(t, err)
	assert.Len(t, view.Members, 2)

	_, err = h.cases.Create(ctx, doctor, app.CreateCaseRequest{Student: testutil.NewTestStudent("Ada")})
	assertCode(t, err, domain.CodeForbidden)

	missingSchool := testutil.NewTestStudent("Ada")
	missingSchool.School = ""
	_, err = h.cases.Create(ctx, teacher, app.CreateCaseRequest{Student: missingSchool})
	assertCode(t, err, domain.CodeValidation)

	_, err = h.cases.Create(ctx, teacher, app.CreateCaseRequest{Student: testutil.NewTestStudent("Ada"), ParentIDs: []string{""}})
	assertCode(t, err, domain.CodeValidation)
}

func TestCreateCase_RejectsRepeatedMember(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()

	_, err := h.cases.Create(ctx, teacher, app.CreateCaseRequest{
		Student:   testutil.NewTestStudent("Ada"),
		DoctorIDs: []string{"user-7"},
		ParentIDs: []string{"user-7"},
	})
	assertCode(t, err, domain.CodeValidation)
	assert.ErrorContains(t, err, `"user-7" is listed more than once`)

	_, err = h.cases.Create(ctx, teacher, app.CreateCaseRequest{
		Student:   testutil.NewTestStudent("Ada"),
		ParentIDs: []string{"parent-7", "parent-7"},
	})
	assertCode(t, err, domain.CodeValidation)

	cases, err := h.cases.List(ctx, teacher)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestListCases_OnlyLinkedCases(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	_, err := h.cases.Create(ctx, domain.Caller{UserID: "teacher-2", Role: domain.RoleTeacher}, app.CreateCaseRequest{Student: testutil.NewTestStudent("Ben")})
	require.NoError(t, err)

	cases, err := h.cases.List(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, id, cases[0].ID)

	cases, err = h.cases.List(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestMembers(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)

	err := h.cases.AddMember(ctx, parent, id, "grandma", domain.RoleParent)
	assertCode(t, err, domain.CodeForbidden)

	require.NoError(t, h.cases.AddMember(ctx, teacher, id, "grandma", domain.RoleParent))
	_, err = h.cases.GetState(ctx, domain.Caller{UserID: "grandma", Role: domain.RoleParent}, id)
	require.NoError(t, err)

	err = h.cases.AddMember(ctx, teacher, id, "x", "nurse")
	assertCode(t, err, domain.CodeValidation)

	err = h.cases.RemoveMember(ctx, teacher, id, teacher.UserID)
	assertCode(t, err, domain.CodeValidation)

	require.NoError(t, h.cases.RemoveMember(ctx, teacher, id, parent.UserID))
	_, err = h.cases.GetState(ctx, parent, id)
	assertCode(t, err, domain.CodeForbidden)

	err = h.cases.RemoveMember(ctx, teacher, id, parent.UserID)
	assertCode(t, err, domain.CodeValidation)
}

func TestViewCase_StageStatusPerRole(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageTasks)

	view, err := h.cases.View(ctx, teacher, id)
	require.NoError(t, err)
	require.Len(t, view.Stages, 7)
	assert.Equal(t, domain.RoleTeacher, view.Role)

	assert.Equal(t, domain.ViewReadOnly, view.Stages[0].Status)
	assert.True(t, view.Stages[0].Completed)
	assert.True(t, view.Stages[0].HasPayload)

	assert.Equal(t, domain.ViewReadOnly, view.Stages[1].Status)
	assert.Equal(t, domain.ReasonWrongRole, view.Stages[1].Reason)

	assert.Equal(t, domain.ViewLocked, view.Stages[2].Status)
	assert.Equal(t, domain.ReasonNotUnlocked, view.Stages[2].Reason)

	view, err = h.cases.View(ctx, doctor, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewEditable, view.Stages[1].Status)
	assert.Empty(t, view.Stages[1].Reason)
}
