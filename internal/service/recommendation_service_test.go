package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newRecommendation(obs string) domain.StakeholderRecommendation {
	return domain.StakeholderRecommendation{
		Observations:    obs,
		Recommendations: "Keep the reading log going",
		Concerns:        "  tires quickly  ",
	}
}

func TestRecommendation_OnlyWhileEvaluationIsOpen(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageProgress)

	_, err := h.recs.Submit(ctx, parent, id, newRecommendation("Reads more at home"))
	assertCode(t, err, domain.CodeLocked)

	h.driveTo(t, id, domain.StageEvaluation)
	rec, err := h.recs.Submit(ctx, parent, id, newRecommendation("Reads more at home"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleParent, rec.AuthorRole)
	assert.Equal(t, 1, rec.SessionNumber)
	assert.Equal(t, "tires quickly", rec.Concerns)
}

func TestRecommendation_ResubmitReplacesPerRole(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageEvaluation)

	first, err := h.recs.Submit(ctx, parent, id, newRecommendation("first"))
	require.NoError(t, err)
	second, err := h.recs.Submit(ctx, parent, id, newRecommendation("second"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = h.recs.Submit(ctx, teacher, id, newRecommendation("from class"))
	require.NoError(t, err)

	list, err := h.recs.List(ctx, doctor, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.RoleParent, list[0].AuthorRole)
	assert.Equal(t, "second", list[0].Observations)
	assert.Equal(t, domain.RoleTeacher, list[1].AuthorRole)
}

func TestRecommendation_Refusals(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.driveTo(t, id, domain.StageEvaluation)

	_, err := h.recs.Submit(ctx, doctor, id, newRecommendation("x"))
	assertCode(t, err, domain.CodeForbidden)

	_, err = h.recs.Submit(ctx, parent, id, domain.StakeholderRecommendation{Observations: "   ", Recommendations: "y"})
	assertCode(t, err, domain.CodeValidation)

	_, err = h.recs.List(ctx, stranger, id)
	assertCode(t, err, domain.CodeForbidden)
}

func TestRecommendation_CapturedInReportAndClearedOnContinue(t *testing.T) {
	h := setupEngine(t)
	ctx := context.Background()
	id := h.openCase(t)
	h.readyForDecision(t, id)
	_, err := h.recs.Submit(ctx, parent, id, newRecommendation("Reads more at home"))
	require.NoError(t, err)

	report, err := h.lifecycle.DecideSessionOutcome(ctx, doctor, app.DecisionRequest{CaseID: id, Decision: domain.DecisionContinue})
	require.NoError(t, err)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "Reads more at home", report.Recommendations[0].Observations)

	list, err := h.recs.List(ctx, parent, id)
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := h.archive.GetReport(ctx, parent, id, 1)
	require.NoError(t, err)
	assert.Len(t, stored.Recommendations, 1)
}
