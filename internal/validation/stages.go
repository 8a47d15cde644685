package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// Upstream carries the saved payloads of earlier stages that a stage's rules
// depend on. Missing payloads are nil.
type Upstream struct {
	Tasks      *domain.TaskDefinitions
	Scores     *domain.TaskScores
	Assessment *domain.AssessmentSummary
	Activities *domain.ActivityAssignments
	Progress   *domain.ActivityProgress
}

// Draft checks a payload on submit. A draft may be incomplete, but whatever
// it contains must be consistent with the upstream stages. Failures are
// VALIDATION_ERROR.
func (v *Validator) Draft(stage domain.Stage, p domain.Payload, up Upstream) error {
	spec, err := domain.LookupStage(stage)
	if err != nil {
		return err
	}
	if p == nil || p.PayloadKind() != spec.Kind {
		return domain.Validationf(fmt.Sprintf("stage %d expects a %s payload", stage, spec.Kind))
	}
	if err := v.Struct(p); err != nil {
		return err
	}
	switch p := p.(type) {
	case *domain.TaskDefinitions:
		if err := uniqueIDs("task", len(p.Tasks), func(i int) string { return p.Tasks[i].ID }); err != nil {
			return err
		}
		return uniqueNames(p)
	case *domain.TaskScores:
		return draftScores(p, up)
	case *domain.AssessmentSummary:
		return draftAssessment(up)
	case *domain.ActivityAssignments:
		if up.Assessment == nil {
			return domain.Validationf("stage 4 assessment summary must be saved before assigning activities")
		}
		return uniqueIDs("activity", len(p.Activities), func(i int) string { return p.Activities[i].ID })
	case *domain.ActivityProgress:
		return draftProgress(p, up)
	case *domain.FinalEvaluation:
		if p.FinalDiagnosis.IsTerminal() && (up.Progress == nil || len(up.Progress.Entries) == 0) {
			return domain.Validationf("a final diagnosis requires at least one stage 6 progress entry")
		}
	}
	return nil
}

// Ready checks whether the stored payload allows the stage to be completed.
// Failures are STAGE_NOT_READY carrying the first unmet condition.
func (v *Validator) Ready(stage domain.Stage, p domain.Payload, up Upstream) error {
	if _, err := domain.LookupStage(stage); err != nil {
		return err
	}
	if p == nil {
		return notReady(fmt.Sprintf("no payload submitted for stage %d", stage))
	}
	if err := v.Draft(stage, p, up); err != nil {
		var e *domain.Error
		if errors.As(err, &e) && e.Code == domain.CodeValidation {
			return notReady(e.Message)
		}
		return err
	}
	switch p := p.(type) {
	case *domain.TaskScores:
		for _, task := range up.Tasks.Tasks {
			if _, ok := p.Find(task.ID); !ok {
				return notReady(fmt.Sprintf("task %q has not been scored", task.Name))
			}
		}
	case *domain.ActivityAssignments:
		if len(p.Activities) == 0 {
			return notReady("at least one activity must be assigned")
		}
	case *domain.ActivityProgress:
		if len(p.Entries) == 0 {
			return notReady("at least one progress entry must be recorded")
		}
	case *domain.FinalEvaluation:
		if p.FinalDiagnosis == "" {
			return notReady("final diagnosis is required")
		}
	}
	return nil
}

func notReady(msg string) error {
	return domain.NewError(domain.CodeStageNotReady, msg)
}

func uniqueIDs(what string, n int, id func(int) string) error {
	seen := make(map[string]bool, n)
	for i := range n {
		if seen[id(i)] {
			return domain.Validationf(fmt.Sprintf("duplicate %s id %q", what, id(i)))
		}
		seen[id(i)] = true
	}
	return nil
}

func uniqueNames(p *domain.TaskDefinitions) error {
	seen := make(map[string]bool, len(p.Tasks))
	for _, task := range p.Tasks {
		name := strings.ToLower(strings.TrimSpace(task.Name))
		if seen[name] {
			return domain.Validationf(fmt.Sprintf("duplicate task name %q", task.Name))
		}
		seen[name] = true
	}
	return nil
}

func draftScores(p *domain.TaskScores, up Upstream) error {
	if up.Tasks == nil {
		return domain.Validationf("stage 2 task list must exist before scoring")
	}
	seen := make(map[string]bool, len(p.Scores))
	for _, sc := range p.Scores {
		task, ok := up.Tasks.Find(sc.TaskID)
		if !ok {
			return domain.Validationf(fmt.Sprintf("task %q is not defined in stage 2", sc.TaskID))
		}
		if seen[sc.TaskID] {
			return domain.Validationf(fmt.Sprintf("task %q is scored more than once", task.Name))
		}
		seen[sc.TaskID] = true
		if sc.Score > task.MaxScore {
			return domain.Validationf(fmt.Sprintf("score %g for task %q is out of bounds [0, %g]", sc.Score, task.Name, task.MaxScore))
		}
	}
	return nil
}

func draftAssessment(up Upstream) error {
	if up.Tasks == nil || up.Scores == nil {
		return domain.Validationf("stage 3 must be fully scored before setting a cutoff")
	}
	for _, task := range up.Tasks.Tasks {
		if _, ok := up.Scores.Find(task.ID); !ok {
			return domain.Validationf(fmt.Sprintf("stage 3 must be fully scored before setting a cutoff: task %q has no score", task.Name))
		}
	}
	return nil
}

func draftProgress(p *domain.ActivityProgress, up Upstream) error {
	if up.Activities == nil {
		return domain.Validationf("stage 5 activities must be assigned before recording progress")
	}
	if err := uniqueIDs("progress entry", len(p.Entries), func(i int) string { return p.Entries[i].ID }); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if _, ok := up.Activities.Find(e.ActivityID); !ok {
			return domain.Validationf(fmt.Sprintf("activity %q is not assigned in stage 5", e.ActivityID))
		}
	}
	return nil
}
