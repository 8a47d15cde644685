package domain

import "fmt"

// Stage is a step number in the assessment-and-therapy sequence.
type Stage int

const (
	StageHandwriting Stage = 1
	StageTasks       Stage = 2
	StageScoring     Stage = 3
	StageAssessment  Stage = 4
	StageActivities  Stage = 5
	StageProgress    Stage = 6
	StageEvaluation  Stage = 7

	FirstStage = StageHandwriting
	LastStage  = StageEvaluation
)

type PayloadKind string

const (
	KindHandwriting PayloadKind = "handwriting_analysis"
	KindTasks       PayloadKind = "task_definitions"
	KindScores      PayloadKind = "task_scores"
	KindAssessment  PayloadKind = "assessment_summary"
	KindActivities  PayloadKind = "activity_assignments"
	KindProgress    PayloadKind = "activity_progress"
	KindEvaluation  PayloadKind = "final_evaluation"
)

// StageSpec is the static definition of one stage.
type StageSpec struct {
	Number Stage
	Title  string
	Owners []Role
	Kind   PayloadKind
	// SessionScoped stages belong to the therapy loop and are recreated for
	// every session; the others are captured once, in session 1.
	SessionScoped bool
}

// OwnedBy reports whether role is one of the stage's owners.
func (s StageSpec) OwnedBy(role Role) bool {
	for _, r := range s.Owners {
		if r == role {
			return true
		}
	}
	return false
}

var catalog = [...]StageSpec{
	{Number: StageHandwriting, Title: "Handwriting Sample", Owners: []Role{RoleTeacher}, Kind: KindHandwriting},
	{Number: StageTasks, Title: "Define Tasks", Owners: []Role{RoleDoctor}, Kind: KindTasks},
	{Number: StageScoring, Title: "Assign Marks", Owners: []Role{RoleTeacher}, Kind: KindScores},
	{Number: StageAssessment, Title: "Cutoff & Summary", Owners: []Role{RoleDoctor}, Kind: KindAssessment},
	{Number: StageActivities, Title: "Assign Activities", Owners: []Role{RoleDoctor}, Kind: KindActivities, SessionScoped: true},
	{Number: StageProgress, Title: "Activity Tracking", Owners: []Role{RoleTeacher, RoleParent}, Kind: KindProgress, SessionScoped: true},
	{Number: StageEvaluation, Title: "Evaluation Summary", Owners: []Role{RoleDoctor}, Kind: KindEvaluation, SessionScoped: true},
}

// LookupStage returns the catalog entry for n, or an UNKNOWN_STAGE error.
func LookupStage(n Stage) (StageSpec, error) {
	if n < FirstStage || n > LastStage {
		return StageSpec{}, NewError(CodeUnknownStage, fmt.Sprintf("stage %d is outside 1..%d", n, LastStage))
	}
	return catalog[n-1], nil
}

// Stages returns the full catalog in stage order.
func Stages() []StageSpec {
	out := make([]StageSpec, len(catalog))
	copy(out, catalog[:])
	return out
}

// RestartStage is where a continued therapy course re-enters the sequence.
const RestartStage = StageActivities
