package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the data captured while a stage is open. Each stage has its
// own concrete shape.
type Payload interface {
	PayloadKind() PayloadKind
}

// StagePayload is one stored payload, keyed by (case, stage, session).
type StagePayload struct {
	CaseID        string
	Stage         Stage
	SessionNumber int
	Data          Payload
	AuthorID      string
	AuthorRole    Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HandwritingAnalysis is the classifier verdict captured in stage 1.
type HandwritingAnalysis struct {
	Score          float64        `json:"dyslexia_score" validate:"gte=0,lte=100"`
	Interpretation string         `json:"interpretation" validate:"required"`
	LetterCounts   map[string]int `json:"letter_counts,omitempty" validate:"dive,gte=0"`
	SampleRef      string         `json:"sample_ref,omitempty"`
}

type TaskDefinition struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"task_name" validate:"required"`
	MaxScore float64 `json:"max_score" validate:"gt=0"`
}

// TaskDefinitions is the stage-2 task list the teacher scores against.
type TaskDefinitions struct {
	Tasks []TaskDefinition `json:"tasks" validate:"min=1,dive"`
}

// Find returns the task with the given id.
func (t *TaskDefinitions) Find(id string) (TaskDefinition, bool) {
	for _, task := range t.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return TaskDefinition{}, false
}

// TaskScore stores the raw score; percentages are derived on read.
type TaskScore struct {
	TaskID string  `json:"task_id" validate:"required"`
	Score  float64 `json:"score_obtained" validate:"gte=0"`
}

type TaskScores struct {
	Scores []TaskScore `json:"scores" validate:"dive"`
}

// Find returns the score recorded for taskID.
func (s *TaskScores) Find(taskID string) (TaskScore, bool) {
	for _, sc := range s.Scores {
		if sc.TaskID == taskID {
			return sc, true
		}
	}
	return TaskScore{}, false
}

// AssessmentSummary is the doctor's stage-4 cutoff analysis. Totals are kept
// as a raw numerator/denominator pair.
type AssessmentSummary struct {
	CutoffPercentage     float64   `json:"cutoff_percentage" validate:"gte=0,lte=100"`
	SummaryNotes         string    `json:"summary_notes,omitempty"`
	Recommendations      string    `json:"recommendations,omitempty"`
	TotalScore           float64   `json:"total_score"`
	TotalMaxScore        float64   `json:"total_max_score"`
	RiskLevel            RiskLevel `json:"risk_level,omitempty"`
	DyslexiaIndication   bool      `json:"dyslexia_indication"`
	UnderperformingTasks []string  `json:"underperforming_tasks,omitempty"`
}

// Percentage returns the overall score percentage, unrounded.
func (a *AssessmentSummary) Percentage() float64 {
	return ScorePercentage(a.TotalScore, a.TotalMaxScore)
}

type Activity struct {
	ID               string `json:"id" validate:"required"`
	Name             string `json:"activity_name" validate:"required"`
	Type             string `json:"activity_type" validate:"required,activity_type"`
	Description      string `json:"description" validate:"required"`
	Instructions     string `json:"instructions" validate:"required"`
	Difficulty       string `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	Frequency        string `json:"frequency" validate:"required,frequency"`
	DurationMinutes  int    `json:"duration_minutes" validate:"gt=0"`
	TargetAudience   string `json:"target_audience" validate:"required,target_audience"`
	ExpectedOutcomes string `json:"expected_outcomes" validate:"required"`
	SuccessCriteria  string `json:"success_criteria,omitempty"`
}

// ActivityAssignments is the stage-5 therapy plan.
type ActivityAssignments struct {
	Activities []Activity `json:"activities" validate:"dive"`
}

// Find returns the activity with the given id.
func (a *ActivityAssignments) Find(id string) (Activity, bool) {
	for _, act := range a.Activities {
		if act.ID == id {
			return act, true
		}
	}
	return Activity{}, false
}

type ProgressEntry struct {
	ID                   string    `json:"id" validate:"required"`
	ActivityID           string    `json:"activity_id" validate:"required"`
	SessionDate          string    `json:"session_date" validate:"required,datetime=2006-01-02"`
	Status               string    `json:"status" validate:"required,progress_status"`
	DurationActual       int       `json:"duration_actual" validate:"gte=0"`
	CompletionPercentage float64   `json:"completion_percentage" validate:"gte=0,lte=100"`
	Notes                string    `json:"notes,omitempty"`
	Challenges           string    `json:"challenges,omitempty"`
	Improvements         string    `json:"improvements,omitempty"`
	StudentEngagement    int       `json:"student_engagement" validate:"gte=1,lte=10"`
	DifficultyLevel      int       `json:"difficulty_level" validate:"gte=1,lte=10"`
	RecordedBy           string    `json:"recorded_by,omitempty"`
	RecordedRole         Role      `json:"recorded_role,omitempty"`
	RecordedAt           time.Time `json:"recorded_at,omitzero"`
}

// ActivityProgress collects the stage-6 progress entries.
type ActivityProgress struct {
	Entries []ProgressEntry `json:"entries" validate:"dive"`
}

// FinalEvaluation is the doctor's stage-7 evaluation. Free-text fields may
// be drafted at any time while the stage is open.
type FinalEvaluation struct {
	HandwritingAnalysisSummary string    `json:"handwriting_analysis_summary,omitempty"`
	TaskPerformanceSummary     string    `json:"task_performance_summary,omitempty"`
	ActivityProgressSummary    string    `json:"activity_progress_summary,omitempty"`
	FinalDiagnosis             Diagnosis `json:"final_diagnosis,omitempty" validate:"omitempty,diagnosis"`
	DiagnosisConfidence        int       `json:"diagnosis_confidence,omitempty" validate:"omitempty,gte=1,lte=10"`
	SupportingEvidence         string    `json:"supporting_evidence,omitempty"`
	InterventionPriority       string    `json:"intervention_priority,omitempty" validate:"omitempty,priority"`
	ShortTermGoals             string    `json:"short_term_goals,omitempty"`
	LongTermGoals              string    `json:"long_term_goals,omitempty"`
	RecommendedInterventions   string    `json:"recommended_interventions,omitempty"`
	FollowUpTimeline           string    `json:"follow_up_timeline,omitempty"`
	MonitoringIndicators       string    `json:"monitoring_indicators,omitempty"`
	ClinicalNotes              string    `json:"clinical_notes,omitempty"`
	ReferralsNeeded            string    `json:"referrals_needed,omitempty"`
}

// Redacted drops the fields written for doctor-to-doctor handoff.
func (e FinalEvaluation) Redacted() FinalEvaluation {
	e.ClinicalNotes = ""
	e.ReferralsNeeded = ""
	return e
}

func (*HandwritingAnalysis) PayloadKind() PayloadKind { return KindHandwriting }
func (*TaskDefinitions) PayloadKind() PayloadKind     { return KindTasks }
func (*TaskScores) PayloadKind() PayloadKind          { return KindScores }
func (*AssessmentSummary) PayloadKind() PayloadKind   { return KindAssessment }
func (*ActivityAssignments) PayloadKind() PayloadKind { return KindActivities }
func (*ActivityProgress) PayloadKind() PayloadKind    { return KindProgress }
func (*FinalEvaluation) PayloadKind() PayloadKind     { return KindEvaluation }

// NewPayload returns an empty payload of the shape stage expects.
func NewPayload(stage Stage) (Payload, error) {
	switch stage {
	case StageHandwriting:
		return &HandwritingAnalysis{}, nil
	case StageTasks:
		return &TaskDefinitions{}, nil
	case StageScoring:
		return &TaskScores{}, nil
	case StageAssessment:
		return &AssessmentSummary{}, nil
	case StageActivities:
		return &ActivityAssignments{}, nil
	case StageProgress:
		return &ActivityProgress{}, nil
	case StageEvaluation:
		return &FinalEvaluation{}, nil
	}
	_, err := LookupStage(stage)
	return nil, err
}

// DecodePayload parses JSON into stage's payload shape. Unknown fields are
// rejected so misspelled keys never silently drop data.
func DecodePayload(stage Stage, data []byte) (Payload, error) {
	p, err := NewPayload(stage)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, Validationf(fmt.Sprintf("stage %d payload is malformed: %v", stage, err))
	}
	return p, nil
}

// EncodePayload serialises a payload for storage or transport.
func EncodePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", p.PayloadKind(), err)
	}
	return data, nil
}
