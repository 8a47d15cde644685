package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// FixedNow is a second-precision timestamp that survives RFC3339 storage.
var FixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Case options
type CaseOption func(*domain.Case)

// AtStage places the case at stage s with every earlier stage completed.
func AtStage(s domain.Stage) CaseOption {
	return func(c *domain.Case) {
		c.CurrentStage = s
		c.CompletedStages = nil
		for done := domain.FirstStage; done < s; done++ {
			c.CompletedStages = append(c.CompletedStages, done)
		}
	}
}

func WithSession(n int) CaseOption {
	return func(c *domain.Case) {
		c.SessionNumber = n
	}
}

func WithTeacher(id string) CaseOption {
	return func(c *domain.Case) {
		c.TeacherID = id
	}
}

func Completed() CaseOption {
	return func(c *domain.Case) {
		AtStage(domain.LastStage)(c)
		c.CloseCourse(c.UpdatedAt)
	}
}

func NewTestStudent(name string) domain.Student {
	return domain.Student{
		Name:     name,
		Birthday: time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
		School:   "Northside Primary",
		Grade:    "3",
		Gender:   domain.GenderFemale,
	}
}

func NewTestCase(name string, opts ...CaseOption) *domain.Case {
	c := domain.NewCase(uuid.New().String(), "teacher-1", NewTestStudent(name), FixedNow)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Payload builders

func NewTestHandwriting() *domain.HandwritingAnalysis {
	return &domain.HandwritingAnalysis{
		Score:          62.5,
		Interpretation: "Moderate indicators",
		LetterCounts:   map[string]int{"normal": 40, "reversal": 7, "corrected": 3},
	}
}

// NewTestTasks returns one task per max score with ids t1, t2, ...
func NewTestTasks(maxScores ...float64) *domain.TaskDefinitions {
	tasks := &domain.TaskDefinitions{}
	for i, m := range maxScores {
		tasks.Tasks = append(tasks.Tasks, domain.TaskDefinition{
			ID:       fmt.Sprintf("t%d", i+1),
			Name:     fmt.Sprintf("Task %d", i+1),
			MaxScore: m,
		})
	}
	return tasks
}

// NewTestScores scores tasks t1, t2, ... in order.
func NewTestScores(scores ...float64) *domain.TaskScores {
	out := &domain.TaskScores{}
	for i, s := range scores {
		out.Scores = append(out.Scores, domain.TaskScore{TaskID: fmt.Sprintf("t%d", i+1), Score: s})
	}
	return out
}

func NewTestActivity(id string) domain.Activity {
	return domain.Activity{
		ID:               id,
		Name:             "Phonics drill " + id,
		Type:             "phonics",
		Description:      "Sound out letter pairs",
		Instructions:     "Ten minutes after school",
		Difficulty:       "easy",
		Frequency:        "daily",
		DurationMinutes:  10,
		TargetAudience:   "both",
		ExpectedOutcomes: "Fewer reversals",
	}
}

func NewTestActivities(ids ...string) *domain.ActivityAssignments {
	out := &domain.ActivityAssignments{}
	for _, id := range ids {
		out.Activities = append(out.Activities, NewTestActivity(id))
	}
	return out
}

func NewTestProgressEntry(id, activityID string) domain.ProgressEntry {
	return domain.ProgressEntry{
		ID:                   id,
		ActivityID:           activityID,
		SessionDate:          "2025-06-14",
		Status:               "completed",
		DurationActual:       12,
		CompletionPercentage: 80,
		StudentEngagement:    7,
		DifficultyLevel:      4,
	}
}

func NewTestEvaluation(d domain.Diagnosis) *domain.FinalEvaluation {
	return &domain.FinalEvaluation{
		FinalDiagnosis:      d,
		DiagnosisConfidence: 7,
		ShortTermGoals:      "Read aloud nightly",
		ClinicalNotes:       "Refer to OT if no change",
		ReferralsNeeded:     "occupational therapy",
	}
}
