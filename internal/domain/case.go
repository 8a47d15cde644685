package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Student holds the identity attributes of a case. They survive every
// progress reset.
type Student struct {
	Name     string
	Birthday time.Time
	School   string
	Grade    string
	Gender   Gender
}

// Validate checks the attributes required to open a case.
func (s Student) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("student name is required")
	case s.Birthday.IsZero():
		return fmt.Errorf("student birthday is required")
	case strings.TrimSpace(s.School) == "":
		return fmt.Errorf("student school is required")
	case strings.TrimSpace(s.Grade) == "":
		return fmt.Errorf("student grade is required")
	}
	switch s.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("student gender %q must be male, female or other", s.Gender)
	}
	return nil
}

// Case is the aggregate the progression engine operates on: one per student.
// Version is bumped on every persisted transition and checked on update.
type Case struct {
	ID               string
	Student          Student
	TeacherID        string
	CurrentStage     Stage
	CompletedStages  []Stage
	CaseCompleted    bool
	SessionNumber    int
	SessionStartedAt time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCase opens a case at stage 1 of session 1.
func NewCase(id, teacherID string, student Student, now time.Time) *Case {
	return &Case{
		ID:               id,
		Student:          student,
		TeacherID:        teacherID,
		CurrentStage:     FirstStage,
		SessionNumber:    1,
		SessionStartedAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsStageCompleted reports whether s is in the completed set.
func (c *Case) IsStageCompleted(s Stage) bool {
	return slices.Contains(c.CompletedStages, s)
}

// PayloadSession returns the session number under which stage s's payload
// is stored. Assessment stages are captured once, in session 1; therapy
// stages are recreated per session.
func (c *Case) PayloadSession(s Stage) int {
	spec, err := LookupStage(s)
	if err != nil || !spec.SessionScoped {
		return 1
	}
	return c.SessionNumber
}

// AwaitingDecision reports whether the case sits at the last stage with no
// session outcome recorded yet.
func (c *Case) AwaitingDecision() bool {
	return c.CurrentStage == LastStage && !c.CaseCompleted
}

// Advance records stage as completed and moves the pointer forward. The last
// stage never advances; it is closed by a session outcome decision.
func (c *Case) Advance(stage Stage, now time.Time) error {
	if stage != c.CurrentStage {
		return NewError(CodeLocked, fmt.Sprintf("stage %d is not the current stage (%d)", stage, c.CurrentStage))
	}
	if stage >= LastStage {
		return NewError(CodeLocked, "the last stage closes through a session outcome decision")
	}
	c.addCompleted(stage)
	c.CurrentStage = stage + 1
	c.UpdatedAt = now
	return nil
}

// CloseCourse marks the therapy as finished. Every payload becomes read-only.
func (c *Case) CloseCourse(now time.Time) {
	c.addCompleted(LastStage)
	c.CaseCompleted = true
	c.UpdatedAt = now
}

// RestartCourse opens a new therapy session at the restart stage. The
// assessment stages stay completed.
func (c *Case) RestartCourse(now time.Time) {
	c.CompletedStages = slices.DeleteFunc(c.CompletedStages, func(s Stage) bool {
		return s >= RestartStage
	})
	c.SessionNumber++
	c.CurrentStage = RestartStage
	c.SessionStartedAt = now
	c.UpdatedAt = now
}

// ResetProgress wipes progression back to a fresh case. Identity attributes
// are untouched.
func (c *Case) ResetProgress(now time.Time) {
	c.CurrentStage = FirstStage
	c.CompletedStages = nil
	c.SessionNumber = 1
	c.CaseCompleted = false
	c.SessionStartedAt = now
	c.UpdatedAt = now
}

// CheckInvariants verifies the progression tuple is internally consistent.
func (c *Case) CheckInvariants() error {
	if c.CurrentStage < FirstStage || c.CurrentStage > LastStage {
		return fmt.Errorf("current stage %d outside %d..%d", c.CurrentStage, FirstStage, LastStage)
	}
	if c.SessionNumber < 1 {
		return fmt.Errorf("session number %d must be >= 1", c.SessionNumber)
	}
	for _, s := range c.CompletedStages {
		if s < c.CurrentStage {
			continue
		}
		if s == LastStage && c.CaseCompleted {
			continue
		}
		return fmt.Errorf("stage %d completed but current stage is %d", s, c.CurrentStage)
	}
	return nil
}

func (c *Case) addCompleted(s Stage) {
	if c.IsStageCompleted(s) {
		return
	}
	c.CompletedStages = append(c.CompletedStages, s)
	slices.Sort(c.CompletedStages)
}
