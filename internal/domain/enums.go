package domain

import "fmt"

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleDoctor  Role = "doctor"
	RoleParent  Role = "parent"
)

// ValidRoles is the canonical set of accepted role strings.
var ValidRoles = map[Role]bool{
	RoleTeacher: true, RoleDoctor: true, RoleParent: true,
}

// ParseRole converts a raw role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !ValidRoles[r] {
		return "", fmt.Errorf("unknown role %q (expected teacher, doctor or parent)", s)
	}
	return r, nil
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type SessionOutcome string

const (
	OutcomeOngoing    SessionOutcome = "ongoing"
	OutcomeTerminated SessionOutcome = "terminated"
	OutcomeContinued  SessionOutcome = "continued"
)

type Decision string

const (
	DecisionComplete Decision = "complete"
	DecisionContinue Decision = "continue"
)

// ParseDecision converts a raw decision string into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionComplete, DecisionContinue:
		return Decision(s), nil
	}
	return "", fmt.Errorf("unknown decision %q (expected complete or continue)", s)
}

type Diagnosis string

const (
	DiagnosisNone          Diagnosis = "no_dyslexia"
	DiagnosisMild          Diagnosis = "mild_dyslexia"
	DiagnosisModerate      Diagnosis = "moderate_dyslexia"
	DiagnosisSevere        Diagnosis = "severe_dyslexia"
	DiagnosisFurtherAssess Diagnosis = "requires_further_assessment"
)

// IsTerminal reports whether the diagnosis closes the clinical question.
// Only "requires further assessment" (or no diagnosis at all) is open.
func (d Diagnosis) IsTerminal() bool {
	return d != "" && d != DiagnosisFurtherAssess
}

var ValidDiagnoses = map[string]bool{
	string(DiagnosisNone): true, string(DiagnosisMild): true, string(DiagnosisModerate): true,
	string(DiagnosisSevere): true, string(DiagnosisFurtherAssess): true,
}

type ViewStatus string

const (
	ViewEditable ViewStatus = "editable"
	ViewReadOnly ViewStatus = "view_only"
	ViewLocked   ViewStatus = "locked"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Activity enumerations mirror the options offered to the doctor when
// assigning therapy activities.
var (
	ValidActivityTypes = map[string]bool{
		"reading": true, "writing": true, "phonics": true, "memory": true,
		"coordination": true, "visual": true, "auditory": true, "cognitive": true,
	}
	ValidFrequencies     = map[string]bool{"daily": true, "weekly": true, "bi-weekly": true, "monthly": true}
	ValidDifficulties    = map[string]bool{"easy": true, "medium": true, "hard": true}
	ValidTargetAudiences = map[string]bool{"teacher": true, "parent": true, "both": true}
	ValidProgressStatus  = map[string]bool{"completed": true, "in_progress": true, "missed": true, "paused": true}
	ValidPriorities      = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}
)
