package app

import (
	"time"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// CaseState is the progression tuple of a case.
type CaseState struct {
	CaseID           string
	CurrentStage     domain.Stage
	CompletedStages  []domain.Stage
	CaseCompleted    bool
	SessionNumber    int
	AwaitingDecision bool
	Version          int
}

// StateOf projects the progression tuple out of a case.
func StateOf(c *domain.Case) CaseState {
	completed := append([]domain.Stage(nil), c.CompletedStages...)
	return CaseState{
		CaseID:           c.ID,
		CurrentStage:     c.CurrentStage,
		CompletedStages:  completed,
		CaseCompleted:    c.CaseCompleted,
		SessionNumber:    c.SessionNumber,
		AwaitingDecision: c.AwaitingDecision(),
		Version:          c.Version,
	}
}

// StageStatus is one row of the case overview as seen by a given role.
type StageStatus struct {
	Stage      domain.Stage
	Title      string
	Owners     []domain.Role
	Status     domain.ViewStatus
	Reason     domain.AccessReason
	Completed  bool
	HasPayload bool
}

// CaseView is the case overview: identity, progression and per-stage status.
type CaseView struct {
	Case    *domain.Case
	State   CaseState
	Role    domain.Role
	Stages  []StageStatus
	Members []*domain.CaseMember
}

// StageView is a readable stage with its payload, if one has been saved.
type StageView struct {
	Stage   domain.Stage
	Title   string
	Status  domain.ViewStatus
	Payload *domain.StagePayload
}

// StageCompletion is returned by a successful completeStage.
type StageCompletion struct {
	State CaseState
}

// CreateCaseRequest opens a case. The creating teacher is always linked;
// the listed doctors and parents are linked alongside.
type CreateCaseRequest struct {
	Student   domain.Student
	DoctorIDs []string
	ParentIDs []string
}

// DecisionRequest is a session outcome decision. SessionNumber pins the
// session the doctor is deciding on; zero means the current session.
type DecisionRequest struct {
	CaseID        string
	Decision      domain.Decision
	Reason        string
	SessionNumber int
}

// ReportQuery selects reports for a case.
type ReportQuery struct {
	CaseID string
	// IncludeOngoing appends a projection of the open session. It is not
	// persisted.
	IncludeOngoing bool
}

// HandwritingSample is an uploaded image to classify for stage 1.
type HandwritingSample struct {
	Filename    string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}
