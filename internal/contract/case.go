// Package contract holds the JSON shapes caseflow exchanges with clients
// over HTTP and the CLI's --json output.
package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

const dateLayout = "2006-01-02"

type CreateCaseRequest struct {
	StudentName string   `json:"student_name" yaml:"student_name"`
	Birthday    string   `json:"birthday" yaml:"birthday"`
	School      string   `json:"school" yaml:"school"`
	Grade       string   `json:"grade" yaml:"grade"`
	Gender      string   `json:"gender" yaml:"gender"`
	DoctorIDs   []string `json:"doctor_ids,omitempty" yaml:"doctor_ids"`
	ParentIDs   []string `json:"parent_ids,omitempty" yaml:"parent_ids"`
}

// ToApp converts the request, rejecting a malformed birthday.
func (r CreateCaseRequest) ToApp() (app.CreateCaseRequest, error) {
	var birthday time.Time
	if strings.TrimSpace(r.Birthday) != "" {
		b, err := time.Parse(dateLayout, strings.TrimSpace(r.Birthday))
		if err != nil {
			return app.CreateCaseRequest{}, domain.Validationf(fmt.Sprintf("birthday %q must be YYYY-MM-DD", r.Birthday))
		}
		birthday = b
	}
	return app.CreateCaseRequest{
		Student: domain.Student{
			Name:     strings.TrimSpace(r.StudentName),
			Birthday: birthday,
			School:   strings.TrimSpace(r.School),
			Grade:    strings.TrimSpace(r.Grade),
			Gender:   domain.Gender(strings.ToLower(strings.TrimSpace(r.Gender))),
		},
		DoctorIDs: r.DoctorIDs,
		ParentIDs: r.ParentIDs,
	}, nil
}

type CaseSummary struct {
	ID            string       `json:"id"`
	StudentName   string       `json:"student_name"`
	Birthday      string       `json:"birthday"`
	School        string       `json:"school"`
	Grade         string       `json:"grade"`
	Gender        string       `json:"gender"`
	TeacherID     string       `json:"teacher_id"`
	CurrentStage  domain.Stage `json:"current_stage"`
	SessionNumber int          `json:"session_number"`
	CaseCompleted bool         `json:"case_completed"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func NewCaseSummary(c *domain.Case) CaseSummary {
	return CaseSummary{
		ID:            c.ID,
		StudentName:   c.Student.Name,
		Birthday:      c.Student.Birthday.Format(dateLayout),
		School:        c.Student.School,
		Grade:         c.Student.Grade,
		Gender:        string(c.Student.Gender),
		TeacherID:     c.TeacherID,
		CurrentStage:  c.CurrentStage,
		SessionNumber: c.SessionNumber,
		CaseCompleted: c.CaseCompleted,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func NewCaseSummaries(cases []*domain.Case) []CaseSummary {
	out := make([]CaseSummary, 0, len(cases))
	for _, c := range cases {
		out = append(out, NewCaseSummary(c))
	}
	return out
}

type CaseState struct {
	CaseID           string         `json:"case_id"`
	CurrentStage     domain.Stage   `json:"current_stage"`
	CompletedStages  []domain.Stage `json:"completed_stages"`
	CaseCompleted    bool           `json:"case_completed"`
	SessionNumber    int            `json:"session_number"`
	AwaitingDecision bool           `json:"awaiting_decision"`
	Version          int            `json:"version"`
}

func NewCaseState(s app.CaseState) CaseState {
	completed := s.CompletedStages
	if completed == nil {
		completed = []domain.Stage{}
	}
	return CaseState{
		CaseID:           s.CaseID,
		CurrentStage:     s.CurrentStage,
		CompletedStages:  completed,
		CaseCompleted:    s.CaseCompleted,
		SessionNumber:    s.SessionNumber,
		AwaitingDecision: s.AwaitingDecision,
		Version:          s.Version,
	}
}

type StageStatus struct {
	Stage      domain.Stage      `json:"stage"`
	Title      string            `json:"title"`
	Owners     []domain.Role     `json:"owners"`
	Status     domain.ViewStatus `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Completed  bool              `json:"completed"`
	HasPayload bool              `json:"has_payload"`
}

type Member struct {
	UserID  string      `json:"user_id"`
	Role    domain.Role `json:"role"`
	AddedAt time.Time   `json:"added_at"`
}

type CaseView struct {
	Case    CaseSummary   `json:"case"`
	State   CaseState     `json:"state"`
	Role    domain.Role   `json:"role"`
	Stages  []StageStatus `json:"stages"`
	Members []Member      `json:"members"`
}

func NewCaseView(v *app.CaseView) CaseView {
	out := CaseView{
		Case:  NewCaseSummary(v.Case),
		State: NewCaseState(v.State),
		Role:  v.Role,
	}
	for _, s := range v.Stages {
		out.Stages = append(out.Stages, StageStatus{
			Stage:      s.Stage,
			Title:      s.Title,
			Owners:     s.Owners,
			Status:     s.Status,
			Reason:     string(s.Reason),
			Completed:  s.Completed,
			HasPayload: s.HasPayload,
		})
	}
	for _, m := range v.Members {
		out.Members = append(out.Members, Member{UserID: m.UserID, Role: m.Role, AddedAt: m.AddedAt})
	}
	return out
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type TerminateRequest struct {
	Confirm bool `json:"confirm"`
}
