package contract

import (
	"encoding/json"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// StagePayload carries a stored payload with its body as raw JSON in the
// stage's own shape.
type StagePayload struct {
	CaseID        string             `json:"case_id"`
	Stage         domain.Stage       `json:"stage"`
	SessionNumber int                `json:"session_number"`
	Kind          domain.PayloadKind `json:"kind"`
	Data          json.RawMessage    `json:"data"`
	AuthorID      string             `json:"author_id"`
	AuthorRole    domain.Role        `json:"author_role"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func NewStagePayload(p *domain.StagePayload) (*StagePayload, error) {
	if p == nil {
		return nil, nil
	}
	data, err := domain.EncodePayload(p.Data)
	if err != nil {
		return nil, err
	}
	return &StagePayload{
		CaseID:        p.CaseID,
		Stage:         p.Stage,
		SessionNumber: p.SessionNumber,
		Kind:          p.Data.PayloadKind(),
		Data:          data,
		AuthorID:      p.AuthorID,
		AuthorRole:    p.AuthorRole,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

type StageView struct {
	Stage   domain.Stage      `json:"stage"`
	Title   string            `json:"title"`
	Status  domain.ViewStatus `json:"status"`
	Payload *StagePayload     `json:"payload"`
}

func NewStageView(v *app.StageView) (StageView, error) {
	p, err := NewStagePayload(v.Payload)
	if err != nil {
		return StageView{}, err
	}
	return StageView{Stage: v.Stage, Title: v.Title, Status: v.Status, Payload: p}, nil
}

type DecisionRequest struct {
	Decision      string `json:"decision"`
	Reason        string `json:"reason,omitempty"`
	SessionNumber int    `json:"session_number,omitempty"`
}

// ToApp converts the request for caseID.
func (r DecisionRequest) ToApp(caseID string) app.DecisionRequest {
	return app.DecisionRequest{
		CaseID:        caseID,
		Decision:      domain.Decision(r.Decision),
		Reason:        r.Reason,
		SessionNumber: r.SessionNumber,
	}
}
