package domain

import (
	"strings"
	"time"
)

// StakeholderRecommendation is a teacher's or parent's observations for the
// doctor, one per author per session, captured while stage 7 is open.
type StakeholderRecommendation struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id"`
	SessionNumber   int       `json:"session_number"`
	AuthorID        string    `json:"author_id"`
	AuthorRole      Role      `json:"author_role"`
	Observations    string    `json:"observations" validate:"required"`
	Recommendations string    `json:"recommendations" validate:"required"`
	Concerns        string    `json:"concerns,omitempty"`
	PositiveChanges string    `json:"positive_changes,omitempty"`
	SupportNeeded   string    `json:"support_needed,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CanRecommend reports whether role may author stakeholder recommendations.
func CanRecommend(role Role) bool {
	return role == RoleTeacher || role == RoleParent
}

// Trim normalises the free-text fields in place.
func (r *StakeholderRecommendation) Trim() {
	r.Observations = strings.TrimSpace(r.Observations)
	r.Recommendations = strings.TrimSpace(r.Recommendations)
	r.Concerns = strings.TrimSpace(r.Concerns)
	r.PositiveChanges = strings.TrimSpace(r.PositiveChanges)
	r.SupportNeeded = strings.TrimSpace(r.SupportNeeded)
}
