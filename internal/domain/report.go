package domain

import "time"

// TherapyReport is the immutable snapshot of one closed therapy session.
type TherapyReport struct {
	ID                string                      `json:"id"`
	CaseID            string                      `json:"case_id"`
	SessionNumber     int                         `json:"session_number"`
	Outcome           SessionOutcome              `json:"outcome"`
	StartedAt         time.Time                   `json:"started_at"`
	EndedAt           time.Time                   `json:"ended_at,omitzero"`
	TerminationReason string                      `json:"termination_reason,omitempty"`
	Diagnosis         Diagnosis                   `json:"diagnosis,omitempty"`
	TotalActivities   int                         `json:"total_activities"`
	ProgressRecords   int                         `json:"progress_records"`
	Activities        *ActivityAssignments        `json:"activities,omitempty"`
	Progress          *ActivityProgress           `json:"progress,omitempty"`
	Evaluation        *FinalEvaluation            `json:"evaluation,omitempty"`
	Recommendations   []StakeholderRecommendation `json:"recommendations,omitempty"`
	CreatedBy         string                      `json:"created_by,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// SessionSnapshot is the session-scoped data a report is built from.
type SessionSnapshot struct {
	Activities      *ActivityAssignments
	Progress        *ActivityProgress
	Evaluation      *FinalEvaluation
	Recommendations []StakeholderRecommendation
}

// NewTherapyReport captures the current session of c. An ongoing projection
// has no end date.
func NewTherapyReport(id string, c *Case, outcome SessionOutcome, reason string, snap SessionSnapshot, by string, now time.Time) *TherapyReport {
	r := &TherapyReport{
		ID:                id,
		CaseID:            c.ID,
		SessionNumber:     c.SessionNumber,
		Outcome:           outcome,
		StartedAt:         c.SessionStartedAt,
		TerminationReason: reason,
		Activities:        snap.Activities,
		Progress:          snap.Progress,
		Evaluation:        snap.Evaluation,
		Recommendations:   snap.Recommendations,
		CreatedBy:         by,
		CreatedAt:         now,
	}
	if outcome != OutcomeOngoing {
		r.EndedAt = now
	}
	if snap.Activities != nil {
		r.TotalActivities = len(snap.Activities.Activities)
	}
	if snap.Progress != nil {
		r.ProgressRecords = len(snap.Progress.Entries)
	}
	if snap.Evaluation != nil {
		r.Diagnosis = snap.Evaluation.FinalDiagnosis
	}
	return r
}

// ProjectFor returns the view of r that role may see. Doctors see the full
// report; everyone else loses the doctor-to-doctor clinical fields.
func (r TherapyReport) ProjectFor(role Role) TherapyReport {
	if role == RoleDoctor || r.Evaluation == nil {
		return r
	}
	redacted := r.Evaluation.Redacted()
	r.Evaluation = &redacted
	return r
}
