package domain

// AccessReason explains a permission decision so callers can tell
// "wrong role" apart from "not yet unlocked".
type AccessReason string

const (
	AccessGranted       AccessReason = ""
	ReasonNotMember     AccessReason = "not_member"
	ReasonWrongRole     AccessReason = "wrong_role"
	ReasonNotUnlocked   AccessReason = "not_unlocked"
	ReasonStageClosed   AccessReason = "stage_closed"
	ReasonCaseCompleted AccessReason = "case_completed"
	ReasonUnknownStage  AccessReason = "unknown_stage"
	ReasonNotRecorder   AccessReason = "not_recorder"
)

// Describe returns a short caller-facing explanation.
func (r AccessReason) Describe() string {
	switch r {
	case ReasonNotMember:
		return "caller is not linked to this case"
	case ReasonWrongRole:
		return "caller's role does not own this stage"
	case ReasonNotUnlocked:
		return "stage is not unlocked yet"
	case ReasonStageClosed:
		return "stage is closed and view-only"
	case ReasonCaseCompleted:
		return "case is completed and read-only"
	case ReasonUnknownStage:
		return "unknown stage"
	case ReasonNotRecorder:
		return "entry was recorded by another member"
	default:
		return ""
	}
}

// Access is the outcome of a permission check.
type Access struct {
	Allowed bool
	Reason  AccessReason
}

func grant() Access                   { return Access{Allowed: true} }
func deny(reason AccessReason) Access { return Access{Reason: reason} }

// CanEdit decides whether role may mutate stage's payload on c. Only the
// current stage of an open case is writable, and only by its owners.
func CanEdit(c *Case, stage Stage, role Role) Access {
	spec, err := LookupStage(stage)
	if err != nil {
		return deny(ReasonUnknownStage)
	}
	switch {
	case c.CaseCompleted:
		return deny(ReasonCaseCompleted)
	case stage > c.CurrentStage:
		return deny(ReasonNotUnlocked)
	case stage < c.CurrentStage:
		return deny(ReasonStageClosed)
	case !spec.OwnedBy(role):
		return deny(ReasonWrongRole)
	}
	return grant()
}

// CanView decides whether any role may read stage on c. Stages beyond the
// current one are never exposed.
func CanView(c *Case, stage Stage) Access {
	if _, err := LookupStage(stage); err != nil {
		return deny(ReasonUnknownStage)
	}
	if stage > c.CurrentStage {
		return deny(ReasonNotUnlocked)
	}
	return grant()
}

// StatusFor summarises the gate for display: editable, view-only or locked.
func StatusFor(c *Case, stage Stage, role Role) ViewStatus {
	if CanEdit(c, stage, role).Allowed {
		return ViewEditable
	}
	if CanView(c, stage).Allowed {
		return ViewReadOnly
	}
	return ViewLocked
}

// EditError maps a denied edit decision to LOCKED or FORBIDDEN.
func EditError(a Access) error {
	if a.Allowed {
		return nil
	}
	switch a.Reason {
	case ReasonWrongRole, ReasonNotMember:
		return denied(CodeForbidden, a)
	case ReasonUnknownStage:
		return denied(CodeUnknownStage, a)
	default:
		return denied(CodeLocked, a)
	}
}

// ViewError maps a denied view decision to an error. Reading beyond the
// current stage is FORBIDDEN rather than LOCKED.
func ViewError(a Access) error {
	if a.Allowed {
		return nil
	}
	if a.Reason == ReasonUnknownStage {
		return denied(CodeUnknownStage, a)
	}
	return denied(CodeForbidden, a)
}

// NotMemberError is returned when the caller has no link to the case.
func NotMemberError() error {
	return denied(CodeForbidden, deny(ReasonNotMember))
}
