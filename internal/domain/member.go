package domain

import "time"

// CaseMember links a stakeholder to a case. Only members may read or act on
// the case.
type CaseMember struct {
	CaseID  string
	UserID  string
	Role    Role
	AddedAt time.Time
}

// Caller is the authenticated identity an operation runs as.
type Caller struct {
	UserID string
	Role   Role
}

func (c Caller) String() string {
	return string(c.Role) + ":" + c.UserID
}
