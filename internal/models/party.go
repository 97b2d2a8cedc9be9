package models

// Role identifies which side of the interview a caller is on
type Role string

const (
	RoleRecruiter Role = "RECRUITER"
	RoleApplicant Role = "APPLICANT"
	RoleSystem    Role = "SYSTEM"
)

// IsValid reports whether the role is a known value
func (r Role) IsValid() bool {
	switch r {
	case RoleRecruiter, RoleApplicant, RoleSystem:
		return true
	default:
		return false
	}
}

// Party is the authenticated caller of a core operation.
// Identity is supplied by the upstream gateway, never ambient state.
type Party struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsZero reports whether no identity was supplied
func (p Party) IsZero() bool {
	return p.UserID == ""
}
