package models

import "time"

// Recommendation is the recruiter's overall verdict for a room
type Recommendation string

const (
	RecommendPass     Recommendation = "PASS"
	RecommendFail     Recommendation = "FAIL"
	RecommendHire     Recommendation = "HIRE"
	RecommendReject   Recommendation = "REJECT"
	RecommendConsider Recommendation = "CONSIDER"
)

// IsValid reports whether the recommendation is a known value
func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendPass, RecommendFail, RecommendHire, RecommendReject, RecommendConsider:
		return true
	default:
		return false
	}
}

// InterviewResult is the evaluation outcome for a room. While IsDraft is
// true it may be rewritten freely; once submitted it is immutable.
type InterviewResult struct {
	ID             string         `json:"id"`
	RoomID         string         `json:"room_id"`
	Score          int            `json:"score"`
	Comment        string         `json:"comment"`
	PrivateNotes   string         `json:"private_notes,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	IsDraft        bool           `json:"is_draft"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SaveResultRequest is the payload for drafting or submitting a result
type SaveResultRequest struct {
	Score          int            `json:"score"`
	Comment        string         `json:"comment"`
	PrivateNotes   string         `json:"private_notes,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}
