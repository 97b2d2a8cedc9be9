package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RequestStatus represents the current state of a schedule request
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"   // Waiting for the applicant to pick a slot
	RequestSelected  RequestStatus = "SELECTED"  // A slot was claimed, room created
	RequestExpired   RequestStatus = "EXPIRED"   // Expiration window elapsed
	RequestCancelled RequestStatus = "CANCELLED" // Withdrawn by the recruiter
)

// IsTerminal returns true if the status can never change again
func (s RequestStatus) IsTerminal() bool {
	return s == RequestSelected || s == RequestExpired || s == RequestCancelled
}

// InterviewType distinguishes the session medium
type InterviewType string

const (
	InterviewChat  InterviewType = "CHAT"
	InterviewVideo InterviewType = "VIDEO" // reserved, not implemented
)

// InterviewMode distinguishes live sessions from asynchronous question rounds
type InterviewMode string

const (
	ModeLive  InterviewMode = "LIVE"
	ModeAsync InterviewMode = "ASYNC"
)

// TimeSlot is one candidate time inside a schedule request.
// Available and ConflictReason are derived at read time against the
// applicant's committed rooms and are never stored authoritatively.
type TimeSlot struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	StartTime      time.Time `json:"start_time"`
	Available      bool      `json:"is_available"`
	ConflictReason string    `json:"conflict_reason,omitempty"`
}

// ScheduleRequest is a negotiation instance proposing candidate interview times.
// Once Status leaves PENDING it is terminal.
type ScheduleRequest struct {
	ID                 string          `json:"id"`
	JobID              string          `json:"job_id"`
	ApplicantID        string          `json:"applicant_id"`
	RecruiterID        string          `json:"recruiter_id"`
	Status             RequestStatus   `json:"status"`
	Slots              []*TimeSlot     `json:"slots"`
	SelectedTimeSlotID string          `json:"selected_time_slot_id,omitempty"`
	RequestCode        string          `json:"request_code"`
	DurationMinutes    int             `json:"duration_minutes"`
	InterviewType      InterviewType   `json:"interview_type"`
	InterviewMode      InterviewMode   `json:"interview_mode"`
	Round              int             `json:"round"`
	PreviousRoomID     string          `json:"previous_room_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          time.Time       `json:"expires_at"`
	RespondedAt        *time.Time      `json:"responded_at,omitempty"`
}

// Duration returns the configured interview length
func (r *ScheduleRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// IsExpired reports whether the request is past its window.
// Derived, never persisted; the stored status may lag behind.
func (r *ScheduleRequest) IsExpired(now time.Time) bool {
	return r.Status == RequestPending && now.After(r.ExpiresAt)
}

// Slot returns the slot with the given id, or nil
func (r *ScheduleRequest) Slot(slotID string) *TimeSlot {
	for _, s := range r.Slots {
		if s.ID == slotID {
			return s
		}
	}
	return nil
}

// GenerateRequestCode creates a cryptographically random 48-char hex code
// used for link-based access to a schedule request
func GenerateRequestCode() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateScheduleRequest is the payload for creating a schedule request
type CreateScheduleRequest struct {
	JobID           string        `json:"job_id"`
	ApplicantID     string        `json:"applicant_id"`
	ProposedTimes   []time.Time   `json:"proposed_times"`
	DurationMinutes int           `json:"duration_minutes"`
	InterviewType   InterviewType `json:"interview_type"`
	InterviewMode   InterviewMode `json:"interview_mode"`
	ExpirationHours int           `json:"expiration_hours"`
	Round           int           `json:"round"`
	PreviousRoomID  string        `json:"previous_room_id,omitempty"`
}

// SelectSlotRequest is the payload for claiming a slot
type SelectSlotRequest struct {
	SlotID string `json:"slot_id"`
}
