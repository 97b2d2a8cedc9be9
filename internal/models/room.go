package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RoomStatus represents the current state of an interview room
type RoomStatus string

const (
	RoomScheduled RoomStatus = "SCHEDULED" // Committed, waiting for the window
	RoomOngoing   RoomStatus = "ONGOING"   // A party joined, session live
	RoomFinished  RoomStatus = "FINISHED"  // Ended explicitly or window elapsed
	RoomCancelled RoomStatus = "CANCELLED" // Cancelled before finishing
)

// IsTerminal returns true if the room lifecycle is over
func (s RoomStatus) IsTerminal() bool {
	return s == RoomFinished || s == RoomCancelled
}

// IsActive returns true if the room can still accept messages
func (s RoomStatus) IsActive() bool {
	return s == RoomScheduled || s == RoomOngoing
}

// InterviewRoom is a committed, scheduled interview session between
// one recruiter and one applicant.
type InterviewRoom struct {
	ID              string        `json:"id"`
	JobID           string        `json:"job_id"`
	ApplicantID     string        `json:"applicant_id"`
	RecruiterID     string        `json:"recruiter_id"`
	RoomCode        string        `json:"room_code"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          RoomStatus    `json:"status"`
	InterviewType   InterviewType `json:"interview_type"`
	Mode            InterviewMode `json:"mode"`
	Round           int           `json:"round"`
	PreviousRoomID  string        `json:"previous_room_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// EndsAt returns the end of the scheduled window
func (r *InterviewRoom) EndsAt() time.Time {
	return r.ScheduledAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// IsExpired reports whether a still-scheduled room missed its window.
// Always derived, never persisted.
func (r *InterviewRoom) IsExpired(now time.Time) bool {
	return r.Status == RoomScheduled && now.After(r.EndsAt())
}

// IsOverdue reports whether a live room ran past its window
func (r *InterviewRoom) IsOverdue(now time.Time) bool {
	return r.Status == RoomOngoing && now.After(r.EndsAt())
}

// ParticipantRole returns the role the given user plays in this room
func (r *InterviewRoom) ParticipantRole(userID string) (Role, bool) {
	switch userID {
	case r.RecruiterID:
		return RoleRecruiter, true
	case r.ApplicantID:
		return RoleApplicant, true
	default:
		return "", false
	}
}

// GenerateRoomCode creates a cryptographically random 32-char hex code
// used to join the session channel
func GenerateRoomCode() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateRoomRequest is the payload for direct (immediate) room creation
type CreateRoomRequest struct {
	JobID           string        `json:"job_id"`
	ApplicantID     string        `json:"applicant_id"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	InterviewType   InterviewType `json:"interview_type"`
	Mode            InterviewMode `json:"mode"`
	Round           int           `json:"round"`
	PreviousRoomID  string        `json:"previous_room_id,omitempty"`
}

// RoomFilters defines filters for listing rooms
type RoomFilters struct {
	RecruiterID string
	ApplicantID string
	Status      RoomStatus
	Limit       int
	Offset      int
}

// RoomView is a room plus its derived expiry flag, as returned by the API
type RoomView struct {
	*InterviewRoom
	IsExpired bool `json:"is_expired"`
}
