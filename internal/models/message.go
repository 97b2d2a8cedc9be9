package models

import "time"

// MessageType distinguishes message kinds inside a room
type MessageType string

const (
	MessageChat     MessageType = "CHAT"
	MessageQuestion MessageType = "QUESTION"
	MessageSystem   MessageType = "SYSTEM"
)

// IsValid reports whether the type is a known value
func (t MessageType) IsValid() bool {
	switch t {
	case MessageChat, MessageQuestion, MessageSystem:
		return true
	default:
		return false
	}
}

// InterviewMessage is one append-only entry in a room's transcript.
// Sequence is assigned by storage and is monotonic per room.
type InterviewMessage struct {
	ID         string      `json:"id"`
	RoomID     string      `json:"room_id"`
	SenderID   string      `json:"sender_id"`
	SenderRole Role        `json:"sender_role"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	Sequence   int64       `json:"sequence"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SendMessageRequest is the payload for posting a message over REST.
// The socketless path used by async-mode rooms.
type SendMessageRequest struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// Session frame types pushed over the room channel
const (
	FrameChat     = "chat"
	FrameQuestion = "question"
	FrameSystem   = "system"
	FrameJoin     = "join"
	FrameLeave    = "leave"
	FrameEnd      = "end"
	FrameError    = "error"
)

// SessionFrame is the wire format of the room session channel, both
// directions. Pushes are advisory: consumers re-fetch authoritative
// state after a reconnect rather than trusting frames alone.
type SessionFrame struct {
	Type       string    `json:"type"`
	RoomCode   string    `json:"room_code"`
	SenderID   string    `json:"sender_id,omitempty"`
	SenderRole Role      `json:"sender_role,omitempty"`
	Content    string    `json:"content,omitempty"`
	Sequence   int64     `json:"sequence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
