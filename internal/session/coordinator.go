package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/room"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
)

const endedNotice = "The interview has ended."

// Store is the persistence surface the coordinator needs.
// AppendQuestionMessage writes the message and its question record
// atomically and assigns the question's order index.
type Store interface {
	AppendMessage(ctx context.Context, msg *models.InterviewMessage) error
	AppendQuestionMessage(ctx context.Context, msg *models.InterviewMessage, q *models.InterviewQuestion) error
	ListMessages(ctx context.Context, roomID string) ([]*models.InterviewMessage, error)
}

// Publisher replicates frames to other instances. See Bus.
type Publisher interface {
	Publish(ctx context.Context, frame *models.SessionFrame) error
}

// NopPublisher is used when no bus is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.SessionFrame) error { return nil }

// Coordinator runs the live messaging of a room: it validates senders
// against the room lifecycle, persists the transcript, and pushes
// frames to connected clients. Persist first, then push; a frame is
// never delivered for a message that was not stored.
type Coordinator struct {
	rooms     *room.Manager
	store     Store
	hub       *Hub
	publisher Publisher
	now       func() time.Time
}

func NewCoordinator(rooms *room.Manager, store Store, hub *Hub, publisher Publisher) *Coordinator {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Coordinator{
		rooms:     rooms,
		store:     store,
		hub:       hub,
		publisher: publisher,
		now:       time.Now,
	}
}

// Join admits a party into the room session and announces it.
// Joining a finished room returns the room for history viewing without
// any announcement.
func (c *Coordinator) Join(ctx context.Context, roomCode, userID string) (*models.InterviewRoom, models.Role, error) {
	rm, role, err := c.rooms.Join(ctx, roomCode, userID)
	if err != nil {
		return nil, "", err
	}

	if rm.Status.IsActive() {
		c.push(ctx, &models.SessionFrame{
			Type:       models.FrameJoin,
			RoomCode:   rm.RoomCode,
			SenderID:   userID,
			SenderRole: role,
			Timestamp:  c.now(),
		})
	}
	return rm, role, nil
}

// Leave announces a party leaving. Nothing is persisted; presence is
// not part of the transcript.
func (c *Coordinator) Leave(ctx context.Context, roomCode string, party models.Party) {
	c.push(ctx, &models.SessionFrame{
		Type:       models.FrameLeave,
		RoomCode:   roomCode,
		SenderID:   party.UserID,
		SenderRole: party.Role,
		Timestamp:  c.now(),
	})
}

// Send validates, persists and fans out one message. The first message
// into a SCHEDULED room inside its window starts the session. QUESTION
// messages are recruiter-only and also create a question record so the
// async flow can track the answer.
func (c *Coordinator) Send(ctx context.Context, roomCode string, senderID string, msgType models.MessageType, content string) (*models.InterviewMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidMessage)
	}
	if msgType == "" {
		msgType = models.MessageChat
	}
	if msgType == models.MessageSystem || !msgType.IsValid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidMessage, msgType)
	}

	rm, err := c.rooms.EnsureLive(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	role, ok := rm.ParticipantRole(senderID)
	if !ok {
		return nil, room.ErrNotParticipant
	}
	if msgType == models.MessageQuestion && role != models.RoleRecruiter {
		return nil, room.ErrNotRecruiter
	}

	msg := &models.InterviewMessage{
		ID:         uuid.New().String(),
		RoomID:     rm.ID,
		SenderID:   senderID,
		SenderRole: role,
		Type:       msgType,
		Content:    content,
		CreatedAt:  c.now(),
	}

	// A QUESTION message and its question record commit together, so
	// the transcript never shows a question the async flow cannot track
	if msgType == models.MessageQuestion {
		q := &models.InterviewQuestion{
			ID:      uuid.New().String(),
			RoomID:  rm.ID,
			Content: content,
			Status:  models.QuestionPending,
			AskedAt: msg.CreatedAt,
		}
		if err := c.store.AppendQuestionMessage(ctx, msg, q); err != nil {
			return nil, fmt.Errorf("failed to append question message: %w", err)
		}
	} else {
		if err := c.store.AppendMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to append message: %w", err)
		}
	}

	c.push(ctx, frameFor(rm.RoomCode, msg))
	return msg, nil
}

// End finishes the room on behalf of a participant. The first caller
// closes the transcript with a system notice; later calls are no-ops.
func (c *Coordinator) End(ctx context.Context, roomCode, userID string) (*models.InterviewRoom, error) {
	rm, err := c.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	rm, ended, err := c.rooms.End(ctx, rm.ID, userID)
	if err != nil {
		return nil, err
	}
	if !ended {
		return rm, nil
	}

	notice := &models.InterviewMessage{
		ID:         uuid.New().String(),
		RoomID:     rm.ID,
		SenderID:   userID,
		SenderRole: models.RoleSystem,
		Type:       models.MessageSystem,
		Content:    endedNotice,
		CreatedAt:  c.now(),
	}
	if err := c.store.AppendMessage(ctx, notice); err != nil {
		slog.Error("failed to append end notice", "error", err, "room_id", rm.ID)
	}

	c.push(ctx, &models.SessionFrame{
		Type:       models.FrameEnd,
		RoomCode:   rm.RoomCode,
		SenderID:   userID,
		SenderRole: models.RoleSystem,
		Content:    endedNotice,
		Sequence:   notice.Sequence,
		Timestamp:  c.now(),
	})
	return rm, nil
}

// History returns the room transcript in sequence order. Available to
// participants in any room state, including finished rooms.
func (c *Coordinator) History(ctx context.Context, roomCode, userID string) ([]*models.InterviewMessage, error) {
	rm, err := c.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if _, ok := rm.ParticipantRole(userID); !ok {
		return nil, room.ErrNotParticipant
	}

	msgs, err := c.store.ListMessages(ctx, rm.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// push delivers a frame locally and replicates it to other instances
func (c *Coordinator) push(ctx context.Context, frame *models.SessionFrame) {
	c.hub.Broadcast(frame)
	if err := c.publisher.Publish(ctx, frame); err != nil {
		slog.Error("failed to publish session frame", "error", err, "room_code", frame.RoomCode)
	}
}

func frameFor(roomCode string, msg *models.InterviewMessage) *models.SessionFrame {
	var frameType string
	switch msg.Type {
	case models.MessageQuestion:
		frameType = models.FrameQuestion
	case models.MessageSystem:
		frameType = models.FrameSystem
	default:
		frameType = models.FrameChat
	}
	return &models.SessionFrame{
		Type:       frameType,
		RoomCode:   roomCode,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Content:    msg.Content,
		Sequence:   msg.Sequence,
		Timestamp:  msg.CreatedAt,
	}
}
