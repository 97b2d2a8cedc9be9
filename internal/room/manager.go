package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/notify"
	"github.com/hirehub/interview-engine/internal/schedule"
	"github.com/hirehub/interview-engine/internal/storage"
)

// Common errors
var (
	ErrValidation     = errors.New("invalid room request")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotParticipant = errors.New("caller is not a participant of this room")
	ErrNotRecruiter   = errors.New("caller is not the recruiter of this room")
	ErrRoomClosed     = errors.New("room is finished or cancelled")
	ErrRoomFinished   = errors.New("room has already finished")
	ErrRoomExists     = errors.New("an open room already exists for this round")
	ErrSlotConflict   = errors.New("scheduled time conflicts with an existing interview")
)

// Store is the persistence surface the lifecycle manager needs
type Store interface {
	CreateRoom(ctx context.Context, room *models.InterviewRoom) error
	GetRoomByID(ctx context.Context, id string) (*models.InterviewRoom, error)
	GetRoomByCode(ctx context.Context, code string) (*models.InterviewRoom, error)
	ListRooms(ctx context.Context, filters models.RoomFilters) ([]*models.InterviewRoom, error)
	GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error)
	UpdateRoomStatus(ctx context.Context, id string, from []models.RoomStatus, to models.RoomStatus) (bool, error)
	CountOpenRooms(ctx context.Context, jobID, applicantID string, round int) (int, error)
}

// Manager owns the InterviewRoom state machine:
// SCHEDULED → ONGOING → FINISHED, with CANCELLED reachable from the
// first two. Expiry is always derived, never persisted.
type Manager struct {
	store     Store
	notifier  notify.Dispatcher
	joinGrace time.Duration
	now       func() time.Time
}

// NewManager creates a room lifecycle manager. joinGrace is how early a
// party may join before the scheduled time and still start the session.
func NewManager(store Store, notifier notify.Dispatcher, joinGrace time.Duration) *Manager {
	return &Manager{
		store:     store,
		notifier:  notifier,
		joinGrace: joinGrace,
		now:       time.Now,
	}
}

// CreateDirect creates a room immediately, bypassing negotiation.
// The scheduled time is still conflict-checked against the applicant's
// committed rooms.
func (m *Manager) CreateDirect(ctx context.Context, caller models.Party, in models.CreateRoomRequest) (*models.InterviewRoom, error) {
	if caller.Role != models.RoleRecruiter {
		return nil, ErrNotRecruiter
	}
	if in.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}
	if in.ApplicantID == "" {
		return nil, fmt.Errorf("%w: applicant_id is required", ErrValidation)
	}
	if in.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at is required", ErrValidation)
	}
	if in.DurationMinutes < 1 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
	}
	if in.InterviewType == "" {
		in.InterviewType = models.InterviewChat
	}
	if in.Mode == "" {
		in.Mode = models.ModeLive
	}

	round := in.Round
	if round == 0 {
		round = 1
	}

	committed, err := m.store.GetCommittedRooms(ctx, in.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get committed rooms: %w", err)
	}
	windows := make([]schedule.Window, 0, len(committed))
	for _, r := range committed {
		windows = append(windows, schedule.Window{Start: r.ScheduledAt, End: r.EndsAt()})
	}
	duration := time.Duration(in.DurationMinutes) * time.Minute
	if avail := schedule.CheckAvailability(in.ScheduledAt, duration, windows); !avail.Available {
		return nil, fmt.Errorf("%w: %s", ErrSlotConflict, avail.Reason)
	}

	count, err := m.store.CountOpenRooms(ctx, in.JobID, in.ApplicantID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to count open rooms: %w", err)
	}
	if count > 0 {
		return nil, ErrRoomExists
	}

	code, err := models.GenerateRoomCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room code: %w", err)
	}

	room := &models.InterviewRoom{
		ID:              uuid.New().String(),
		JobID:           in.JobID,
		ApplicantID:     in.ApplicantID,
		RecruiterID:     caller.UserID,
		RoomCode:        code,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: in.DurationMinutes,
		Status:          models.RoomScheduled,
		InterviewType:   in.InterviewType,
		Mode:            in.Mode,
		Round:           round,
		PreviousRoomID:  in.PreviousRoomID,
		CreatedAt:       m.now(),
	}

	if err := m.store.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, storage.ErrDuplicateOpenRoom) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	slog.Info("room created",
		"id", room.ID,
		"job", room.JobID,
		"applicant", room.ApplicantID,
		"scheduled_at", room.ScheduledAt,
		"round", room.Round,
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.notifier.RoomCreated(ctx, room); err != nil {
			slog.Error("failed to dispatch room-created notification", "error", err, "room_id", room.ID)
		}
	}()

	return room, nil
}

// Get retrieves a room by ID, applying lazy expiry
func (m *Manager) Get(ctx context.Context, id string) (*models.InterviewRoom, error) {
	room, err := m.store.GetRoomByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	m.finishIfOverdue(ctx, room)
	return room, nil
}

// GetByCode retrieves a room by its join code, applying lazy expiry
func (m *Manager) GetByCode(ctx context.Context, code string) (*models.InterviewRoom, error) {
	room, err := m.store.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	m.finishIfOverdue(ctx, room)
	return room, nil
}

// List returns rooms matching filters
func (m *Manager) List(ctx context.Context, filters models.RoomFilters) ([]*models.InterviewRoom, error) {
	rooms, err := m.store.ListRooms(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	for _, room := range rooms {
		m.finishIfOverdue(ctx, room)
	}
	return rooms, nil
}

// Join records a party entering the session. The first join inside the
// window starts the room. Joining a FINISHED room is allowed to view
// history and does not transition anything.
func (m *Manager) Join(ctx context.Context, roomCode, userID string) (*models.InterviewRoom, models.Role, error) {
	room, err := m.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, "", err
	}

	role, ok := room.ParticipantRole(userID)
	if !ok {
		return nil, "", ErrNotParticipant
	}

	switch room.Status {
	case models.RoomCancelled:
		return nil, "", ErrRoomClosed
	case models.RoomFinished:
		return room, role, nil
	case models.RoomScheduled:
		now := m.now()
		if now.After(room.ScheduledAt.Add(-m.joinGrace)) && now.Before(room.EndsAt()) {
			m.start(ctx, room)
		}
	}

	return room, role, nil
}

// EnsureLive validates that a room can accept a message right now.
// Accepting a message while SCHEDULED implicitly starts the session.
func (m *Manager) EnsureLive(ctx context.Context, roomCode string) (*models.InterviewRoom, error) {
	room, err := m.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	if !room.Status.IsActive() {
		return nil, ErrRoomClosed
	}

	if room.Status == models.RoomScheduled {
		if m.now().After(room.EndsAt()) {
			// Never joined and the window elapsed: expired, not writable
			return nil, ErrRoomClosed
		}
		m.start(ctx, room)
	}

	return room, nil
}

// End finishes a room. Returns true when this call performed the
// transition; ending an already-FINISHED room is a no-op, not an error.
func (m *Manager) End(ctx context.Context, id, userID string) (*models.InterviewRoom, bool, error) {
	room, err := m.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if _, ok := room.ParticipantRole(userID); !ok {
		return nil, false, ErrNotParticipant
	}

	switch room.Status {
	case models.RoomFinished:
		return room, false, nil
	case models.RoomCancelled:
		return nil, false, ErrRoomClosed
	}

	ok, err := m.store.UpdateRoomStatus(ctx, room.ID,
		[]models.RoomStatus{models.RoomScheduled, models.RoomOngoing}, models.RoomFinished)
	if err != nil {
		return nil, false, fmt.Errorf("failed to finish room: %w", err)
	}

	room.Status = models.RoomFinished
	if ok {
		slog.Info("room finished", "id", room.ID, "by", userID)
	}
	return room, ok, nil
}

// Cancel cancels a room. Not reachable from FINISHED; cancelling an
// already-cancelled room is a no-op. Rooms from other rounds are never
// cascaded.
func (m *Manager) Cancel(ctx context.Context, id, userID string) (*models.InterviewRoom, error) {
	room, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, ok := room.ParticipantRole(userID); !ok {
		return nil, ErrNotParticipant
	}

	switch room.Status {
	case models.RoomFinished:
		return nil, ErrRoomFinished
	case models.RoomCancelled:
		return room, nil
	}

	ok, err := m.store.UpdateRoomStatus(ctx, room.ID,
		[]models.RoomStatus{models.RoomScheduled, models.RoomOngoing}, models.RoomCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel room: %w", err)
	}
	if !ok {
		// Lost a race against finish or another cancel
		current, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.RoomFinished {
			return nil, ErrRoomFinished
		}
		return current, nil
	}

	room.Status = models.RoomCancelled
	slog.Info("room cancelled", "id", room.ID, "by", userID)
	return room, nil
}

// start transitions SCHEDULED → ONGOING. Losing the race means another
// party already started the room, which is fine.
func (m *Manager) start(ctx context.Context, room *models.InterviewRoom) {
	ok, err := m.store.UpdateRoomStatus(ctx, room.ID,
		[]models.RoomStatus{models.RoomScheduled}, models.RoomOngoing)
	if err != nil {
		slog.Error("failed to start room", "error", err, "id", room.ID)
		return
	}

	room.Status = models.RoomOngoing
	if ok {
		slog.Info("room started", "id", room.ID)
	}
}

// finishIfOverdue applies lazy expiry: a live room past its window is
// FINISHED on next access without waiting for an explicit end.
func (m *Manager) finishIfOverdue(ctx context.Context, room *models.InterviewRoom) {
	if !room.IsOverdue(m.now()) {
		return
	}

	if _, err := m.store.UpdateRoomStatus(ctx, room.ID,
		[]models.RoomStatus{models.RoomOngoing}, models.RoomFinished); err != nil {
		slog.Error("failed to finish overdue room", "error", err, "id", room.ID)
	}
	room.Status = models.RoomFinished
}
