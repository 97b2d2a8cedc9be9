package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/notify"
	"github.com/hirehub/interview-engine/internal/storage"
)

// Common errors
var (
	ErrValidation            = errors.New("invalid schedule request")
	ErrRequestNotFound       = errors.New("schedule request not found")
	ErrRequestExpired        = errors.New("schedule request has expired")
	ErrRequestAlreadyHandled = errors.New("schedule request was already answered or withdrawn")
	ErrNotApplicant          = errors.New("caller is not the applicant of this request")
	ErrNotRecruiter          = errors.New("caller is not the recruiter of this request")
	ErrSlotNotFound          = errors.New("time slot does not belong to this request")
	ErrSlotUnavailable       = errors.New("time slot is no longer available")
	ErrNoAvailableSlots      = errors.New("no proposed time slot is still available")
	ErrRoomExists            = errors.New("an open room already exists for this round")
)

const (
	minProposedTimes = 3
	maxProposedTimes = 10

	defaultDurationMinutes = 60
	maxDurationMinutes     = 8 * 60

	defaultExpirationHours = 72
	maxExpirationHours     = 30 * 24
)

// Store is the persistence surface the negotiation engine needs
type Store interface {
	CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error
	GetScheduleRequestByID(ctx context.Context, id string) (*models.ScheduleRequest, error)
	GetScheduleRequestByCode(ctx context.Context, code string) (*models.ScheduleRequest, error)
	SelectSlot(ctx context.Context, requestID, slotID string, respondedAt time.Time, room *models.InterviewRoom) (bool, error)
	UpdateRequestStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error)
	GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error)
}

// Engine owns the ScheduleRequest lifecycle: propose, conflict-check,
// select, commit, expire
type Engine struct {
	store    Store
	notifier notify.Dispatcher
	now      func() time.Time
}

// NewEngine creates a new negotiation engine
func NewEngine(store Store, notifier notify.Dispatcher) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create proposes a new schedule request on behalf of a recruiter
func (e *Engine) Create(ctx context.Context, caller models.Party, in models.CreateScheduleRequest) (*models.ScheduleRequest, error) {
	if caller.Role != models.RoleRecruiter {
		return nil, ErrNotRecruiter
	}
	if in.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}
	if in.ApplicantID == "" {
		return nil, fmt.Errorf("%w: applicant_id is required", ErrValidation)
	}
	if in.InterviewType == "" {
		in.InterviewType = models.InterviewChat
	}
	if in.InterviewMode == "" {
		in.InterviewMode = models.ModeLive
	}
	if in.InterviewType == models.InterviewVideo {
		return nil, fmt.Errorf("%w: video interviews are not supported yet", ErrValidation)
	}

	if len(in.ProposedTimes) < minProposedTimes || len(in.ProposedTimes) > maxProposedTimes {
		return nil, fmt.Errorf("%w: between %d and %d proposed times are required",
			ErrValidation, minProposedTimes, maxProposedTimes)
	}

	// Incomplete entries are dropped, but at least one usable time must remain
	var usable []time.Time
	for _, t := range in.ProposedTimes {
		if !t.IsZero() {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no usable proposed time", ErrValidation)
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}
	if duration < 1 || duration > maxDurationMinutes {
		return nil, fmt.Errorf("%w: duration_minutes must be between 1 and %d", ErrValidation, maxDurationMinutes)
	}

	expiration := in.ExpirationHours
	if expiration == 0 {
		expiration = defaultExpirationHours
	}
	if expiration < 1 || expiration > maxExpirationHours {
		return nil, fmt.Errorf("%w: expiration_hours must be between 1 and %d", ErrValidation, maxExpirationHours)
	}

	code, err := models.GenerateRequestCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request code: %w", err)
	}

	round := in.Round
	if round == 0 {
		round = 1
	}

	now := e.now()
	req := &models.ScheduleRequest{
		ID:              uuid.New().String(),
		JobID:           in.JobID,
		ApplicantID:     in.ApplicantID,
		RecruiterID:     caller.UserID,
		Status:          models.RequestPending,
		RequestCode:     code,
		DurationMinutes: duration,
		InterviewType:   in.InterviewType,
		InterviewMode:   in.InterviewMode,
		Round:           round,
		PreviousRoomID:  in.PreviousRoomID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(expiration) * time.Hour),
	}
	for _, t := range usable {
		req.Slots = append(req.Slots, &models.TimeSlot{
			ID:        uuid.New().String(),
			RequestID: req.ID,
			StartTime: t,
		})
	}

	if err := e.store.CreateScheduleRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create schedule request: %w", err)
	}

	slog.Info("schedule request created",
		"id", req.ID,
		"job", req.JobID,
		"applicant", req.ApplicantID,
		"slots", len(req.Slots),
		"expires_at", req.ExpiresAt,
	)

	e.dispatch("request created", func(ctx context.Context) error {
		return e.notifier.RequestCreated(ctx, req)
	})

	e.annotateAvailability(ctx, req)
	return req, nil
}

// GetByCode fetches a request by its opaque code, recomputing every
// slot's availability against the applicant's current committed rooms.
// A request with zero available slots is still returned so the caller
// can react.
func (e *Engine) GetByCode(ctx context.Context, code string) (*models.ScheduleRequest, error) {
	req, err := e.store.GetScheduleRequestByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule request: %w", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	e.expireIfDue(ctx, req)
	e.annotateAvailability(ctx, req)
	return req, nil
}

// SelectSlot claims one slot for the applicant. Exactly one concurrent
// caller wins; the loser observes a conflict, never a duplicate room.
func (e *Engine) SelectSlot(ctx context.Context, caller models.Party, requestID, slotID string) (*models.InterviewRoom, error) {
	req, err := e.store.GetScheduleRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule request: %w", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	if e.expireIfDue(ctx, req) {
		return nil, ErrRequestExpired
	}
	switch req.Status {
	case models.RequestPending:
	case models.RequestExpired:
		return nil, ErrRequestExpired
	default:
		return nil, ErrRequestAlreadyHandled
	}

	if caller.UserID != req.ApplicantID {
		return nil, ErrNotApplicant
	}

	slot := req.Slot(slotID)
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	// Availability is re-checked at selection time, not proposal time:
	// a slot open when proposed may have been consumed since.
	windows, err := e.committedWindows(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}
	if avail := CheckAvailability(slot.StartTime, req.Duration(), windows); !avail.Available {
		for _, s := range req.Slots {
			if CheckAvailability(s.StartTime, req.Duration(), windows).Available {
				return nil, ErrSlotUnavailable
			}
		}
		return nil, ErrNoAvailableSlots
	}

	roomCode, err := models.GenerateRoomCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room code: %w", err)
	}

	now := e.now()
	room := &models.InterviewRoom{
		ID:              uuid.New().String(),
		JobID:           req.JobID,
		ApplicantID:     req.ApplicantID,
		RecruiterID:     req.RecruiterID,
		RoomCode:        roomCode,
		ScheduledAt:     slot.StartTime,
		DurationMinutes: req.DurationMinutes,
		Status:          models.RoomScheduled,
		InterviewType:   req.InterviewType,
		Mode:            req.InterviewMode,
		Round:           req.Round,
		PreviousRoomID:  req.PreviousRoomID,
		CreatedAt:       now,
	}

	won, err := e.store.SelectSlot(ctx, req.ID, slotID, now, room)
	if err != nil {
		// A non-overlapping room for the same round passes the
		// availability check but still trips the one-open-room index
		if errors.Is(err, storage.ErrDuplicateOpenRoom) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to select slot: %w", err)
	}
	if !won {
		// Lost the race: report what actually happened
		current, err := e.store.GetScheduleRequestByID(ctx, requestID)
		if err == nil && current != nil && current.Status == models.RequestExpired {
			return nil, ErrRequestExpired
		}
		return nil, ErrRequestAlreadyHandled
	}

	req.Status = models.RequestSelected
	req.SelectedTimeSlotID = slotID
	req.RespondedAt = &now

	slog.Info("slot selected",
		"request_id", req.ID,
		"slot_id", slotID,
		"room_id", room.ID,
		"scheduled_at", room.ScheduledAt,
	)

	e.dispatch("slot selected", func(ctx context.Context) error {
		return e.notifier.SlotSelected(ctx, req, room)
	})
	e.dispatch("room created", func(ctx context.Context) error {
		return e.notifier.RoomCreated(ctx, room)
	})

	return room, nil
}

// Cancel withdraws a pending request. Cancelling an already-cancelled
// request is a no-op.
func (e *Engine) Cancel(ctx context.Context, caller models.Party, requestID string) error {
	req, err := e.store.GetScheduleRequestByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get schedule request: %w", err)
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if caller.UserID != req.RecruiterID {
		return ErrNotRecruiter
	}
	if req.Status == models.RequestCancelled {
		return nil
	}

	ok, err := e.store.UpdateRequestStatus(ctx, requestID,
		[]models.RequestStatus{models.RequestPending}, models.RequestCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel schedule request: %w", err)
	}
	if !ok {
		return ErrRequestAlreadyHandled
	}

	slog.Info("schedule request cancelled", "id", requestID)
	return nil
}

// expireIfDue lazily transitions a PENDING request past its window to
// EXPIRED. Idempotent: losing the transition race is not an error.
func (e *Engine) expireIfDue(ctx context.Context, req *models.ScheduleRequest) bool {
	if !req.IsExpired(e.now()) {
		return false
	}

	if _, err := e.store.UpdateRequestStatus(ctx, req.ID,
		[]models.RequestStatus{models.RequestPending}, models.RequestExpired); err != nil {
		slog.Error("failed to expire schedule request", "error", err, "id", req.ID)
	}
	req.Status = models.RequestExpired
	return true
}

// annotateAvailability recomputes the derived availability of every slot
func (e *Engine) annotateAvailability(ctx context.Context, req *models.ScheduleRequest) {
	windows, err := e.committedWindows(ctx, req.ApplicantID)
	if err != nil {
		slog.Error("failed to load committed rooms", "error", err, "applicant", req.ApplicantID)
		return
	}

	for _, slot := range req.Slots {
		avail := CheckAvailability(slot.StartTime, req.Duration(), windows)
		slot.Available = avail.Available
		slot.ConflictReason = avail.Reason
	}
}

func (e *Engine) committedWindows(ctx context.Context, applicantID string) ([]Window, error) {
	rooms, err := e.store.GetCommittedRooms(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get committed rooms: %w", err)
	}

	windows := make([]Window, 0, len(rooms))
	for _, room := range rooms {
		windows = append(windows, Window{Start: room.ScheduledAt, End: room.EndsAt()})
	}
	return windows, nil
}

// dispatch fires a notification without blocking the core mutation.
// Dispatch failures are logged, never rolled back.
func (e *Engine) dispatch(event string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.Error("failed to dispatch notification", "event", event, "error", err)
		}
	}()
}
