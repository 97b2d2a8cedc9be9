package evaluation

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
	ErrValidation       = errors.New("invalid result")
	ErrResultNotFound   = errors.New("result not found")
	ErrAlreadySubmitted = errors.New("result has already been submitted")
)

const (
	minScore = 1
	maxScore = 10
)

// Store is the persistence surface the finalizer needs. SaveDraftResult
// and SubmitResult return false when a submitted result already exists.
type Store interface {
	GetResultByRoom(ctx context.Context, roomID string) (*models.InterviewResult, error)
	SaveDraftResult(ctx context.Context, res *models.InterviewResult) (bool, error)
	SubmitResult(ctx context.Context, res *models.InterviewResult) (bool, error)
}

// Finalizer owns the room's overall result: draft freely, submit once.
// Only the room's recruiter touches results; the applicant never sees
// private notes, the handler strips them for non-recruiters.
type Finalizer struct {
	rooms *room.Manager
	store Store
	now   func() time.Time
}

func NewFinalizer(rooms *room.Manager, store Store) *Finalizer {
	return &Finalizer{rooms: rooms, store: store, now: time.Now}
}

// SaveDraft upserts the draft result for a room. Fails once a final
// result exists.
func (f *Finalizer) SaveDraft(ctx context.Context, roomID, userID string, in models.SaveResultRequest) (*models.InterviewResult, error) {
	rm, err := f.authorize(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	// Drafts may be partial; only bounds are enforced
	if in.Score != 0 && (in.Score < minScore || in.Score > maxScore) {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrValidation, minScore, maxScore)
	}
	if in.Recommendation != "" && !in.Recommendation.IsValid() {
		return nil, fmt.Errorf("%w: unknown recommendation %q", ErrValidation, in.Recommendation)
	}

	res := f.build(rm.ID, in, true)
	ok, err := f.store.SaveDraftResult(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft result: %w", err)
	}
	if !ok {
		return nil, ErrAlreadySubmitted
	}

	slog.Info("result draft saved", "room_id", rm.ID)
	return res, nil
}

// Submit finalizes the result. A submitted result is immutable and a
// second submit fails, whatever its content.
func (f *Finalizer) Submit(ctx context.Context, roomID, userID string, in models.SaveResultRequest) (*models.InterviewResult, error) {
	rm, err := f.authorize(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	if in.Score < minScore || in.Score > maxScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrValidation, minScore, maxScore)
	}
	if in.Comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrValidation)
	}
	if !in.Recommendation.IsValid() {
		return nil, fmt.Errorf("%w: unknown recommendation %q", ErrValidation, in.Recommendation)
	}

	res := f.build(rm.ID, in, false)
	ok, err := f.store.SubmitResult(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to submit result: %w", err)
	}
	if !ok {
		return nil, ErrAlreadySubmitted
	}

	slog.Info("result submitted", "room_id", rm.ID, "recommendation", in.Recommendation)
	return res, nil
}

// Get returns the room's result for any participant. Private notes are
// filtered out for the applicant.
func (f *Finalizer) Get(ctx context.Context, roomID, userID string) (*models.InterviewResult, error) {
	rm, err := f.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	role, ok := rm.ParticipantRole(userID)
	if !ok {
		return nil, room.ErrNotParticipant
	}

	res, err := f.store.GetResultByRoom(ctx, rm.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if res == nil {
		return nil, ErrResultNotFound
	}

	if role != models.RoleRecruiter {
		res.PrivateNotes = ""
	}
	return res, nil
}

func (f *Finalizer) authorize(ctx context.Context, roomID, userID string) (*models.InterviewRoom, error) {
	rm, err := f.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.RecruiterID != userID {
		return nil, room.ErrNotRecruiter
	}
	return rm, nil
}

func (f *Finalizer) build(roomID string, in models.SaveResultRequest, draft bool) *models.InterviewResult {
	now := f.now()
	return &models.InterviewResult{
		ID:             uuid.New().String(),
		RoomID:         roomID,
		Score:          in.Score,
		Comment:        in.Comment,
		PrivateNotes:   in.PrivateNotes,
		Recommendation: in.Recommendation,
		IsDraft:        draft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
