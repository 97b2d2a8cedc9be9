package question

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/room"
)

var (
	ErrValidation       = errors.New("invalid question request")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadyAnswered  = errors.New("question has already been answered")
	ErrNotAnswered      = errors.New("question has not been answered yet")
	ErrEvaluationLocked = errors.New("room is closed, evaluations are locked")
)

// Store is the persistence surface the question flow needs
type Store interface {
	GetQuestion(ctx context.Context, id string) (*models.InterviewQuestion, error)
	ListQuestions(ctx context.Context, roomID string) ([]*models.InterviewQuestion, error)
	AnswerQuestion(ctx context.Context, id, answer string, answeredAt time.Time) (bool, error)
	EvaluateQuestion(ctx context.Context, id string, outcome models.QuestionEvaluation) error
}

// Flow tracks questions through PENDING → ANSWERED and carries the
// recruiter's per-question verdicts. Questions are born from QUESTION
// messages in the session transcript; this coordinator owns everything
// after that.
type Flow struct {
	rooms *room.Manager
	store Store
	now   func() time.Time
}

func NewFlow(rooms *room.Manager, store Store) *Flow {
	return &Flow{rooms: rooms, store: store, now: time.Now}
}

// List returns the room's questions in ask order together with the
// running pass rate. Any participant may read.
func (f *Flow) List(ctx context.Context, roomID, userID string) (*models.QuestionListResponse, error) {
	rm, err := f.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, ok := rm.ParticipantRole(userID); !ok {
		return nil, room.ErrNotParticipant
	}

	questions, err := f.store.ListQuestions(ctx, rm.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return &models.QuestionListResponse{
		Questions: questions,
		PassRate:  passRate(questions),
	}, nil
}

// Answer records the applicant's answer. A question is answered at most
// once; the room must still be live.
func (f *Flow) Answer(ctx context.Context, questionID, userID, text string) (*models.InterviewQuestion, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: answer text is required", ErrValidation)
	}

	q, rm, err := f.resolve(ctx, questionID)
	if err != nil {
		return nil, err
	}

	role, ok := rm.ParticipantRole(userID)
	if !ok {
		return nil, room.ErrNotParticipant
	}
	if role != models.RoleApplicant {
		return nil, room.ErrNotParticipant
	}

	if !f.writable(rm) {
		return nil, room.ErrRoomClosed
	}
	if q.Status == models.QuestionAnswered {
		return nil, ErrAlreadyAnswered
	}

	answeredAt := f.now()
	ok, err = f.store.AnswerQuestion(ctx, q.ID, text, answeredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyAnswered
	}

	q.Answer = text
	q.Status = models.QuestionAnswered
	q.AnsweredAt = &answeredAt
	slog.Info("question answered", "id", q.ID, "room_id", rm.ID)
	return q, nil
}

// Evaluate records the recruiter's verdict on an answered question.
// Verdicts may be revised while the room is live; once the room is
// FINISHED or CANCELLED they are locked.
func (f *Flow) Evaluate(ctx context.Context, questionID, userID string, outcome models.QuestionEvaluation) (*models.InterviewQuestion, error) {
	if !outcome.IsValid() {
		return nil, fmt.Errorf("%w: outcome must be PASS or FAIL", ErrValidation)
	}

	q, rm, err := f.resolve(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if rm.RecruiterID != userID {
		return nil, room.ErrNotRecruiter
	}
	if rm.Status.IsTerminal() {
		return nil, ErrEvaluationLocked
	}
	if q.Status != models.QuestionAnswered {
		return nil, ErrNotAnswered
	}

	if err := f.store.EvaluateQuestion(ctx, q.ID, outcome); err != nil {
		return nil, fmt.Errorf("failed to evaluate question: %w", err)
	}

	q.Evaluation = outcome
	slog.Info("question evaluated", "id", q.ID, "room_id", rm.ID, "outcome", outcome)
	return q, nil
}

// resolve loads a question and its room, applying the room's lazy expiry
func (f *Flow) resolve(ctx context.Context, questionID string) (*models.InterviewQuestion, *models.InterviewRoom, error) {
	q, err := f.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil {
		return nil, nil, ErrQuestionNotFound
	}

	rm, err := f.rooms.Get(ctx, q.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return q, rm, nil
}

func (f *Flow) writable(rm *models.InterviewRoom) bool {
	if !rm.Status.IsActive() {
		return false
	}
	if rm.Status == models.RoomScheduled && f.now().After(rm.EndsAt()) {
		return false
	}
	return true
}

// passRate is the PASS share among evaluated questions, nil when none
// have a verdict yet.
func passRate(questions []*models.InterviewQuestion) *float64 {
	var evaluated, passed int
	for _, q := range questions {
		switch q.Evaluation {
		case models.EvaluationPass:
			evaluated++
			passed++
		case models.EvaluationFail:
			evaluated++
		}
	}
	if evaluated == 0 {
		return nil
	}
	rate := float64(passed) / float64(evaluated)
	return &rate
}
