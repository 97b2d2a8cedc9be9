package storage

import (
	"context"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
)

// Repository defines the persistence surface for the interview core.
// Conditional mutations (SelectSlot, UpdateRoomStatus, AnswerQuestion,
// SaveDraftResult, SubmitResult) return false instead of an error when
// the guard did not hold, so callers can tell lost races apart from
// storage faults.
type Repository interface {
	// Schedule requests
	CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error
	GetScheduleRequestByID(ctx context.Context, id string) (*models.ScheduleRequest, error)
	GetScheduleRequestByCode(ctx context.Context, code string) (*models.ScheduleRequest, error)
	// SelectSlot atomically claims a slot on a PENDING request and creates
	// the room in the same transaction. Returns false if the request was
	// no longer PENDING.
	SelectSlot(ctx context.Context, requestID, slotID string, respondedAt time.Time, room *models.InterviewRoom) (bool, error)
	UpdateRequestStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error)
	ExpirePendingRequests(ctx context.Context, now time.Time) (int64, error)

	// Rooms
	CreateRoom(ctx context.Context, room *models.InterviewRoom) error
	GetRoomByID(ctx context.Context, id string) (*models.InterviewRoom, error)
	GetRoomByCode(ctx context.Context, code string) (*models.InterviewRoom, error)
	ListRooms(ctx context.Context, filters models.RoomFilters) ([]*models.InterviewRoom, error)
	GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error)
	UpdateRoomStatus(ctx context.Context, id string, from []models.RoomStatus, to models.RoomStatus) (bool, error)
	FinishOverdueRooms(ctx context.Context, now time.Time) (int64, error)
	CountOpenRooms(ctx context.Context, jobID, applicantID string, round int) (int, error)

	// Messages
	AppendMessage(ctx context.Context, msg *models.InterviewMessage) error
	// AppendQuestionMessage stores a QUESTION message and its question
	// record atomically, assigning both the message sequence and the
	// question's order index.
	AppendQuestionMessage(ctx context.Context, msg *models.InterviewMessage, q *models.InterviewQuestion) error
	ListMessages(ctx context.Context, roomID string) ([]*models.InterviewMessage, error)

	// Questions
	GetQuestion(ctx context.Context, id string) (*models.InterviewQuestion, error)
	ListQuestions(ctx context.Context, roomID string) ([]*models.InterviewQuestion, error)
	AnswerQuestion(ctx context.Context, id, answer string, answeredAt time.Time) (bool, error)
	EvaluateQuestion(ctx context.Context, id string, outcome models.QuestionEvaluation) error

	// Results
	GetResultByRoom(ctx context.Context, roomID string) (*models.InterviewResult, error)
	SaveDraftResult(ctx context.Context, res *models.InterviewResult) (bool, error)
	SubmitResult(ctx context.Context, res *models.InterviewResult) (bool, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
