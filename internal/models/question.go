package models

import "time"

// QuestionStatus represents the answer state of an interview question
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "PENDING"
	QuestionAnswered QuestionStatus = "ANSWERED"
)

// QuestionEvaluation is the recruiter's verdict on an answered question.
// Empty means not evaluated yet.
type QuestionEvaluation string

const (
	EvaluationPass QuestionEvaluation = "PASS"
	EvaluationFail QuestionEvaluation = "FAIL"
)

// IsValid reports whether the evaluation is a known verdict
func (e QuestionEvaluation) IsValid() bool {
	return e == EvaluationPass || e == EvaluationFail
}

// InterviewQuestion is one question in an asynchronous interview round.
// Answer is set at most once; the evaluation may be overwritten while
// the owning room is still active.
type InterviewQuestion struct {
	ID         string             `json:"id"`
	RoomID     string             `json:"room_id"`
	Content    string             `json:"content"`
	Answer     string             `json:"answer,omitempty"`
	Status     QuestionStatus     `json:"status"`
	Evaluation QuestionEvaluation `json:"evaluation,omitempty"`
	OrderIndex int                `json:"order_index"`
	AskedAt    time.Time          `json:"asked_at"`
	AnsweredAt *time.Time         `json:"answered_at,omitempty"`
}

// AnswerQuestionRequest is the payload for answering a question
type AnswerQuestionRequest struct {
	Text string `json:"text"`
}

// EvaluateQuestionRequest is the payload for evaluating an answer
type EvaluateQuestionRequest struct {
	Outcome QuestionEvaluation `json:"outcome"`
}

// QuestionListResponse is the question list plus the aggregated pass rate.
// PassRate is nil when no question has been evaluated yet.
type QuestionListResponse struct {
	Questions []*InterviewQuestion `json:"questions"`
	PassRate  *float64             `json:"pass_rate,omitempty"`
}
