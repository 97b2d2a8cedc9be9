package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hirehub/interview-engine/internal/evaluation"
	"github.com/hirehub/interview-engine/internal/question"
	"github.com/hirehub/interview-engine/internal/room"
	"github.com/hirehub/interview-engine/internal/schedule"
	"github.com/hirehub/interview-engine/internal/session"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondDomainError maps domain sentinels onto the HTTP error surface.
// Unknown errors are logged and reported as internal.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrValidation),
		errors.Is(err, room.ErrValidation),
		errors.Is(err, question.ErrValidation),
		errors.Is(err, evaluation.ErrValidation),
		errors.Is(err, session.ErrInvalidMessage):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, schedule.ErrRequestNotFound),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, question.ErrQuestionNotFound),
		errors.Is(err, evaluation.ErrResultNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, schedule.ErrRequestExpired):
		respondError(w, http.StatusGone, "expired", err.Error())

	case errors.Is(err, schedule.ErrNotApplicant),
		errors.Is(err, schedule.ErrNotRecruiter),
		errors.Is(err, room.ErrNotParticipant),
		errors.Is(err, room.ErrNotRecruiter):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, schedule.ErrSlotNotFound):
		respondError(w, http.StatusNotFound, "slot_not_found", err.Error())

	case errors.Is(err, schedule.ErrRequestAlreadyHandled),
		errors.Is(err, schedule.ErrSlotUnavailable),
		errors.Is(err, schedule.ErrNoAvailableSlots),
		errors.Is(err, schedule.ErrRoomExists),
		errors.Is(err, room.ErrRoomExists),
		errors.Is(err, room.ErrSlotConflict),
		errors.Is(err, question.ErrAlreadyAnswered),
		errors.Is(err, evaluation.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, room.ErrRoomClosed),
		errors.Is(err, room.ErrRoomFinished),
		errors.Is(err, question.ErrNotAnswered),
		errors.Is(err, question.ErrEvaluationLocked):
		respondError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())

	default:
		slog.Error("unhandled domain error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "database not reachable")
		return
	}

	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "redis not reachable")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
