package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hirehub/interview-engine/internal/models"
)

// Question flow handlers

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	list, err := s.questions.List(r.Context(), id, PartyFromContext(r.Context()).UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "question id is required")
		return
	}

	var req models.AnswerQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	q, err := s.questions.Answer(r.Context(), id, PartyFromContext(r.Context()).UserID, req.Text)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleEvaluateQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "question id is required")
		return
	}

	var req models.EvaluateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	q, err := s.questions.Evaluate(r.Context(), id, PartyFromContext(r.Context()).UserID, req.Outcome)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, q)
}
