package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hirehub/interview-engine/internal/models"
)

// Schedule request handlers

func (s *Server) handleCreateScheduleRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := s.engine.Create(r.Context(), PartyFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetScheduleRequestByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "request code is required")
		return
	}

	req, err := s.engine.GetByCode(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleSelectSlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "request id is required")
		return
	}

	var req models.SelectSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SlotID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "slot_id is required")
		return
	}

	room, err := s.engine.SelectSlot(r.Context(), PartyFromContext(r.Context()), id, req.SlotID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s.roomView(room))
}

func (s *Server) handleCancelScheduleRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "request id is required")
		return
	}

	if err := s.engine.Cancel(r.Context(), PartyFromContext(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "schedule request cancelled",
	})
}
