package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hirehub/interview-engine/internal/models"
)

// Room handlers

// roomView attaches the derived expiry flag to a room
func (s *Server) roomView(rm *models.InterviewRoom) models.RoomView {
	return models.RoomView{
		InterviewRoom: rm,
		IsExpired:     rm.IsExpired(time.Now()),
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	rm, err := s.rooms.CreateDirect(r.Context(), PartyFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s.roomView(rm))
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	rm, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.roomView(rm))
}

func (s *Server) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room code is required")
		return
	}

	rm, err := s.rooms.GetByCode(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.roomView(rm))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	filters := models.RoomFilters{
		RecruiterID: r.URL.Query().Get("recruiter_id"),
		ApplicantID: r.URL.Query().Get("applicant_id"),
		Status:      models.RoomStatus(r.URL.Query().Get("status")),
		Limit:       50, // default
		Offset:      0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	rooms, err := s.rooms.List(r.Context(), filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	views := make([]models.RoomView, 0, len(rooms))
	for _, rm := range rooms {
		views = append(views, s.roomView(rm))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": views,
		"total": len(views),
	})
}

func (s *Server) handleEndRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	rm, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// The coordinator closes the transcript and notifies live clients
	rm, err = s.coordinator.End(r.Context(), rm.RoomCode, PartyFromContext(r.Context()).UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.roomView(rm))
}

func (s *Server) handleCancelRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	rm, err := s.rooms.Cancel(r.Context(), id, PartyFromContext(r.Context()).UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.roomView(rm))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	rm, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	msg, err := s.coordinator.Send(r.Context(), rm.RoomCode, PartyFromContext(r.Context()).UserID, req.Type, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room id is required")
		return
	}

	rm, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	messages, err := s.coordinator.History(r.Context(), rm.RoomCode, PartyFromContext(r.Context()).UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    len(messages),
	})
}
