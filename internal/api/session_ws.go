package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleSessionWS upgrades a participant into the room's session
// channel. Join checks run before the upgrade so rejections stay
// ordinary HTTP errors.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "room code is required")
		return
	}

	party := PartyFromContext(r.Context())

	rm, role, err := s.coordinator.Join(r.Context(), code, party.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	slog.Info("session websocket connected",
		"room_code", code,
		"user_id", party.UserID,
		"role", role,
		"room_status", rm.Status,
	)

	client := s.hub.NewClient(conn, code, party.UserID, role)

	// The request context dies with the handler; session operations
	// triggered by inbound frames get their own lifetime
	ctx := context.Background()

	client.Start(func(frame *models.SessionFrame) {
		s.dispatchFrame(ctx, client, code, party.UserID, frame)
	})

	s.coordinator.Leave(ctx, code, models.Party{UserID: party.UserID, Role: role})
	slog.Info("session websocket disconnected", "room_code", code, "user_id", party.UserID)
}

// dispatchFrame routes one inbound frame through the coordinator.
// Failures go back to the sending client only, never the whole room.
func (s *Server) dispatchFrame(ctx context.Context, client *session.Client, code, userID string, frame *models.SessionFrame) {
	switch frame.Type {
	case models.FrameChat:
		if _, err := s.coordinator.Send(ctx, code, userID, models.MessageChat, frame.Content); err != nil {
			client.SendError(err.Error())
		}
	case models.FrameQuestion:
		if _, err := s.coordinator.Send(ctx, code, userID, models.MessageQuestion, frame.Content); err != nil {
			client.SendError(err.Error())
		}
	case models.FrameEnd:
		if _, err := s.coordinator.End(ctx, code, userID); err != nil {
			client.SendError(err.Error())
		}
	default:
		client.SendError("unsupported frame type")
	}
}
