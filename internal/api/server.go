package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/hirehub/interview-engine/internal/config"
	"github.com/hirehub/interview-engine/internal/evaluation"
	"github.com/hirehub/interview-engine/internal/question"
	"github.com/hirehub/interview-engine/internal/room"
	"github.com/hirehub/interview-engine/internal/schedule"
	"github.com/hirehub/interview-engine/internal/session"
	"github.com/hirehub/interview-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config      config.ServerConfig
	router      *chi.Mux
	engine      *schedule.Engine
	rooms       *room.Manager
	coordinator *session.Coordinator
	questions   *question.Flow
	results     *evaluation.Finalizer
	hub         *session.Hub
	repo        storage.Repository
	redis       *redis.Client
	identity    *IdentityMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	engine *schedule.Engine,
	rooms *room.Manager,
	coordinator *session.Coordinator,
	questions *question.Flow,
	results *evaluation.Finalizer,
	hub *session.Hub,
	repo storage.Repository,
	redisClient *redis.Client,
) *Server {
	s := &Server{
		config:      cfg,
		engine:      engine,
		rooms:       rooms,
		coordinator: coordinator,
		questions:   questions,
		results:     results,
		hub:         hub,
		repo:        repo,
		redis:       redisClient,
		identity:    NewIdentityMiddleware(),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Role"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (identity required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(s.identity.Resolve)

		r.Route("/schedule-requests", func(r chi.Router) {
			r.Post("/", s.handleCreateScheduleRequest)
			r.Get("/code/{code}", s.handleGetScheduleRequestByCode)
			r.Post("/{id}/select", s.handleSelectSlot)
			r.Post("/{id}/cancel", s.handleCancelScheduleRequest)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", s.handleCreateRoom)
			r.Get("/", s.handleListRooms)
			r.Get("/code/{code}", s.handleGetRoomByCode)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Post("/end", s.handleEndRoom)
				r.Post("/cancel", s.handleCancelRoom)
				r.Get("/messages", s.handleListMessages)
				r.Post("/messages", s.handleSendMessage)
				r.Get("/questions", s.handleListQuestions)
				r.Put("/result/draft", s.handleSaveDraftResult)
				r.Post("/result/submit", s.handleSubmitResult)
				r.Get("/result", s.handleGetResult)
			})
		})

		r.Route("/questions", func(r chi.Router) {
			r.Post("/{id}/answer", s.handleAnswerQuestion)
			r.Post("/{id}/evaluate", s.handleEvaluateQuestion)
		})
	})

	// Websocket session channel stays outside the timeout middleware,
	// sessions outlive any sane request deadline
	r.With(s.identity.Resolve).Get("/ws/rooms/{code}", s.handleSessionWS)

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
