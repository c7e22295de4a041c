// Package api provides the HTTP API server for the memo backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/askfredo/memo-backend/internal/assistant"
	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/logging"
	"github.com/askfredo/memo-backend/internal/storage"
	"github.com/askfredo/memo-backend/internal/vault"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	wsHub      *WebSocketHub
	log        *logging.Logger

	// Pipeline
	router2    *assistant.Router
	classifier *assistant.Classifier

	// Stores
	notes         *storage.NoteStore
	events        *storage.EventStore
	notifications *storage.NotificationStore
	credentials   *storage.CredentialStore

	vault *vault.Vault
}

// Config for the server
type Config struct {
	Host string
	Port int

	Assistant  *assistant.Router
	Classifier *assistant.Classifier

	Notes         *storage.NoteStore
	Events        *storage.EventStore
	Notifications *storage.NotificationStore
	Credentials   *storage.CredentialStore

	Vault *vault.Vault
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		wsHub:         NewWebSocketHub(),
		log:           logging.WithField("component", "api"),
		router2:       cfg.Assistant,
		classifier:    cfg.Classifier,
		notes:         cfg.Notes,
		events:        cfg.Events,
		notifications: cfg.Notifications,
		credentials:   cfg.Credentials,
		vault:         cfg.Vault,
	}

	s.setupRouter()
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.router,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Notes
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleCreateNote)
		r.Get("/notes/{noteID}", s.handleGetNote)
		r.Patch("/notes/{noteID}", s.handlePatchNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)

		// Calendar
		r.Get("/calendar/events", s.handleListEvents)
		r.Patch("/calendar/events/{eventID}", s.handlePatchEvent)
		r.Delete("/calendar/events/{eventID}", s.handleDeleteEvent)

		// Assistant
		r.Post("/assistant/process", s.handleAssistantProcess)
		r.Post("/ai/chat", s.handleChat)
		r.Post("/ai/save-conversation", s.handleSaveConversation)

		// Vault
		r.Get("/vault/passwords", s.handleListCredentials)
		r.Post("/vault/passwords", s.handleCreateCredential)
		r.Get("/vault/passwords/{credentialID}", s.handleGetCredential)
		r.Put("/vault/passwords/{credentialID}", s.handleUpdateCredential)
		r.Delete("/vault/passwords/{credentialID}", s.handleDeleteCredential)

		// Notifications
		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications", s.handleCreateNotification)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Post("/notifications/read-all", s.handleMarkAllRead)
		r.Post("/notifications/{notificationID}/read", s.handleMarkRead)
		r.Delete("/notifications/{notificationID}", s.handleDeleteNotification)

		// Health
		r.Get("/health", s.handleHealth)
	})

	// Realtime updates
	r.Get("/ws", s.handleWebSocket)

	s.router = r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.log.Info("API server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Request helpers ---

// userID resolves the acting user; a fixed placeholder stands in until the
// backend grows real auth.
func userID(body string) string {
	if body != "" {
		return body
	}
	return core.DefaultUserID
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps storage sentinels to HTTP statuses; anything else
// is logged in detail and reported coarsely.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNoteNotFound),
		errors.Is(err, core.ErrEventNotFound),
		errors.Is(err, core.ErrNotificationNotFound),
		errors.Is(err, core.ErrCredentialNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrMissingRequired):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
