package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askfredo/memo-backend/internal/assistant"
	"github.com/askfredo/memo-backend/internal/core"
)

type processRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []assistant.Turn `json:"conversationHistory"`
	UserID              string           `json:"userId"`
	UseNativeVoice      bool             `json:"useNativeVoice"`
	EnrichedContext     string           `json:"enrichedContext"`
}

// handleAssistantProcess is the single assistant entrypoint: routes the
// message to save/converse/create and returns the typed result.
func (s *Server) handleAssistantProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.router2.Process(r.Context(), assistant.Request{
		Message:        req.Message,
		History:        req.ConversationHistory,
		UserID:         userID(req.UserID),
		WantAudio:      req.UseNativeVoice,
		SessionContext: req.EnrichedContext,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, "message is required")
			return
		}
		s.respondStoreError(w, err)
		return
	}

	switch result.Type {
	case assistant.ResultNoteCreated, assistant.ResultConversationSaved:
		s.Broadcast("note.created", result.Note)
	case assistant.ResultEventCreated:
		s.Broadcast("note.created", result.Note)
		s.Broadcast("event.created", result.Event)
		if result.Notification != nil {
			s.Broadcast("notification.created", result.Notification)
		}
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleChat is the conversational endpoint without routing; it always
// answers as a question with personal context.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.router2.Converse(r.Context(), assistant.Request{
		Message:   req.Message,
		History:   req.ConversationHistory,
		UserID:    userID(req.UserID),
		WantAudio: req.UseNativeVoice,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type saveConversationRequest struct {
	ConversationHistory []assistant.Turn `json:"conversationHistory"`
	UserID              string           `json:"userId"`
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req saveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.ConversationHistory) == 0 {
		s.respondError(w, http.StatusBadRequest, "conversationHistory is required")
		return
	}

	result, err := s.router2.SaveConversation(userID(req.UserID), req.ConversationHistory)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, "no recent conversation to save")
			return
		}
		s.respondStoreError(w, err)
		return
	}

	s.Broadcast("note.created", result.Note)
	s.respondJSON(w, http.StatusOK, result)
}
