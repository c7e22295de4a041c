package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askfredo/memo-backend/internal/assistant"
	"github.com/askfredo/memo-backend/internal/core"
)

type createNoteRequest struct {
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	ImageData string `json:"imageData"`
}

type createNoteResponse struct {
	Note           *core.Note                `json:"note"`
	Classification *assistant.Classification `json:"classification"`
	Event          *core.CalendarEvent       `json:"event,omitempty"`
}

// handleCreateNote classifies the content and persists a note, plus a
// linked calendar event when classification yields a date.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	owner := userID(req.UserID)

	now := time.Now()
	classification := s.classifier.Classify(r.Context(), req.Content, now)

	content := req.Content
	if classification.ReformattedContent != "" {
		content = classification.ReformattedContent
	}

	serialized, _ := json.Marshal(classification)
	note := &core.Note{
		ID:             uuid.NewString(),
		UserID:         owner,
		Content:        content,
		Type:           classification.Intent,
		Hashtags:       classification.Entities.Hashtags,
		Classification: string(serialized),
		ImageData:      req.ImageData,
	}

	resp := createNoteResponse{Note: note, Classification: &classification}

	if classification.HasDate() {
		if start, err := classification.StartDatetime(); err == nil {
			event := &core.CalendarEvent{
				ID:            uuid.NewString(),
				UserID:        owner,
				Title:         classification.Emoji + " " + classification.SuggestedTitle,
				Description:   classification.Summary,
				StartDatetime: start,
				Location:      classification.Entities.Location,
				IsSocial:      len(classification.Entities.Participants) > 0,
			}
			if err := s.notes.CreateWithEvent(note, event); err != nil {
				s.respondStoreError(w, err)
				return
			}
			resp.Event = event
			s.Broadcast("note.created", note)
			s.Broadcast("event.created", event)
			s.respondJSON(w, http.StatusCreated, resp)
			return
		}
		note.Type = core.NoteSimple
	}

	if err := s.notes.Create(note); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.Broadcast("note.created", note)
	s.respondJSON(w, http.StatusCreated, resp)
}

// handleListNotes returns notes that are not backed by a calendar event.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	notes, err := s.notes.ListStandalone(owner, 200)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if notes == nil {
		notes = []*core.Note{}
	}
	s.respondJSON(w, http.StatusOK, notes)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	note, err := s.notes.GetByID(chi.URLParam(r, "noteID"), owner)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, note)
}

type patchNoteRequest struct {
	UserID     string    `json:"userId"`
	Content    *string   `json:"content"`
	Hashtags   *[]string `json:"hashtags"`
	IsFavorite *bool     `json:"isFavorite"`
	IsArchived *bool     `json:"isArchived"`
}

func (s *Server) handlePatchNote(w http.ResponseWriter, r *http.Request) {
	var req patchNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	note, err := s.notes.Patch(chi.URLParam(r, "noteID"), userID(req.UserID), core.NotePatch{
		Content:    req.Content,
		Hashtags:   req.Hashtags,
		IsFavorite: req.IsFavorite,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, note)
}

// handleDeleteNote removes a note and, in the same transaction, any linked
// calendar event.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if err := s.notes.Delete(chi.URLParam(r, "noteID"), owner); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
