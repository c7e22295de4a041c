package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/askfredo/memo-backend/internal/core"
)

// handleListEvents returns upcoming events. Optional from/to query params
// (RFC 3339) override the default 30-day window; all=true returns every
// event regardless of date.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if r.URL.Query().Get("all") == "true" {
		events, err := s.events.ListAll(owner, 200)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		if events == nil {
			events = []*core.CalendarEvent{}
		}
		s.respondJSON(w, http.StatusOK, events)
		return
	}

	from := time.Now()
	to := from.AddDate(0, 0, 30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = parsed
	}

	events, err := s.events.ListUpcoming(owner, from, to, 200)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if events == nil {
		events = []*core.CalendarEvent{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

type patchEventRequest struct {
	UserID        string     `json:"userId"`
	Title         *string    `json:"title"`
	StartDatetime *time.Time `json:"startDatetime"`
	Location      *string    `json:"location"`
}

func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	var req patchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := s.events.Patch(chi.URLParam(r, "eventID"), userID(req.UserID), core.EventPatch{
		Title:         req.Title,
		StartDatetime: req.StartDatetime,
		Location:      req.Location,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if err := s.events.Delete(chi.URLParam(r, "eventID"), owner); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
