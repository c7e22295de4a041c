package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askfredo/memo-backend/internal/core"
)

type createNotificationRequest struct {
	UserID            string `json:"userId"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	Type              string `json:"type"`
	RelatedEntityType string `json:"relatedEntityType"`
	RelatedEntityID   string `json:"relatedEntityId"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	notification := &core.Notification{
		ID:                uuid.NewString(),
		UserID:            userID(req.UserID),
		Title:             req.Title,
		Message:           req.Message,
		Type:              core.NotificationType(req.Type),
		RelatedEntityType: req.RelatedEntityType,
		RelatedEntityID:   req.RelatedEntityID,
	}
	if err := s.notifications.Create(notification); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.Broadcast("notification.created", notification)
	s.respondJSON(w, http.StatusCreated, notification)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))
	unreadOnly := r.URL.Query().Get("unread") == "true"

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	list, err := s.notifications.List(owner, unreadOnly, limit)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if list == nil {
		list = []*core.Notification{}
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	count, err := s.notifications.UnreadCount(owner)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if err := s.notifications.MarkRead(chi.URLParam(r, "notificationID"), owner); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	count, err := s.notifications.MarkAllRead(owner)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"updated": count})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if err := s.notifications.Delete(chi.URLParam(r, "notificationID"), owner); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
