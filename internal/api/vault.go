package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askfredo/memo-backend/internal/core"
)

type createCredentialRequest struct {
	UserID   string `json:"userId"`
	Title    string `json:"title"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	if s.vault == nil {
		s.respondError(w, http.StatusServiceUnavailable, "vault is not configured")
		return
	}

	var req createCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "title and password are required")
		return
	}

	ciphertext, err := s.vault.Encrypt(req.Password)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	cred := &core.Credential{
		ID:                uuid.NewString(),
		UserID:            userID(req.UserID),
		Title:             req.Title,
		Username:          req.Username,
		Email:             req.Email,
		EncryptedPassword: ciphertext,
		URL:               req.URL,
		Notes:             req.Notes,
		Category:          req.Category,
		Icon:              req.Icon,
	}
	if err := s.credentials.Create(cred); err != nil {
		s.respondStoreError(w, err)
		return
	}

	// The ciphertext never leaves the server; the plaintext only on
	// explicit single-record fetch.
	s.respondJSON(w, http.StatusCreated, cred)
}

// handleListCredentials returns vault entries without password material.
func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))
	category := r.URL.Query().Get("category")

	creds, err := s.credentials.List(owner, category)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if creds == nil {
		creds = []*core.Credential{}
	}
	s.respondJSON(w, http.StatusOK, creds)
}

// handleGetCredential returns one entry with the password decrypted.
func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	if s.vault == nil {
		s.respondError(w, http.StatusServiceUnavailable, "vault is not configured")
		return
	}
	owner := userID(r.URL.Query().Get("userId"))

	cred, err := s.credentials.GetByID(chi.URLParam(r, "credentialID"), owner)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	plaintext, err := s.vault.Decrypt(cred.EncryptedPassword)
	if err != nil {
		s.log.Error("decrypt credential %s: %v", cred.ID, err)
		s.respondError(w, http.StatusInternalServerError, "decryption failed")
		return
	}
	cred.Password = plaintext

	s.respondJSON(w, http.StatusOK, cred)
}

type updateCredentialRequest struct {
	UserID     string  `json:"userId"`
	Title      *string `json:"title"`
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	URL        *string `json:"url"`
	Notes      *string `json:"notes"`
	Category   *string `json:"category"`
	Icon       *string `json:"icon"`
	IsFavorite *bool   `json:"isFavorite"`
}

func (s *Server) handleUpdateCredential(w http.ResponseWriter, r *http.Request) {
	if s.vault == nil {
		s.respondError(w, http.StatusServiceUnavailable, "vault is not configured")
		return
	}

	var req updateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	patch := core.CredentialPatch{
		Title:      req.Title,
		Username:   req.Username,
		Email:      req.Email,
		URL:        req.URL,
		Notes:      req.Notes,
		Category:   req.Category,
		Icon:       req.Icon,
		IsFavorite: req.IsFavorite,
	}
	if req.Password != nil {
		ciphertext, err := s.vault.Encrypt(*req.Password)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		patch.Password = &ciphertext
	}

	cred, err := s.credentials.Patch(chi.URLParam(r, "credentialID"), userID(req.UserID), patch)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cred)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	owner := userID(r.URL.Query().Get("userId"))

	if err := s.credentials.Delete(chi.URLParam(r, "credentialID"), owner); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
