// Package core defines the fundamental types for the memo backend.
package core

import (
	"time"
)

// DefaultUserID is the placeholder owner used when a request carries no user.
// The backend is single-tenant for now; auth is out of scope.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// -----------------------------------------------------------------------------
// NOTE - The central persisted artifact
// -----------------------------------------------------------------------------

// NoteType mirrors the classified intent of the input that created the note.
type NoteType string

const (
	NoteSimple    NoteType = "simple_note"
	NoteReminder  NoteType = "reminder"
	NoteEvent     NoteType = "calendar_event"
	NoteChecklist NoteType = "checklist_note"
)

// Note is a persisted piece of user content. Every action-classified input
// produces one; calendar events hold a back-reference to theirs.
type Note struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"` // final text, reformatted for checklists
	Type           NoteType  `json:"note_type"`
	Hashtags       []string  `json:"hashtags"`
	Classification string    `json:"ai_classification,omitempty"` // serialized Classification
	ImageData      string    `json:"image_data,omitempty"`        // optional base64 payload
	IsFavorite     bool      `json:"is_favorite"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NotePatch carries optional field updates for a note. Only non-nil fields
// are written; the rest of the row is untouched.
type NotePatch struct {
	Content    *string
	Hashtags   *[]string
	IsFavorite *bool
	IsArchived *bool
}

// IsEmpty reports whether the patch would touch nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Content == nil && p.Hashtags == nil && p.IsFavorite == nil && p.IsArchived == nil
}

// -----------------------------------------------------------------------------
// CALENDAR EVENT
// -----------------------------------------------------------------------------

// CalendarEvent is created atomically alongside its note whenever
// classification yields a date. Deleting the note deletes the event.
type CalendarEvent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	NoteID        string    `json:"note_id,omitempty"`
	Title         string    `json:"title"`       // display title: emoji + suggested title
	Description   string    `json:"description"` // classification summary
	StartDatetime time.Time `json:"start_datetime"`
	Location      string    `json:"location,omitempty"`
	Color         string    `json:"color"`
	IsSocial      bool      `json:"is_social"` // participants were detected
	CreatedAt     time.Time `json:"created_at"`
}

// EventPatch carries optional field updates for a calendar event.
type EventPatch struct {
	Title         *string
	StartDatetime *time.Time
	Location      *string
}

// IsEmpty reports whether the patch would touch nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.StartDatetime == nil && p.Location == nil
}

// -----------------------------------------------------------------------------
// NOTIFICATION
// -----------------------------------------------------------------------------

// NotificationType classifies a notification for the UI.
type NotificationType string

const (
	NotifyInfo     NotificationType = "info"
	NotifyReminder NotificationType = "reminder"
	NotifyAlert    NotificationType = "alert"
)

// Notification is an in-app message for the user, optionally linked to the
// entity that produced it.
type Notification struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	Type              NotificationType `json:"type"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"` // "note" | "calendar_event"
	RelatedEntityID   string           `json:"related_entity_id,omitempty"`
	IsRead            bool             `json:"is_read"`
	CreatedAt         time.Time        `json:"created_at"`
}

// -----------------------------------------------------------------------------
// CREDENTIAL - Password vault row
// -----------------------------------------------------------------------------

// Credential is a vault entry. Password material is stored encrypted and
// only decrypted when a single record is fetched explicitly.
type Credential struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Title             string    `json:"title"`
	Username          string    `json:"username,omitempty"`
	Email             string    `json:"email,omitempty"`
	EncryptedPassword string    `json:"-"`
	Password          string    `json:"password,omitempty"` // set only on explicit single-record fetch
	URL               string    `json:"url,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Category          string    `json:"category"`
	Icon              string    `json:"icon"`
	IsFavorite        bool      `json:"is_favorite"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CredentialPatch carries optional field updates for a vault entry.
// Password, when set, is re-encrypted before it touches the row.
type CredentialPatch struct {
	Title      *string
	Username   *string
	Email      *string
	Password   *string
	URL        *string
	Notes      *string
	Category   *string
	Icon       *string
	IsFavorite *bool
}

// IsEmpty reports whether the patch would touch nothing.
func (p CredentialPatch) IsEmpty() bool {
	return p.Title == nil && p.Username == nil && p.Email == nil && p.Password == nil &&
		p.URL == nil && p.Notes == nil && p.Category == nil && p.Icon == nil && p.IsFavorite == nil
}
