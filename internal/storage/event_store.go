// Package storage provides persistence for the memo backend.
package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
)

// EventStore handles calendar event persistence
type EventStore struct {
	db *DB
}

// NewEventStore creates a new event store
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, user_id, note_id, title, description, start_datetime,
	location, color, is_social, created_at`

// Create inserts a new calendar event
func (s *EventStore) Create(event *core.CalendarEvent) error {
	return insertEvent(s.db.conn, event)
}

func insertEvent(e execer, event *core.CalendarEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Color == "" {
		event.Color = "blue"
	}

	var noteID any
	if event.NoteID != "" {
		noteID = event.NoteID
	}

	_, err := e.Exec(`
		INSERT INTO calendar_events (
		    id, user_id, note_id, title, description, start_datetime,
		    location, color, is_social, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID, event.UserID, noteID, event.Title, event.Description,
		event.StartDatetime, event.Location, event.Color, event.IsSocial,
		event.CreatedAt,
	)

	return err
}

// GetByID returns an event by ID
func (s *EventStore) GetByID(id, userID string) (*core.CalendarEvent, error) {
	row := s.db.conn.QueryRow(`
		SELECT `+eventColumns+` FROM calendar_events WHERE id = ? AND user_id = ?
	`, id, userID)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrEventNotFound
	}
	return event, err
}

// ListUpcoming returns events starting within [from, to), ascending.
func (s *EventStore) ListUpcoming(userID string, from, to time.Time, limit int) ([]*core.CalendarEvent, error) {
	rows, err := s.db.conn.Query(`
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = ? AND start_datetime >= ? AND start_datetime < ?
		ORDER BY start_datetime ASC
		LIMIT ?
	`, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListAll returns every event for a user, ascending by start time.
func (s *EventStore) ListAll(userID string, limit int) ([]*core.CalendarEvent, error) {
	rows, err := s.db.conn.Query(`
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = ?
		ORDER BY start_datetime ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Patch applies the supplied optional fields and returns the updated event.
func (s *EventStore) Patch(id, userID string, patch core.EventPatch) (*core.CalendarEvent, error) {
	if patch.IsEmpty() {
		return nil, core.ErrInvalidInput
	}

	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.StartDatetime != nil {
		sets = append(sets, "start_datetime = ?")
		args = append(args, *patch.StartDatetime)
	}
	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *patch.Location)
	}

	args = append(args, id, userID)

	res, err := s.db.conn.Exec(
		"UPDATE calendar_events SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrEventNotFound
	}

	return s.GetByID(id, userID)
}

// Delete removes an event
func (s *EventStore) Delete(id, userID string) error {
	res, err := s.db.conn.Exec(`DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrEventNotFound
	}
	return nil
}

// GetByNote returns the event linked to a note, if any.
func (s *EventStore) GetByNote(noteID string) (*core.CalendarEvent, error) {
	row := s.db.conn.QueryRow(`
		SELECT `+eventColumns+` FROM calendar_events WHERE note_id = ?
	`, noteID)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrEventNotFound
	}
	return event, err
}

func scanEvent(sc scanner) (*core.CalendarEvent, error) {
	event := &core.CalendarEvent{}
	var noteID, description, location sql.NullString

	err := sc.Scan(
		&event.ID, &event.UserID, &noteID, &event.Title, &description,
		&event.StartDatetime, &location, &event.Color, &event.IsSocial,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.NoteID = noteID.String
	event.Description = description.String
	event.Location = location.String

	return event, nil
}

func scanEvents(rows *sql.Rows) ([]*core.CalendarEvent, error) {
	var events []*core.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
