// Package storage provides persistence for the memo backend.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
)

// NoteStore handles note persistence
type NoteStore struct {
	db *DB
}

// NewNoteStore creates a new note store
func NewNoteStore(db *DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteColumns = `id, user_id, content, note_type, hashtags, ai_classification,
	image_data, is_favorite, is_archived, created_at, updated_at`

// Create inserts a new note
func (s *NoteStore) Create(note *core.Note) error {
	return insertNote(s.db.conn, note)
}

// CreateWithEvent inserts a note and its linked calendar event atomically.
// Either both rows land or neither does.
func (s *NoteStore) CreateWithEvent(note *core.Note, event *core.CalendarEvent) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		if err := insertNote(tx, note); err != nil {
			return err
		}
		event.NoteID = note.ID
		return insertEvent(tx, event)
	})
}

func insertNote(e execer, note *core.Note) error {
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	hashtags, _ := json.Marshal(note.Hashtags)

	_, err := e.Exec(`
		INSERT INTO notes (
		    id, user_id, content, note_type, hashtags, ai_classification,
		    image_data, is_favorite, is_archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		note.ID, note.UserID, note.Content, note.Type, string(hashtags),
		note.Classification, note.ImageData, note.IsFavorite, note.IsArchived,
		note.CreatedAt, note.UpdatedAt,
	)

	return err
}

// GetByID returns a note by ID
func (s *NoteStore) GetByID(id, userID string) (*core.Note, error) {
	row := s.db.conn.QueryRow(`
		SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?
	`, id, userID)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNoteNotFound
	}
	return note, err
}

// ListStandalone returns notes for a user that have no linked calendar event,
// newest first.
func (s *NoteStore) ListStandalone(userID string, limit int) ([]*core.Note, error) {
	rows, err := s.db.conn.Query(`
		SELECT `+prefixed("n", noteColumns)+`
		FROM notes n
		LEFT JOIN calendar_events e ON e.note_id = n.id
		WHERE n.user_id = ? AND e.id IS NULL
		ORDER BY n.created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// ListRecent returns recent non-archived notes for a user, newest first,
// skipping any tagged with excludeTag.
func (s *NoteStore) ListRecent(userID string, excludeTag string, limit int) ([]*core.Note, error) {
	rows, err := s.db.conn.Query(`
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = ? AND is_archived = 0
		  AND instr(hashtags, '"' || ? || '"') = 0
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, excludeTag, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// Patch applies the supplied optional fields in one parameterized UPDATE and
// returns the updated note.
func (s *NoteStore) Patch(id, userID string, patch core.NotePatch) (*core.Note, error) {
	if patch.IsEmpty() {
		return nil, core.ErrInvalidInput
	}

	var sets []string
	var args []any

	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Hashtags != nil {
		hashtags, _ := json.Marshal(*patch.Hashtags)
		sets = append(sets, "hashtags = ?")
		args = append(args, string(hashtags))
	}
	if patch.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, *patch.IsFavorite)
	}
	if patch.IsArchived != nil {
		sets = append(sets, "is_archived = ?")
		args = append(args, *patch.IsArchived)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, userID)

	res, err := s.db.conn.Exec(
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrNoteNotFound
	}

	return s.GetByID(id, userID)
}

// Delete removes a note and any calendar event linked to it, atomically.
func (s *NoteStore) Delete(id, userID string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM calendar_events WHERE note_id = ?`, id); err != nil {
			return fmt.Errorf("delete linked events: %w", err)
		}

		res, err := tx.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNoteNotFound
		}
		return nil
	})
}

// Count returns total note count for a user
func (s *NoteStore) Count(userID string) (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM notes WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// scanner captures the Scan shared by sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (*core.Note, error) {
	note := &core.Note{}
	var hashtags string
	var classification, imageData sql.NullString

	err := sc.Scan(
		&note.ID, &note.UserID, &note.Content, &note.Type, &hashtags,
		&classification, &imageData, &note.IsFavorite, &note.IsArchived,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Classification = classification.String
	note.ImageData = imageData.String
	json.Unmarshal([]byte(hashtags), &note.Hashtags)

	return note, nil
}

func scanNotes(rows *sql.Rows) ([]*core.Note, error) {
	var notes []*core.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// prefixed qualifies each column in a comma-separated list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
