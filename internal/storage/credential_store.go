package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
)

// CredentialStore handles password vault persistence. Rows only ever hold
// ciphertext; encryption happens in the vault service before the store is
// touched.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a new credential store
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

const credentialColumns = `id, user_id, title, username, email,
	password_encrypted, url, notes, category, icon, is_favorite,
	created_at, updated_at`

// Create inserts a new vault entry
func (s *CredentialStore) Create(c *core.Credential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Category == "" {
		c.Category = "general"
	}
	if c.Icon == "" {
		c.Icon = "🔐"
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO password_vault (
		    id, user_id, title, username, email, password_encrypted,
		    url, notes, category, icon, is_favorite, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.UserID, c.Title, c.Username, c.Email, c.EncryptedPassword,
		c.URL, c.Notes, c.Category, c.Icon, c.IsFavorite, c.CreatedAt, c.UpdatedAt,
	)

	return err
}

// List returns vault entries, favorites first then newest. Category filters
// when non-empty.
func (s *CredentialStore) List(userID, category string) ([]*core.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM password_vault WHERE user_id = ?`
	args := []any{userID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY is_favorite DESC, created_at DESC`

	rows, err := s.db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*core.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetByID returns a single vault entry by ID
func (s *CredentialStore) GetByID(id, userID string) (*core.Credential, error) {
	row := s.db.conn.QueryRow(`
		SELECT `+credentialColumns+` FROM password_vault WHERE id = ? AND user_id = ?
	`, id, userID)

	c, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrCredentialNotFound
	}
	return c, err
}

// Patch applies the supplied optional fields. A Password in the patch must
// already be encrypted by the caller.
func (s *CredentialStore) Patch(id, userID string, patch core.CredentialPatch) (*core.Credential, error) {
	if patch.IsEmpty() {
		return nil, core.ErrInvalidInput
	}

	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *patch.Username)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Password != nil {
		sets = append(sets, "password_encrypted = ?")
		args = append(args, *patch.Password)
	}
	if patch.URL != nil {
		sets = append(sets, "url = ?")
		args = append(args, *patch.URL)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *patch.Icon)
	}
	if patch.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, *patch.IsFavorite)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id, userID)

	res, err := s.db.conn.Exec(
		"UPDATE password_vault SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrCredentialNotFound
	}

	return s.GetByID(id, userID)
}

// Delete removes a vault entry
func (s *CredentialStore) Delete(id, userID string) error {
	res, err := s.db.conn.Exec(`DELETE FROM password_vault WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrCredentialNotFound
	}
	return nil
}

func scanCredential(sc scanner) (*core.Credential, error) {
	c := &core.Credential{}
	var username, email, url, notes sql.NullString

	err := sc.Scan(
		&c.ID, &c.UserID, &c.Title, &username, &email,
		&c.EncryptedPassword, &url, &notes, &c.Category, &c.Icon,
		&c.IsFavorite, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Username = username.String
	c.Email = email.String
	c.URL = url.String
	c.Notes = notes.String

	return c, nil
}
