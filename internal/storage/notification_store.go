package storage

import (
	"database/sql"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
)

// NotificationStore handles in-app notification persistence
type NotificationStore struct {
	db *DB
}

// NewNotificationStore creates a new notification store
func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationColumns = `id, user_id, title, message, type,
	related_entity_type, related_entity_id, is_read, created_at`

// Create inserts a new notification
func (s *NotificationStore) Create(n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Type == "" {
		n.Type = core.NotifyInfo
	}

	var entityType, entityID any
	if n.RelatedEntityType != "" {
		entityType = n.RelatedEntityType
		entityID = n.RelatedEntityID
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO notifications (
		    id, user_id, title, message, type,
		    related_entity_type, related_entity_id, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.UserID, n.Title, n.Message, n.Type,
		entityType, entityID, n.IsRead, n.CreatedAt,
	)

	return err
}

// List returns notifications newest first, optionally only unread ones.
func (s *NotificationStore) List(userID string, unreadOnly bool, limit int) ([]*core.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.conn.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead marks a single notification as read.
func (s *NotificationStore) MarkRead(id, userID string) error {
	res, err := s.db.conn.Exec(`
		UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification as read and returns the count.
func (s *NotificationStore) MarkAllRead(userID string) (int64, error) {
	res, err := s.db.conn.Exec(`
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0
	`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a notification
func (s *NotificationStore) Delete(id, userID string) error {
	res, err := s.db.conn.Exec(`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotificationNotFound
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount(userID string) (int, error) {
	var count int
	err := s.db.conn.QueryRow(`
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0
	`, userID).Scan(&count)
	return count, err
}

func scanNotification(sc scanner) (*core.Notification, error) {
	n := &core.Notification{}
	var entityType, entityID sql.NullString

	err := sc.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
		&entityType, &entityID, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.RelatedEntityType = entityType.String
	n.RelatedEntityID = entityID.String

	return n, nil
}
