package sqlite

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification appends a notification to the log.
func (d *DB) InsertNotification(n domain.Notification) (int64, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	result, err := d.db.Exec(
		`INSERT INTO notifications (type, title, body, value, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(n.Type), n.Title, n.Body, n.Value, n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NotificationCountSince returns how many notifications were logged at or after t.
func (d *DB) NotificationCountSince(t time.Time) (int, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE created_at >= ?`, t.Unix(),
	).Scan(&count)
	return count, err
}

// ListNotifications returns the newest notifications first. With
// pendingOnly, shown notifications are skipped.
func (d *DB) ListNotifications(limit int, pendingOnly bool) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, type, title, body, value, created_at, shown FROM notifications`
	if pendingOnly {
		q += ` WHERE shown = 0`
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := d.db.Query(q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks a notification as shown.
func (d *DB) MarkNotificationShown(id int64) error {
	_, err := d.db.Exec(`UPDATE notifications SET shown = 1 WHERE id = ?`, id)
	return err
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var createdAt int64
	err := s.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.Value, &createdAt, &n.Shown)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(createdAt, 0)
	return &n, nil
}

// NotificationLog is a domain.Notifier that appends to the notification
// table. Write failures are logged, never returned to the engine.
type NotificationLog struct {
	db  *DB
	log *zap.Logger
}

// NewNotificationLog creates a notifier backed by db.
func NewNotificationLog(db *DB, log *zap.Logger) *NotificationLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationLog{db: db, log: log}
}

// Notify records n.
func (l *NotificationLog) Notify(n domain.Notification) {
	if _, err := l.db.InsertNotification(n); err != nil {
		l.log.Warn("store notification", zap.String("type", string(n.Type)), zap.Error(err))
	}
}
