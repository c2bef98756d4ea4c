package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agencyops/internal/platform/db"
)

func (s *Store) CreateNotification(ctx context.Context, n Notification) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO notifications (id, user_id, type, title_ar, title_en, message_ar, message_en, read, related_id, related_type, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, n.ID, db.NullString(n.UserID), n.Type, n.TitleAr, db.NullString(n.TitleEn), n.MessageAr, db.NullString(n.MessageEn),
		n.Read, db.NullString(n.RelatedID), db.NullString(n.RelatedType), n.CreatedAt)
	return err
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	if err := s.q.QueryRow(ctx, "SELECT email FROM users WHERE id = $1 AND is_active", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.TitleAr, &n.TitleEn, &n.MessageAr, &n.MessageEn, &n.Read,
		&n.RelatedID, &n.RelatedType, &n.SnoozedUntil, &n.CreatedAt)
	return n, err
}

func (s *Store) ListNotifications(ctx context.Context, userID string, now time.Time, limit, offset int) ([]Notification, error) {
	rows, err := s.q.Query(ctx, `
    SELECT id, COALESCE(user_id, ''), type, title_ar, COALESCE(title_en, ''), message_ar, COALESCE(message_en, ''),
           read, COALESCE(related_id, ''), COALESCE(related_type, ''), snoozed_until, created_at
    FROM notifications
    WHERE (user_id = $1 OR user_id IS NULL)
      AND (snoozed_until IS NULL OR snoozed_until <= $2)
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, userID, now, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	var total int
	if err := s.q.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE (user_id = $1 OR user_id IS NULL)
      AND NOT read
      AND (snoozed_until IS NULL OR snoozed_until <= $2)
  `, userID, now).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id string) error {
	return affectedOne(s.q.Exec(ctx, `
    UPDATE notifications SET read = true
    WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
  `, id, userID))
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE notifications SET read = true
    WHERE NOT read AND (user_id = $1 OR user_id IS NULL)
  `, userID)
	return err
}

func (s *Store) Snooze(ctx context.Context, userID, id string, until time.Time) error {
	return affectedOne(s.q.Exec(ctx, `
    UPDATE notifications SET snoozed_until = $3
    WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
  `, id, userID, until))
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id string) error {
	return affectedOne(s.q.Exec(ctx, `
    DELETE FROM notifications
    WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
  `, id, userID))
}
