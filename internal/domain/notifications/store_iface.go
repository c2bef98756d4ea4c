package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, n Notification) error
	UserEmail(ctx context.Context, userID string) (string, error)
	// ListNotifications returns the user's own and broadcast rows that are
	// not snoozed past now, newest first.
	ListNotifications(ctx context.Context, userID string, now time.Time, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string, now time.Time) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Snooze(ctx context.Context, userID, id string, until time.Time) error
	DeleteNotification(ctx context.Context, userID, id string) error
}
