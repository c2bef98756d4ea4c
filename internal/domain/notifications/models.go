package notifications

import (
	"errors"
	"time"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidNotification  = errors.New("type, titleAr and messageAr are required")
	ErrInvalidSnooze        = errors.New("snooze time must be in the future")
)

// Notification with an empty UserID is a broadcast to every staff user.
type Notification struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId,omitempty"`
	Type         string     `json:"type"`
	TitleAr      string     `json:"titleAr"`
	TitleEn      string     `json:"titleEn,omitempty"`
	MessageAr    string     `json:"messageAr"`
	MessageEn    string     `json:"messageEn,omitempty"`
	Read         bool       `json:"read"`
	RelatedID    string     `json:"relatedId,omitempty"`
	RelatedType  string     `json:"relatedType,omitempty"`
	SnoozedUntil *time.Time `json:"snoozedUntil,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
