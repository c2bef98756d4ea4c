package notifications

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencyops/internal/platform/email"
	"agencyops/internal/platform/jobs"
)

type Service struct {
	store       StoreAPI
	Mailer      email.Mailer
	Jobs        jobs.Enqueuer
	DefaultFrom string
	now         func() time.Time
	newID       func() string
}

// New returns a service that mails targeted notifications when mailer is
// non-nil. Mail goes through queue so it never holds up the caller.
func New(store StoreAPI, mailer email.Mailer, queue jobs.Enqueuer, from string) *Service {
	if queue == nil {
		queue = jobs.Inline{}
	}
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, Jobs: queue, DefaultFrom: from, now: time.Now, newID: uuid.NewString}
}

func (s *Service) Create(ctx context.Context, n Notification) (Notification, error) {
	n.Type = strings.TrimSpace(n.Type)
	n.TitleAr = strings.TrimSpace(n.TitleAr)
	n.MessageAr = strings.TrimSpace(n.MessageAr)
	if n.Type == "" || n.TitleAr == "" || n.MessageAr == "" {
		return Notification{}, ErrInvalidNotification
	}
	n.ID = s.newID()
	n.Read = false
	n.SnoozedUntil = nil
	n.CreatedAt = s.now()
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return Notification{}, err
	}
	s.mail(n)
	return n, nil
}

func (s *Service) mail(n Notification) {
	if s.Mailer == nil || n.UserID == "" {
		return
	}
	s.Jobs.Enqueue(jobs.JobNotificationEmail, func(ctx context.Context) error {
		to, err := s.store.UserEmail(ctx, n.UserID)
		if err != nil {
			slog.Warn("notification email lookup failed", "err", err, "userId", n.UserID)
			return nil
		}
		if to == "" {
			return nil
		}
		subject := n.TitleEn
		if subject == "" {
			subject = n.TitleAr
		}
		body := n.MessageEn
		if body == "" {
			body = n.MessageAr
		}
		return s.Mailer.Send(ctx, s.DefaultFrom, to, subject, body)
	})
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, s.now(), limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID, s.now())
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) Snooze(ctx context.Context, userID, id string, until time.Time) error {
	if !until.After(s.now()) {
		return ErrInvalidSnooze
	}
	return s.store.Snooze(ctx, userID, id, until)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteNotification(ctx, userID, id)
}
