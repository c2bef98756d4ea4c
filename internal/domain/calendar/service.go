package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencyops/internal/domain/notifications"
)

var (
	eventTypes = map[string]bool{
		TypeManual: true, TypePackageEnd: true, TypeDeliveryDue: true,
		TypePayroll: true, TypeClientPayment: true, TypeTask: true,
	}
	eventStatuses = map[string]bool{StatusUpcoming: true, StatusToday: true, StatusOverdue: true, StatusDone: true}
	priorities    = map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true}
)

// Notifier receives the task_assigned notification for new task events.
type Notifier interface {
	Create(ctx context.Context, n notifications.Notification) (notifications.Notification, error)
}

type Service struct {
	Store    StoreAPI
	Notifier Notifier
	now      func() time.Time
	newID    func() string
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{Store: store, Notifier: notifier, now: time.Now, newID: uuid.NewString}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Event, error) {
	return s.Store.ListEvents(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	return s.Store.GetEvent(ctx, id)
}

func normalize(e *Event) error {
	e.TitleAr = strings.TrimSpace(e.TitleAr)
	e.TitleEn = strings.TrimSpace(e.TitleEn)
	if e.TitleAr == "" {
		return ErrTitleRequired
	}
	if e.Source == "" {
		e.Source = SourceManual
	}
	if e.EventType == "" {
		e.EventType = TypeManual
	}
	if e.Status == "" {
		e.Status = StatusUpcoming
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	if !eventTypes[e.EventType] {
		return fmt.Errorf("%w: eventType %q", ErrInvalidEvent, e.EventType)
	}
	if !eventStatuses[e.Status] {
		return fmt.Errorf("%w: status %q", ErrInvalidEvent, e.Status)
	}
	if !priorities[e.Priority] {
		return fmt.Errorf("%w: priority %q", ErrInvalidEvent, e.Priority)
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidEvent)
	}
	if e.Time != "" {
		if _, err := time.Parse("15:04", e.Time); err != nil {
			return fmt.Errorf("%w: time must be HH:MM", ErrInvalidEvent)
		}
	}
	return nil
}

// Create stores the event. A task with an assignee also notifies that
// employee; a failed notification is logged and does not fail the call.
func (s *Service) Create(ctx context.Context, e Event) (Event, error) {
	if err := normalize(&e); err != nil {
		return Event{}, err
	}
	now := s.now()
	e.ID = s.newID()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.Store.CreateEvent(ctx, e); err != nil {
		return Event{}, err
	}
	if e.EventType == TypeTask && e.EmployeeID != "" {
		s.notifyAssignee(ctx, e)
	}
	return e, nil
}

func (s *Service) notifyAssignee(ctx context.Context, e Event) {
	if s.Notifier == nil {
		return
	}
	title := e.TitleEn
	if title == "" {
		title = e.TitleAr
	}
	_, err := s.Notifier.Create(ctx, notifications.Notification{
		UserID:      e.EmployeeID,
		Type:        notifications.TypeTaskAssigned,
		TitleAr:     "مهمة جديدة",
		TitleEn:     "New Task Assigned",
		MessageAr:   "تم تكليفك بمهمة جديدة: " + e.TitleAr,
		MessageEn:   "You have been assigned a new task: " + title,
		RelatedID:   e.ID,
		RelatedType: notifications.RelatedCalendarEvent,
	})
	if err != nil {
		slog.Error("task notification failed", "err", err, "eventId", e.ID, "employeeId", e.EmployeeID)
	}
}

func (s *Service) Update(ctx context.Context, id string, apply func(*Event) error) (Event, error) {
	current, err := s.Store.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	next := current
	if err := apply(&next); err != nil {
		return Event{}, err
	}
	next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
	if err := normalize(&next); err != nil {
		return Event{}, err
	}
	if err := s.Store.UpdateEvent(ctx, next); err != nil {
		return Event{}, err
	}
	return next, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteEvent(ctx, id)
}
