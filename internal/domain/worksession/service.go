package worksession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store StoreAPI
	now   func() time.Time
	newID func() string
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, now: time.Now, newID: uuid.NewString}
}

// List filters by status after deriving it, since status is not stored.
func (s *Service) List(ctx context.Context, f Filter) ([]Session, error) {
	items, err := s.Store.ListSessions(ctx, f)
	if err != nil || f.Status == "" {
		return items, err
	}
	out := make([]Session, 0, len(items))
	for _, item := range items {
		if item.Status == f.Status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.Store.GetSession(ctx, id)
}

// Today returns the employee's session for the current day, or an empty
// not_started session when none exists yet.
func (s *Service) Today(ctx context.Context, employeeID string) (Session, error) {
	date := s.now().UTC().Format("2006-01-02")
	session, err := s.Store.SessionFor(ctx, employeeID, date)
	if errors.Is(err, ErrSessionNotFound) {
		empty := Session{EmployeeID: employeeID, Date: date}
		derive(&empty)
		return empty, nil
	}
	return session, err
}

type transition func(current Session, at time.Time) ([]Segment, error)

// apply runs one state change on the employee's session for today inside a
// transaction. create reports whether a missing session may be started.
func (s *Service) apply(ctx context.Context, employeeID string, create bool, step transition) (Session, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Session{}, ErrEmployeeRequired
	}
	now := s.now().UTC()
	date := now.Format("2006-01-02")
	var out Session
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.SessionFor(ctx, employeeID, date)
		isNew := errors.Is(err, ErrSessionNotFound)
		switch {
		case isNew && create:
			current = Session{ID: s.newID(), EmployeeID: employeeID, Date: date, CreatedAt: now}
			derive(&current)
		case err != nil:
			return err
		}
		segments, err := step(current, now)
		if err != nil {
			return err
		}
		current.Segments = segments
		current.UpdatedAt = now
		derive(&current)
		out = current
		if isNew {
			return repo.CreateSession(ctx, current)
		}
		return repo.UpdateSession(ctx, current)
	})
	return out, err
}

func (s *Service) Start(ctx context.Context, employeeID string) (Session, error) {
	return s.apply(ctx, employeeID, true, func(current Session, at time.Time) ([]Segment, error) {
		if current.Status != StatusNotStarted {
			return nil, ErrInvalidTransition
		}
		return appendSegment(current.Segments, Segment{Type: SegmentWork, StartAt: at}), nil
	})
}

func (s *Service) StartBreak(ctx context.Context, employeeID, breakType, note string) (Session, error) {
	if breakType == "" {
		breakType = BreakShort
	}
	if !validBreakType(breakType) {
		return Session{}, ErrInvalidBreakType
	}
	return s.apply(ctx, employeeID, false, func(current Session, at time.Time) ([]Segment, error) {
		if current.Status != StatusWorking {
			return nil, ErrInvalidTransition
		}
		return appendSegment(current.Segments, Segment{Type: SegmentBreak, StartAt: at, BreakType: breakType, Note: strings.TrimSpace(note)}), nil
	})
}

func (s *Service) Resume(ctx context.Context, employeeID string) (Session, error) {
	return s.apply(ctx, employeeID, false, func(current Session, at time.Time) ([]Segment, error) {
		if current.Status != StatusOnBreak {
			return nil, ErrInvalidTransition
		}
		return appendSegment(current.Segments, Segment{Type: SegmentWork, StartAt: at}), nil
	})
}

func (s *Service) End(ctx context.Context, employeeID string) (Session, error) {
	return s.apply(ctx, employeeID, false, func(current Session, at time.Time) ([]Segment, error) {
		if current.Status != StatusWorking && current.Status != StatusOnBreak {
			return nil, ErrInvalidTransition
		}
		return closeOpen(current.Segments, at), nil
	})
}

// Replace swaps in a caller supplied segment list after validating it.
func (s *Service) Replace(ctx context.Context, id string, segments []Segment) (Session, error) {
	if segments == nil {
		segments = []Segment{}
	}
	if err := ValidateSegments(segments); err != nil {
		return Session{}, err
	}
	var out Session
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetSession(ctx, id)
		if err != nil {
			return err
		}
		current.Segments = segments
		current.UpdatedAt = s.now().UTC()
		derive(&current)
		out = current
		return repo.UpdateSession(ctx, current)
	})
	return out, err
}

func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (Session, error) {
	var out Session
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetSession(ctx, id)
		if err != nil {
			return err
		}
		current.Notes = strings.TrimSpace(notes)
		current.UpdatedAt = s.now().UTC()
		out = current
		return repo.UpdateSession(ctx, current)
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteSession(ctx, id)
}
