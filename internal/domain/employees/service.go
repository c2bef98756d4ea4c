package employees

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const SalaryMonthly = "monthly"

type Service struct {
	Store           StoreAPI
	DefaultCurrency string
	now             func() time.Time
}

func NewService(store StoreAPI, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Service{Store: store, DefaultCurrency: defaultCurrency, now: time.Now}
}

func (s *Service) normalize(e *Employee) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.StartDate = strings.TrimSpace(e.StartDate)
	if e.Name == "" || e.Email == "" || e.StartDate == "" {
		return ErrInvalidEmployee
	}
	if _, err := time.Parse("2006-01-02", e.StartDate); err != nil {
		return ErrInvalidEmployee
	}
	if e.SalaryAmount != nil && *e.SalaryAmount < 0 {
		return ErrInvalidSalary
	}
	if e.SalaryType == "" {
		e.SalaryType = SalaryMonthly
	}
	e.SalaryCurrency = strings.ToUpper(strings.TrimSpace(e.SalaryCurrency))
	if e.SalaryCurrency == "" {
		e.SalaryCurrency = s.DefaultCurrency
	}
	return nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.Store.GetEmployee(ctx, id)
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, error) {
	if err := s.normalize(&e); err != nil {
		return Employee{}, err
	}
	now := s.now()
	e.ID = uuid.NewString()
	e.IsActive = true
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.Store.CreateEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, apply func(*Employee) error) (Employee, error) {
	var out Employee
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
		if err := s.normalize(&next); err != nil {
			return err
		}
		out = next
		return repo.UpdateEmployee(ctx, next)
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(repo Repo) error {
		return repo.DeleteEmployee(ctx, id)
	})
}

// Exists reports whether id names an employee. Callers use it to validate
// references from payroll and calendar rows.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Store.GetEmployee(ctx, id)
	if errors.Is(err, ErrEmployeeNotFound) {
		return false, nil
	}
	return err == nil, err
}
