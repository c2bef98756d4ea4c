package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

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

func (s *Service) ListMainPackages(ctx context.Context) ([]MainPackage, error) {
	return s.Store.ListMainPackages(ctx)
}

func validateMain(p *MainPackage) error {
	p.Name = strings.TrimSpace(p.Name)
	p.NameEn = strings.TrimSpace(p.NameEn)
	if p.Name == "" || p.NameEn == "" {
		return ErrNameRequired
	}
	return nil
}

func (s *Service) CreateMainPackage(ctx context.Context, p MainPackage) (MainPackage, error) {
	if err := validateMain(&p); err != nil {
		return MainPackage{}, err
	}
	now := s.now()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.Store.CreateMainPackage(ctx, p); err != nil {
		return MainPackage{}, err
	}
	return p, nil
}

func (s *Service) UpdateMainPackage(ctx context.Context, id string, apply func(*MainPackage) error) (MainPackage, error) {
	var out MainPackage
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetMainPackage(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
		if err := validateMain(&next); err != nil {
			return err
		}
		out = next
		return repo.UpdateMainPackage(ctx, next)
	})
	return out, err
}

// DeleteMainPackage removes the package and its sub packages together.
func (s *Service) DeleteMainPackage(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(repo Repo) error {
		if err := repo.DeleteSubPackagesOf(ctx, id); err != nil {
			return err
		}
		return repo.DeleteMainPackage(ctx, id)
	})
}

func (s *Service) ListSubPackages(ctx context.Context, mainPackageID string) ([]SubPackage, error) {
	return s.Store.ListSubPackages(ctx, mainPackageID)
}

func (s *Service) validateSub(ctx context.Context, repo Repo, p *SubPackage) error {
	p.Name = strings.TrimSpace(p.Name)
	p.NameEn = strings.TrimSpace(p.NameEn)
	if p.Name == "" || p.NameEn == "" {
		return ErrNameRequired
	}
	if p.BillingType != BillingMonthly && p.BillingType != BillingOneTime {
		return ErrInvalidBilling
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = s.DefaultCurrency
	}
	if p.Deliverables == nil {
		p.Deliverables = []DeliverableTemplate{}
	}
	_, err := repo.GetMainPackage(ctx, p.MainPackageID)
	return err
}

func (s *Service) CreateSubPackage(ctx context.Context, p SubPackage) (SubPackage, error) {
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if err := s.validateSub(ctx, repo, &p); err != nil {
			return err
		}
		now := s.now()
		p.ID = uuid.NewString()
		p.CreatedAt, p.UpdatedAt = now, now
		return repo.CreateSubPackage(ctx, p)
	})
	if err != nil {
		return SubPackage{}, err
	}
	return p, nil
}

func (s *Service) UpdateSubPackage(ctx context.Context, id string, apply func(*SubPackage) error) (SubPackage, error) {
	var out SubPackage
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetSubPackage(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
		if err := s.validateSub(ctx, repo, &next); err != nil {
			return err
		}
		out = next
		return repo.UpdateSubPackage(ctx, next)
	})
	return out, err
}

func (s *Service) DeleteSubPackage(ctx context.Context, id string) error {
	return s.Store.DeleteSubPackage(ctx, id)
}
