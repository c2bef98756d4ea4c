package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencyops/internal/platform/metrics"
)

const dateLayout = "2006-01-02"

type Service struct {
	Store           StoreAPI
	Rates           *RateCache
	Metrics         *metrics.Collector
	DefaultCurrency string
	PDFDir          string
	now             func() time.Time
	newID           func() string
}

type Options struct {
	DefaultCurrency string
	PDFDir          string
}

func NewService(store StoreAPI, rates *RateCache, collector *metrics.Collector, opts Options) *Service {
	currency := strings.ToUpper(strings.TrimSpace(opts.DefaultCurrency))
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		Store:           store,
		Rates:           rates,
		Metrics:         collector,
		DefaultCurrency: currency,
		PDFDir:          opts.PDFDir,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (s *Service) currency(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return s.DefaultCurrency
	}
	return value
}

func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	return s.Store.ListTransactions(ctx, f)
}

func (s *Service) validateManual(t *Transaction) error {
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return ErrInvalidType
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := parseDate(t.Date); err != nil {
		return err
	}
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	if t.Category == "" {
		t.Category = "other"
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}
	t.Currency = s.currency(t.Currency)
	return nil
}

// CreateTransaction records a manual ledger entry. Entries that claim a
// related payment are rejected; those exist only as mirrors.
func (s *Service) CreateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	if t.RelatedType != "" || t.RelatedID != "" {
		return Transaction{}, ErrMirroredTransaction
	}
	if err := s.validateManual(&t); err != nil {
		return Transaction{}, err
	}
	now := s.now()
	t.ID = s.newID()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := s.Store.CreateTransaction(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, id string, apply func(*Transaction) error) (Transaction, error) {
	var out Transaction
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if current.Mirrored() {
			return ErrMirroredTransaction
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
		next.RelatedType, next.RelatedID = "", ""
		if err := s.validateManual(&next); err != nil {
			return err
		}
		out = next
		return repo.UpdateTransaction(ctx, next)
	})
	return out, err
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if current.Mirrored() {
			return ErrMirroredTransaction
		}
		return repo.DeleteTransaction(ctx, id)
	})
}

func (s *Service) ListClientPayments(ctx context.Context, f PaymentFilter) ([]ClientPayment, error) {
	return s.Store.ListClientPayments(ctx, f)
}

func (s *Service) prepareClientPayment(p *ClientPayment) error {
	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("%w: clientId", ErrMissingField)
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	date, err := parseDate(p.PaymentDate)
	if err != nil {
		return err
	}
	if p.Month < 1 || p.Month > 12 {
		p.Month = int(date.Month())
	}
	if p.Year <= 0 {
		p.Year = date.Year()
	}
	p.Currency = s.currency(p.Currency)
	return nil
}

func clientPaymentMirror(p ClientPayment, description string, at time.Time) Transaction {
	return Transaction{
		Description: description,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Type:        TypeIncome,
		Category:    CategoryClientPayment,
		Date:        p.PaymentDate,
		RelatedID:   p.ID,
		RelatedType: RelatedClientPayment,
		Status:      StatusCompleted,
		ClientID:    p.ClientID,
		ServiceID:   p.ServiceID,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

// insertClientPayment writes a payment and its income mirror through repo.
func (s *Service) insertClientPayment(ctx context.Context, repo Repo, p ClientPayment, description string) (ClientPayment, error) {
	now := s.now()
	p.ID = s.newID()
	p.CreatedAt = now
	if err := repo.CreateClientPayment(ctx, p); err != nil {
		return ClientPayment{}, err
	}
	mirror := clientPaymentMirror(p, description, now)
	mirror.ID = s.newID()
	if err := repo.CreateTransaction(ctx, mirror); err != nil {
		return ClientPayment{}, err
	}
	return p, nil
}

func (s *Service) CreateClientPayment(ctx context.Context, p ClientPayment) (ClientPayment, error) {
	if err := s.prepareClientPayment(&p); err != nil {
		return ClientPayment{}, err
	}
	var out ClientPayment
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		created, err := s.insertClientPayment(ctx, repo, p, "Client payment")
		out = created
		return err
	})
	s.Metrics.Cascade("client_payment_create", err)
	return out, err
}

// syncMirror updates the mirror of a payment, recreating it when a legacy
// row never had one.
func (s *Service) syncMirror(ctx context.Context, repo Repo, mirror Transaction) error {
	found, err := repo.SyncMirror(ctx, mirror)
	if err != nil || found {
		return err
	}
	mirror.ID = s.newID()
	mirror.CreatedAt = mirror.UpdatedAt
	return repo.CreateTransaction(ctx, mirror)
}

func (s *Service) UpdateClientPayment(ctx context.Context, id string, apply func(*ClientPayment) error) (ClientPayment, error) {
	var out ClientPayment
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetClientPayment(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt = current.ID, current.CreatedAt
		if err := s.prepareClientPayment(&next); err != nil {
			return err
		}
		if err := repo.UpdateClientPayment(ctx, next); err != nil {
			return err
		}
		out = next
		return s.syncMirror(ctx, repo, clientPaymentMirror(next, "Client payment", s.now()))
	})
	s.Metrics.Cascade("client_payment_update", err)
	return out, err
}

func (s *Service) DeleteClientPayment(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetClientPayment(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteMirror(ctx, RelatedClientPayment, id); err != nil {
			return err
		}
		return repo.DeleteClientPayment(ctx, id)
	})
	s.Metrics.Cascade("client_payment_delete", err)
	return err
}

func (s *Service) ListPayrollPayments(ctx context.Context, f PayrollFilter) ([]PayrollPayment, error) {
	return s.Store.ListPayrollPayments(ctx, f)
}

func (s *Service) preparePayroll(p *PayrollPayment) error {
	if strings.TrimSpace(p.EmployeeID) == "" {
		return fmt.Errorf("%w: employeeId", ErrMissingField)
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	date, err := parseDate(p.PaymentDate)
	if err != nil {
		return err
	}
	if p.Period == "" {
		p.Period = date.Format("2006-01")
	}
	if _, err := time.Parse("2006-01", p.Period); err != nil {
		return ErrInvalidPeriod
	}
	if p.Status == "" {
		p.Status = "paid"
	}
	p.Currency = s.currency(p.Currency)
	return nil
}

func payrollMirror(p PayrollPayment, at time.Time) Transaction {
	return Transaction{
		Description: "Salary payment",
		Amount:      p.Amount,
		Currency:    p.Currency,
		Type:        TypeExpense,
		Category:    CategorySalaries,
		Date:        p.PaymentDate,
		RelatedID:   p.ID,
		RelatedType: RelatedPayrollPayment,
		Status:      StatusCompleted,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func (s *Service) CreatePayrollPayment(ctx context.Context, p PayrollPayment) (PayrollPayment, error) {
	if err := s.preparePayroll(&p); err != nil {
		return PayrollPayment{}, err
	}
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		now := s.now()
		p.ID = s.newID()
		p.CreatedAt = now
		if err := repo.CreatePayrollPayment(ctx, p); err != nil {
			return err
		}
		mirror := payrollMirror(p, now)
		mirror.ID = s.newID()
		return repo.CreateTransaction(ctx, mirror)
	})
	s.Metrics.Cascade("payroll_payment_create", err)
	if err != nil {
		return PayrollPayment{}, err
	}
	return p, nil
}

func (s *Service) UpdatePayrollPayment(ctx context.Context, id string, apply func(*PayrollPayment) error) (PayrollPayment, error) {
	var out PayrollPayment
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetPayrollPayment(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt = current.ID, current.CreatedAt
		if err := s.preparePayroll(&next); err != nil {
			return err
		}
		if err := repo.UpdatePayrollPayment(ctx, next); err != nil {
			return err
		}
		out = next
		return s.syncMirror(ctx, repo, payrollMirror(next, s.now()))
	})
	s.Metrics.Cascade("payroll_payment_update", err)
	return out, err
}

func (s *Service) DeletePayrollPayment(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetPayrollPayment(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteMirror(ctx, RelatedPayrollPayment, id); err != nil {
			return err
		}
		return repo.DeletePayrollPayment(ctx, id)
	})
	s.Metrics.Cascade("payroll_payment_delete", err)
	return err
}

func (s *Service) ListSalaries(ctx context.Context) ([]EmployeeSalary, error) {
	return s.Store.ListSalaries(ctx)
}

// UpsertSalary updates the employee's current salary row or creates the
// first one.
func (s *Service) UpsertSalary(ctx context.Context, employeeID string, in EmployeeSalary) (EmployeeSalary, error) {
	if strings.TrimSpace(employeeID) == "" {
		return EmployeeSalary{}, fmt.Errorf("%w: employeeId", ErrMissingField)
	}
	if in.Amount < 0 {
		return EmployeeSalary{}, ErrInvalidAmount
	}
	if in.EffectiveDate != "" {
		if _, err := parseDate(in.EffectiveDate); err != nil {
			return EmployeeSalary{}, err
		}
	}
	var out EmployeeSalary
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.SalaryFor(ctx, employeeID)
		switch {
		case err == nil:
			current.Amount = in.Amount
			if in.Currency != "" {
				current.Currency = s.currency(in.Currency)
			}
			if in.EffectiveDate != "" {
				current.EffectiveDate = in.EffectiveDate
			}
			if in.Type != "" {
				current.Type = in.Type
			}
			out = current
			return repo.UpdateSalary(ctx, current)
		case errors.Is(err, ErrSalaryNotFound):
			out = EmployeeSalary{
				ID:            s.newID(),
				EmployeeID:    employeeID,
				Amount:        in.Amount,
				Currency:      s.currency(in.Currency),
				EffectiveDate: in.EffectiveDate,
				Type:          in.Type,
				CreatedAt:     s.now(),
			}
			if out.EffectiveDate == "" {
				out.EffectiveDate = s.today()
			}
			if out.Type == "" {
				out.Type = SalaryMonthly
			}
			return repo.CreateSalary(ctx, out)
		default:
			return err
		}
	})
	return out, err
}
