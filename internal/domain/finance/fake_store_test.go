package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type fakeData struct {
	transactions map[string]Transaction
	payments     map[string]ClientPayment
	payroll      map[string]PayrollPayment
	salaries     map[string]EmployeeSalary
	invoices     map[string]Invoice
	services     []BillableService
	rates        []ExchangeRates
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d fakeData) clone() fakeData {
	return fakeData{
		transactions: copyMap(d.transactions),
		payments:     copyMap(d.payments),
		payroll:      copyMap(d.payroll),
		salaries:     copyMap(d.salaries),
		invoices:     copyMap(d.invoices),
		services:     append([]BillableService(nil), d.services...),
		rates:        append([]ExchangeRates(nil), d.rates...),
	}
}

type fakeStore struct {
	fakeData
	failMirror  bool
	ratesLoaded int
}

var errInjected = errors.New("injected failure")

func newFakeStore() *fakeStore {
	return &fakeStore{fakeData: fakeData{}.clone()}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	snapshot := f.fakeData.clone()
	if err := fn(f); err != nil {
		f.fakeData = snapshot
		return err
	}
	return nil
}

func inPeriod(date string, month, year int) bool {
	switch {
	case month > 0 && year > 0:
		return strings.HasPrefix(date, fmt.Sprintf("%04d-%02d", year, month))
	case year > 0:
		return strings.HasPrefix(date, fmt.Sprintf("%04d-", year))
	}
	return true
}

func (f *fakeStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	out := []Transaction{}
	for _, t := range f.transactions {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.ClientID != "" && t.ClientID != filter.ClientID {
			continue
		}
		if !inPeriod(t.Date, filter.Month, filter.Year) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t Transaction) error {
	if f.failMirror && t.Mirrored() {
		return errInjected
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, t Transaction) error {
	current, ok := f.transactions[t.ID]
	if !ok || current.Mirrored() {
		return ErrTransactionNotFound
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	current, ok := f.transactions[id]
	if !ok || current.Mirrored() {
		return ErrTransactionNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) mirrorOf(relatedType, relatedID string) (Transaction, bool) {
	for _, t := range f.transactions {
		if t.RelatedType == relatedType && t.RelatedID == relatedID {
			return t, true
		}
	}
	return Transaction{}, false
}

func (f *fakeStore) SyncMirror(ctx context.Context, t Transaction) (bool, error) {
	current, ok := f.mirrorOf(t.RelatedType, t.RelatedID)
	if !ok {
		return false, nil
	}
	current.Amount = t.Amount
	current.Currency = t.Currency
	current.Date = t.Date
	current.ClientID = t.ClientID
	current.ServiceID = t.ServiceID
	current.UpdatedAt = t.UpdatedAt
	f.transactions[current.ID] = current
	return true, nil
}

func (f *fakeStore) DeleteMirror(ctx context.Context, relatedType, relatedID string) error {
	for id, t := range f.transactions {
		if t.RelatedType == relatedType && t.RelatedID == relatedID {
			delete(f.transactions, id)
		}
	}
	return nil
}

func (f *fakeStore) ListClientPayments(ctx context.Context, filter PaymentFilter) ([]ClientPayment, error) {
	out := []ClientPayment{}
	for _, p := range f.payments {
		if filter.ClientID != "" && p.ClientID != filter.ClientID {
			continue
		}
		if filter.ServiceID != "" && p.ServiceID != filter.ServiceID {
			continue
		}
		if filter.Month > 0 && p.Month != filter.Month {
			continue
		}
		if filter.Year > 0 && p.Year != filter.Year {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetClientPayment(ctx context.Context, id string) (ClientPayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return ClientPayment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateClientPayment(ctx context.Context, p ClientPayment) error {
	f.payments[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateClientPayment(ctx context.Context, p ClientPayment) error {
	if _, ok := f.payments[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteClientPayment(ctx context.Context, id string) error {
	if _, ok := f.payments[id]; !ok {
		return ErrPaymentNotFound
	}
	delete(f.payments, id)
	return nil
}

func (f *fakeStore) ListPayrollPayments(ctx context.Context, filter PayrollFilter) ([]PayrollPayment, error) {
	out := []PayrollPayment{}
	for _, p := range f.payroll {
		if filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID {
			continue
		}
		if !inPeriod(p.Period, filter.Month, filter.Year) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetPayrollPayment(ctx context.Context, id string) (PayrollPayment, error) {
	p, ok := f.payroll[id]
	if !ok {
		return PayrollPayment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeStore) CreatePayrollPayment(ctx context.Context, p PayrollPayment) error {
	f.payroll[p.ID] = p
	return nil
}

func (f *fakeStore) UpdatePayrollPayment(ctx context.Context, p PayrollPayment) error {
	if _, ok := f.payroll[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	f.payroll[p.ID] = p
	return nil
}

func (f *fakeStore) DeletePayrollPayment(ctx context.Context, id string) error {
	if _, ok := f.payroll[id]; !ok {
		return ErrPaymentNotFound
	}
	delete(f.payroll, id)
	return nil
}

func (f *fakeStore) ListSalaries(ctx context.Context) ([]EmployeeSalary, error) {
	out := []EmployeeSalary{}
	for _, s := range f.salaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SalaryFor(ctx context.Context, employeeID string) (EmployeeSalary, error) {
	for _, s := range f.salaries {
		if s.EmployeeID == employeeID {
			return s, nil
		}
	}
	return EmployeeSalary{}, ErrSalaryNotFound
}

func (f *fakeStore) CreateSalary(ctx context.Context, s EmployeeSalary) error {
	f.salaries[s.ID] = s
	return nil
}

func (f *fakeStore) UpdateSalary(ctx context.Context, s EmployeeSalary) error {
	if _, ok := f.salaries[s.ID]; !ok {
		return ErrSalaryNotFound
	}
	f.salaries[s.ID] = s
	return nil
}

func (f *fakeStore) ListInvoices(ctx context.Context, clientID string) ([]Invoice, error) {
	out := []Invoice{}
	for _, inv := range f.invoices {
		if clientID == "" || inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeStore) LockInvoice(ctx context.Context, id string) (Invoice, error) {
	return f.GetInvoice(ctx, id)
}

func (f *fakeStore) CreateInvoice(ctx context.Context, inv Invoice) error {
	for _, existing := range f.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return ErrInvoiceNumber
		}
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeStore) UpdateInvoice(ctx context.Context, inv Invoice) error {
	if _, ok := f.invoices[inv.ID]; !ok {
		return ErrInvoiceNotFound
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeStore) DeleteInvoice(ctx context.Context, id string) error {
	if _, ok := f.invoices[id]; !ok {
		return ErrInvoiceNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeStore) BillableServices(ctx context.Context) ([]BillableService, error) {
	return append([]BillableService(nil), f.services...), nil
}

func (f *fakeStore) LatestRates(ctx context.Context) (ExchangeRates, error) {
	f.ratesLoaded++
	if len(f.rates) == 0 {
		return ExchangeRates{}, ErrRatesNotFound
	}
	return f.rates[len(f.rates)-1], nil
}

func (f *fakeStore) SaveRates(ctx context.Context, r ExchangeRates) error {
	f.rates = append(f.rates, r)
	return nil
}

func (f *fakeStore) mirrorsOf(relatedType string) []Transaction {
	var out []Transaction
	for _, t := range f.transactions {
		if t.RelatedType == relatedType {
			out = append(out, t)
		}
	}
	return out
}
