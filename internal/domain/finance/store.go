package finance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencyops/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
	queries
}

type queries struct {
	q db.Querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, queries: queries{q: pool}}
}

func (s *Store) WithTx(ctx context.Context, fn func(Repo) error) error {
	return db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(queries{q: tx})
	})
}

func (s queries) execOne(ctx context.Context, notFound error, sql string, args ...any) error {
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// monthPrefix renders the LIKE prefix for YYYY-MM-DD text dates.
func monthPrefix(month, year int) string {
	switch {
	case year > 0 && month > 0:
		return fmt.Sprintf("%04d-%02d-%%", year, month)
	case year > 0:
		return fmt.Sprintf("%04d-%%", year)
	default:
		return "%"
	}
}

const transactionColumns = `id, description, amount::float8, currency, type, category, date, COALESCE(related_id, ''),
  COALESCE(related_type, ''), status, COALESCE(notes, ''), COALESCE(client_id, ''), COALESCE(service_id, ''),
  created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Description, &t.Amount, &t.Currency, &t.Type, &t.Category, &t.Date, &t.RelatedID,
		&t.RelatedType, &t.Status, &t.Notes, &t.ClientID, &t.ServiceID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	rows, err := s.q.Query(ctx, `SELECT `+transactionColumns+`
    FROM transactions
    WHERE ($1 = '' OR type = $1)
      AND date LIKE $2
      AND ($3 = '' OR client_id = $3)
    ORDER BY date DESC, created_at DESC`, f.Type, monthPrefix(f.Month, f.Year), f.ClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	t, err := scanTransaction(s.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

func (s queries) CreateTransaction(ctx context.Context, t Transaction) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO transactions (id, description, amount, currency, type, category, date, related_id, related_type,
                              status, notes, client_id, service_id, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
  `, t.ID, t.Description, t.Amount, t.Currency, t.Type, t.Category, t.Date, db.NullString(t.RelatedID),
		db.NullString(t.RelatedType), t.Status, db.NullString(t.Notes), db.NullString(t.ClientID),
		db.NullString(t.ServiceID), t.CreatedAt)
	return err
}

func (s queries) UpdateTransaction(ctx context.Context, t Transaction) error {
	return s.execOne(ctx, ErrTransactionNotFound, `
    UPDATE transactions
    SET description = $1, amount = $2, currency = $3, type = $4, category = $5, date = $6, status = $7,
        notes = $8, client_id = $9, service_id = $10, updated_at = $11
    WHERE id = $12 AND related_type IS NULL
  `, t.Description, t.Amount, t.Currency, t.Type, t.Category, t.Date, t.Status, db.NullString(t.Notes),
		db.NullString(t.ClientID), db.NullString(t.ServiceID), t.UpdatedAt, t.ID)
}

func (s queries) DeleteTransaction(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrTransactionNotFound, `DELETE FROM transactions WHERE id = $1 AND related_type IS NULL`, id)
}

func (s queries) SyncMirror(ctx context.Context, t Transaction) (bool, error) {
	tag, err := s.q.Exec(ctx, `
    UPDATE transactions
    SET amount = $1, currency = $2, date = $3, client_id = $4, service_id = $5, updated_at = $6
    WHERE related_type = $7 AND related_id = $8
  `, t.Amount, t.Currency, t.Date, db.NullString(t.ClientID), db.NullString(t.ServiceID), t.UpdatedAt,
		t.RelatedType, t.RelatedID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s queries) DeleteMirror(ctx context.Context, relatedType, relatedID string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM transactions WHERE related_type = $1 AND related_id = $2`, relatedType, relatedID)
	return err
}

const clientPaymentColumns = `id, client_id, COALESCE(service_id, ''), amount::float8, currency, payment_date, month, year,
  COALESCE(payment_method, ''), COALESCE(notes, ''), created_at`

func scanClientPayment(row pgx.Row) (ClientPayment, error) {
	var p ClientPayment
	err := row.Scan(&p.ID, &p.ClientID, &p.ServiceID, &p.Amount, &p.Currency, &p.PaymentDate, &p.Month, &p.Year,
		&p.PaymentMethod, &p.Notes, &p.CreatedAt)
	return p, err
}

func (s queries) ListClientPayments(ctx context.Context, f PaymentFilter) ([]ClientPayment, error) {
	rows, err := s.q.Query(ctx, `SELECT `+clientPaymentColumns+`
    FROM client_payments
    WHERE ($1 = '' OR client_id = $1)
      AND ($2 = '' OR service_id = $2)
      AND ($3 = 0 OR month = $3)
      AND ($4 = 0 OR year = $4)
    ORDER BY created_at DESC`, f.ClientID, f.ServiceID, f.Month, f.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ClientPayment{}
	for rows.Next() {
		p, err := scanClientPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s queries) GetClientPayment(ctx context.Context, id string) (ClientPayment, error) {
	p, err := scanClientPayment(s.q.QueryRow(ctx, `SELECT `+clientPaymentColumns+` FROM client_payments WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return ClientPayment{}, ErrPaymentNotFound
	}
	return p, err
}

func (s queries) CreateClientPayment(ctx context.Context, p ClientPayment) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO client_payments (id, client_id, service_id, amount, currency, payment_date, month, year,
                                 payment_method, notes, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, p.ID, p.ClientID, db.NullString(p.ServiceID), p.Amount, p.Currency, p.PaymentDate, p.Month, p.Year,
		db.NullString(p.PaymentMethod), db.NullString(p.Notes), p.CreatedAt)
	return err
}

func (s queries) UpdateClientPayment(ctx context.Context, p ClientPayment) error {
	return s.execOne(ctx, ErrPaymentNotFound, `
    UPDATE client_payments
    SET client_id = $1, service_id = $2, amount = $3, currency = $4, payment_date = $5, month = $6, year = $7,
        payment_method = $8, notes = $9
    WHERE id = $10
  `, p.ClientID, db.NullString(p.ServiceID), p.Amount, p.Currency, p.PaymentDate, p.Month, p.Year,
		db.NullString(p.PaymentMethod), db.NullString(p.Notes), p.ID)
}

func (s queries) DeleteClientPayment(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrPaymentNotFound, `DELETE FROM client_payments WHERE id = $1`, id)
}

const payrollColumns = `id, employee_id, amount::float8, currency, payment_date, period, status, COALESCE(notes, ''), created_at`

func scanPayroll(row pgx.Row) (PayrollPayment, error) {
	var p PayrollPayment
	err := row.Scan(&p.ID, &p.EmployeeID, &p.Amount, &p.Currency, &p.PaymentDate, &p.Period, &p.Status, &p.Notes, &p.CreatedAt)
	return p, err
}

func (s queries) ListPayrollPayments(ctx context.Context, f PayrollFilter) ([]PayrollPayment, error) {
	period := "%"
	switch {
	case f.Year > 0 && f.Month > 0:
		period = fmt.Sprintf("%04d-%02d", f.Year, f.Month)
	case f.Year > 0:
		period = fmt.Sprintf("%04d-%%", f.Year)
	}
	rows, err := s.q.Query(ctx, `SELECT `+payrollColumns+`
    FROM payroll_payments
    WHERE ($1 = '' OR employee_id = $1)
      AND period LIKE $2
    ORDER BY created_at DESC`, f.EmployeeID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PayrollPayment{}
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s queries) GetPayrollPayment(ctx context.Context, id string) (PayrollPayment, error) {
	p, err := scanPayroll(s.q.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payroll_payments WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return PayrollPayment{}, ErrPaymentNotFound
	}
	return p, err
}

func (s queries) CreatePayrollPayment(ctx context.Context, p PayrollPayment) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO payroll_payments (id, employee_id, amount, currency, payment_date, period, status, notes, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, p.ID, p.EmployeeID, p.Amount, p.Currency, p.PaymentDate, p.Period, p.Status, db.NullString(p.Notes), p.CreatedAt)
	return err
}

func (s queries) UpdatePayrollPayment(ctx context.Context, p PayrollPayment) error {
	return s.execOne(ctx, ErrPaymentNotFound, `
    UPDATE payroll_payments
    SET employee_id = $1, amount = $2, currency = $3, payment_date = $4, period = $5, status = $6, notes = $7
    WHERE id = $8
  `, p.EmployeeID, p.Amount, p.Currency, p.PaymentDate, p.Period, p.Status, db.NullString(p.Notes), p.ID)
}

func (s queries) DeletePayrollPayment(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrPaymentNotFound, `DELETE FROM payroll_payments WHERE id = $1`, id)
}

const salaryColumns = `id, employee_id, amount::float8, currency, effective_date, type, created_at`

func scanSalary(row pgx.Row) (EmployeeSalary, error) {
	var s EmployeeSalary
	err := row.Scan(&s.ID, &s.EmployeeID, &s.Amount, &s.Currency, &s.EffectiveDate, &s.Type, &s.CreatedAt)
	return s, err
}

func (s queries) ListSalaries(ctx context.Context) ([]EmployeeSalary, error) {
	rows, err := s.q.Query(ctx, `SELECT `+salaryColumns+` FROM employee_salaries ORDER BY employee_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []EmployeeSalary{}
	for rows.Next() {
		sal, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sal)
	}
	return out, rows.Err()
}

func (s queries) SalaryFor(ctx context.Context, employeeID string) (EmployeeSalary, error) {
	sal, err := scanSalary(s.q.QueryRow(ctx, `SELECT `+salaryColumns+`
    FROM employee_salaries WHERE employee_id = $1
    ORDER BY created_at DESC LIMIT 1`, employeeID))
	if db.IsNoRows(err) {
		return EmployeeSalary{}, ErrSalaryNotFound
	}
	return sal, err
}

func (s queries) CreateSalary(ctx context.Context, sal EmployeeSalary) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO employee_salaries (id, employee_id, amount, currency, effective_date, type, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, sal.ID, sal.EmployeeID, sal.Amount, sal.Currency, sal.EffectiveDate, sal.Type, sal.CreatedAt)
	return err
}

func (s queries) UpdateSalary(ctx context.Context, sal EmployeeSalary) error {
	return s.execOne(ctx, ErrSalaryNotFound, `
    UPDATE employee_salaries SET amount = $1, currency = $2, effective_date = $3, type = $4
    WHERE id = $5
  `, sal.Amount, sal.Currency, sal.EffectiveDate, sal.Type, sal.ID)
}

const invoiceColumns = `id, invoice_number, client_id, client_name, COALESCE(service_id, ''), amount::float8, currency, status,
  issue_date, due_date, COALESCE(paid_date, ''), COALESCE(payment_method, ''), items, COALESCE(notes, ''),
  created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var items []byte
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.ClientName, &inv.ServiceID, &inv.Amount,
		&inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate, &inv.PaidDate, &inv.PaymentMethod, &items,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.Items = db.DecodeJSON(items, []InvoiceItem{})
	return inv, nil
}

func (s queries) ListInvoices(ctx context.Context, clientID string) ([]Invoice, error) {
	rows, err := s.q.Query(ctx, `SELECT `+invoiceColumns+`
    FROM invoices
    WHERE ($1 = '' OR client_id = $1)
    ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s queries) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (s queries) LockInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if db.IsNoRows(err) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (s queries) CreateInvoice(ctx context.Context, inv Invoice) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO invoices (id, invoice_number, client_id, client_name, service_id, amount, currency, status,
                          issue_date, due_date, paid_date, payment_method, items, notes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
  `, inv.ID, inv.InvoiceNumber, inv.ClientID, inv.ClientName, db.NullString(inv.ServiceID), inv.Amount, inv.Currency,
		inv.Status, inv.IssueDate, inv.DueDate, db.NullString(inv.PaidDate), db.NullString(inv.PaymentMethod),
		db.EncodeJSON(inv.Items, "[]"), db.NullString(inv.Notes), inv.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrInvoiceNumber
	}
	return err
}

func (s queries) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE invoices
    SET invoice_number = $1, client_id = $2, client_name = $3, service_id = $4, amount = $5, currency = $6,
        status = $7, issue_date = $8, due_date = $9, paid_date = $10, payment_method = $11, items = $12,
        notes = $13, updated_at = $14
    WHERE id = $15
  `, inv.InvoiceNumber, inv.ClientID, inv.ClientName, db.NullString(inv.ServiceID), inv.Amount, inv.Currency,
		inv.Status, inv.IssueDate, inv.DueDate, db.NullString(inv.PaidDate), db.NullString(inv.PaymentMethod),
		db.EncodeJSON(inv.Items, "[]"), db.NullString(inv.Notes), inv.UpdatedAt, inv.ID)
	if db.IsUniqueViolation(err) {
		return ErrInvoiceNumber
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (s queries) DeleteInvoice(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrInvoiceNotFound, `DELETE FROM invoices WHERE id = $1`, id)
}

func (s queries) BillableServices(ctx context.Context) ([]BillableService, error) {
	rows, err := s.q.Query(ctx, `
    SELECT cs.id, COALESCE(cs.price, 0)::float8, COALESCE(cs.currency, ''), cs.status, COALESCE(cs.end_date, ''),
           COALESCE(sp.billing_type, '')
    FROM client_services cs
    LEFT JOIN sub_packages sp ON sp.id = cs.sub_package_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BillableService{}
	for rows.Next() {
		var b BillableService
		if err := rows.Scan(&b.ID, &b.Price, &b.Currency, &b.Status, &b.EndDate, &b.BillingType); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s queries) LatestRates(ctx context.Context) (ExchangeRates, error) {
	var r ExchangeRates
	var raw []byte
	err := s.q.QueryRow(ctx, `
    SELECT id, base, date, rates, fetched_at FROM exchange_rates
    ORDER BY fetched_at DESC LIMIT 1`).Scan(&r.ID, &r.Base, &r.Date, &raw, &r.FetchedAt)
	if db.IsNoRows(err) {
		return ExchangeRates{}, ErrRatesNotFound
	}
	if err != nil {
		return ExchangeRates{}, err
	}
	r.Rates = db.DecodeJSON(raw, map[string]float64{})
	return r, nil
}

func (s queries) SaveRates(ctx context.Context, r ExchangeRates) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO exchange_rates (id, base, date, rates, fetched_at)
    VALUES ($1,$2,$3,$4,$5)
  `, r.ID, r.Base, r.Date, db.EncodeJSON(r.Rates, "{}"), r.FetchedAt)
	return err
}
