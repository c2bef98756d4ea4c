package finance

import "context"

type Repo interface {
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	CreateTransaction(ctx context.Context, t Transaction) error
	UpdateTransaction(ctx context.Context, t Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	// SyncMirror copies the payment-owned fields of t onto the row keyed by
	// (t.RelatedType, t.RelatedID). It reports false when no mirror exists.
	SyncMirror(ctx context.Context, t Transaction) (bool, error)
	DeleteMirror(ctx context.Context, relatedType, relatedID string) error

	ListClientPayments(ctx context.Context, f PaymentFilter) ([]ClientPayment, error)
	GetClientPayment(ctx context.Context, id string) (ClientPayment, error)
	CreateClientPayment(ctx context.Context, p ClientPayment) error
	UpdateClientPayment(ctx context.Context, p ClientPayment) error
	DeleteClientPayment(ctx context.Context, id string) error

	ListPayrollPayments(ctx context.Context, f PayrollFilter) ([]PayrollPayment, error)
	GetPayrollPayment(ctx context.Context, id string) (PayrollPayment, error)
	CreatePayrollPayment(ctx context.Context, p PayrollPayment) error
	UpdatePayrollPayment(ctx context.Context, p PayrollPayment) error
	DeletePayrollPayment(ctx context.Context, id string) error

	ListSalaries(ctx context.Context) ([]EmployeeSalary, error)
	SalaryFor(ctx context.Context, employeeID string) (EmployeeSalary, error)
	CreateSalary(ctx context.Context, s EmployeeSalary) error
	UpdateSalary(ctx context.Context, s EmployeeSalary) error

	ListInvoices(ctx context.Context, clientID string) ([]Invoice, error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	// LockInvoice reads the invoice with a row lock held until the
	// surrounding transaction ends.
	LockInvoice(ctx context.Context, id string) (Invoice, error)
	CreateInvoice(ctx context.Context, inv Invoice) error
	UpdateInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, id string) error

	BillableServices(ctx context.Context) ([]BillableService, error)

	LatestRates(ctx context.Context) (ExchangeRates, error)
	SaveRates(ctx context.Context, r ExchangeRates) error
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
