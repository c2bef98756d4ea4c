package employees

import "context"

type Repo interface {
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	CreateEmployee(ctx context.Context, e Employee) error
	UpdateEmployee(ctx context.Context, e Employee) error
	// DeleteEmployee also removes the employee's salary history.
	DeleteEmployee(ctx context.Context, id string) error
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
