package worksession

import "context"

type Repo interface {
	ListSessions(ctx context.Context, f Filter) ([]Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// SessionFor locks the employee's session for the day.
	SessionFor(ctx context.Context, employeeID, date string) (Session, error)
	CreateSession(ctx context.Context, s Session) error
	UpdateSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, id string) error
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
