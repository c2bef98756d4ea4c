package crm

import "context"

type Repo interface {
	ListClients(ctx context.Context, status string) ([]Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	CreateClient(ctx context.Context, c Client) error
	UpdateClient(ctx context.Context, c Client) error
	// DeleteClientCascade removes the client and everything it owns.
	DeleteClientCascade(ctx context.Context, id string) error

	ListLeads(ctx context.Context) ([]Lead, error)
	GetLead(ctx context.Context, id string) (Lead, error)
	CreateLead(ctx context.Context, l Lead) error
	UpdateLead(ctx context.Context, l Lead) error
	DeleteLead(ctx context.Context, id string) error

	ListServices(ctx context.Context, clientID string) ([]ClientService, error)
	GetService(ctx context.Context, id string) (ClientService, error)
	CreateService(ctx context.Context, s ClientService) error
	UpdateService(ctx context.Context, s ClientService) error
	DeleteService(ctx context.Context, id string) error
	ListDeliverables(ctx context.Context, serviceIDs []string) ([]Deliverable, error)
	UpsertDeliverable(ctx context.Context, d Deliverable) (previous *Deliverable, err error)
	ListActivityLogs(ctx context.Context, serviceID string) ([]ActivityLog, error)
	InsertActivityLog(ctx context.Context, log ActivityLog) error

	// DefaultMainPackage returns the lowest-ordered main package id, or ""
	// when the catalog is empty.
	DefaultMainPackage(ctx context.Context) (string, error)
	MainPackageExists(ctx context.Context, id string) (bool, error)
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
