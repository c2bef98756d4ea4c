package catalog

import "context"

type Repo interface {
	ListMainPackages(ctx context.Context) ([]MainPackage, error)
	GetMainPackage(ctx context.Context, id string) (MainPackage, error)
	CreateMainPackage(ctx context.Context, p MainPackage) error
	UpdateMainPackage(ctx context.Context, p MainPackage) error
	DeleteMainPackage(ctx context.Context, id string) error
	DeleteSubPackagesOf(ctx context.Context, mainPackageID string) error

	// ListSubPackages returns every sub package when mainPackageID is empty.
	ListSubPackages(ctx context.Context, mainPackageID string) ([]SubPackage, error)
	GetSubPackage(ctx context.Context, id string) (SubPackage, error)
	CreateSubPackage(ctx context.Context, p SubPackage) error
	UpdateSubPackage(ctx context.Context, p SubPackage) error
	DeleteSubPackage(ctx context.Context, id string) error
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
