package auth

import (
	"context"
	"time"
)

// Repo is the query surface, usable standalone or inside WithTx.
type Repo interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) error
	SetUserActive(ctx context.Context, id string, active bool) error
	SetUserRole(ctx context.Context, id, roleID string) error
	SetUserPermissions(ctx context.Context, id string, perms []string) error
	SetUserPassword(ctx context.Context, id, hash string) error
	SetPasswordByEmail(ctx context.Context, email, hash string) error
	TouchLastLogin(ctx context.Context, id string) error
	RawUserPermissions(ctx context.Context) (map[string][]byte, error)

	GetRole(ctx context.Context, id string) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, role Role) error
	UpdateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id string) error
	SetRolePermissions(ctx context.Context, id string, perms []string) error
	RawRolePermissions(ctx context.Context) (map[string][]byte, error)
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)
	CountEmployeesWithRole(ctx context.Context, roleID string) (int, error)

	FindClientUserByEmail(ctx context.Context, email string) (ClientUser, error)
	GetClientUser(ctx context.Context, id string) (ClientUser, error)
	ListClientUsers(ctx context.Context) ([]ClientUser, error)
	ClientUserByClient(ctx context.Context, clientID string) (ClientUser, error)
	CreateClientUser(ctx context.Context, user ClientUser) error
	SetClientUserActive(ctx context.Context, id string, active bool) error
	TouchClientLastLogin(ctx context.Context, id string) error

	CreateInvitation(ctx context.Context, inv Invitation, tokenHash string) error
	InvitationByToken(ctx context.Context, tokenHash string, now time.Time) (Invitation, error)
	MarkInvitationUsed(ctx context.Context, id string, at time.Time) error

	CreatePasswordReset(ctx context.Context, reset PasswordReset, tokenHash string) error
	PasswordResetByToken(ctx context.Context, tokenHash string, now time.Time) (PasswordReset, error)
	MarkPasswordResetUsed(ctx context.Context, id string, at time.Time) error
}

type StoreAPI interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
}
