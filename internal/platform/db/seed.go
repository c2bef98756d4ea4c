package db

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencyops/internal/auth"
	"agencyops/internal/domain/access"
	"agencyops/internal/platform/config"
)

type systemRole struct {
	name        string
	nameAr      string
	description string
	permissions []string
}

func systemRoles() []systemRole {
	return []systemRole{
		{name: access.RoleAdmin, nameAr: "مدير النظام", description: "Full access", permissions: access.AllPermissions()},
		{name: access.RoleEmployee, nameAr: "موظف", description: "Default staff role", permissions: []string{}},
	}
}

// Seed makes sure the system roles exist and the admin role carries the whole
// catalog, then creates the bootstrap admin user when configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return InTx(ctx, pool, func(tx pgx.Tx) error {
		roleIDs := map[string]string{}
		for _, role := range systemRoles() {
			id, err := ensureRole(ctx, tx, role)
			if err != nil {
				return err
			}
			roleIDs[role.name] = id
		}
		return ensureAdminUser(ctx, tx, roleIDs[access.RoleAdmin], cfg)
	})
}

func ensureRole(ctx context.Context, q Querier, role systemRole) (string, error) {
	perms := EncodeJSON(role.permissions, "[]")
	var id string
	err := q.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", role.name).Scan(&id)
	if IsNoRows(err) {
		id = uuid.NewString()
		_, err = q.Exec(ctx, `
      INSERT INTO roles (id, name, name_ar, description, permissions, is_system)
      VALUES ($1,$2,$3,$4,$5,true)
    `, id, role.name, role.nameAr, role.description, perms)
		return id, err
	}
	if err != nil {
		return "", err
	}

	// admin permissions are refreshed on every run so new catalog entries reach it
	if role.name == access.RoleAdmin {
		_, err = q.Exec(ctx, "UPDATE roles SET permissions = $1, is_system = true, updated_at = now() WHERE id = $2", perms, id)
	} else {
		_, err = q.Exec(ctx, "UPDATE roles SET is_system = true WHERE id = $1", id)
	}
	return id, err
}

func ensureAdminUser(ctx context.Context, q Querier, adminRoleID string, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	var id string
	err := q.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		_, err = q.Exec(ctx, "UPDATE users SET role_id = $1 WHERE id = $2 AND (role_id IS NULL OR role_id <> $1)", adminRoleID, id)
		return err
	}
	if !IsNoRows(err) {
		return err
	}
	if cfg.AdminPassword == "" {
		slog.Warn("admin user not seeded: ADMIN_PASSWORD is empty", "email", email)
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
    INSERT INTO users (id, email, password_hash, name, role_id, is_active)
    VALUES ($1,$2,$3,$4,$5,true)
  `, uuid.NewString(), email, hash, cfg.AdminName, adminRoleID)
	return err
}
