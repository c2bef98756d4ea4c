package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencyops/internal/domain/access"
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

const userColumns = `
  u.id, u.email, u.password_hash, u.name, COALESCE(u.name_en, ''), COALESCE(u.role_id, ''),
  COALESCE(r.name, ''), COALESCE(r.name_ar, ''), u.permissions, COALESCE(u.department, ''),
  COALESCE(u.employee_id, ''), u.is_active, u.last_login, u.created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var perms []byte
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.NameEn, &u.RoleID,
		&u.RoleName, &u.RoleNameAr, &perms, &u.Department, &u.EmployeeID, &u.IsActive, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	u.Permissions = access.NormalizeRaw(perms)
	return u, nil
}

func (s queries) userBy(ctx context.Context, where string, arg any) (User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+`
    FROM users u LEFT JOIN roles r ON r.id = u.role_id
    WHERE `+where, arg))
	if db.IsNoRows(err) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s queries) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return s.userBy(ctx, "u.email = $1", email)
}

func (s queries) GetUser(ctx context.Context, id string) (User, error) {
	return s.userBy(ctx, "u.id = $1", id)
}

func (s queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.q.Query(ctx, `SELECT `+userColumns+`
    FROM users u LEFT JOIN roles r ON r.id = u.role_id
    ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s queries) CreateUser(ctx context.Context, u User) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO users (id, email, password_hash, name, name_en, role_id, permissions, department, employee_id, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, u.ID, u.Email, u.PasswordHash, u.Name, db.NullString(u.NameEn), db.NullString(u.RoleID),
		db.EncodeJSON(u.Permissions, "[]"), db.NullString(u.Department), db.NullString(u.EmployeeID), u.IsActive)
	if db.IsUniqueViolation(err) {
		return ErrUserExists
	}
	return err
}

func (s queries) SetUserActive(ctx context.Context, id string, active bool) error {
	return s.execOne(ctx, ErrUserNotFound, "UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2", active, id)
}

func (s queries) SetUserRole(ctx context.Context, id, roleID string) error {
	return s.execOne(ctx, ErrUserNotFound, "UPDATE users SET role_id = $1, updated_at = now() WHERE id = $2", roleID, id)
}

func (s queries) SetUserPermissions(ctx context.Context, id string, perms []string) error {
	return s.execOne(ctx, ErrUserNotFound, "UPDATE users SET permissions = $1, updated_at = now() WHERE id = $2", db.EncodeJSON(perms, "[]"), id)
}

func (s queries) SetUserPassword(ctx context.Context, id, hash string) error {
	return s.execOne(ctx, ErrUserNotFound, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, id)
}

func (s queries) SetPasswordByEmail(ctx context.Context, email, hash string) error {
	return s.execOne(ctx, ErrUserNotFound, "UPDATE users SET password_hash = $1, updated_at = now() WHERE email = $2", hash, email)
}

func (s queries) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", id)
	return err
}

func (s queries) RawUserPermissions(ctx context.Context) (map[string][]byte, error) {
	return s.rawColumn(ctx, "SELECT id, permissions FROM users")
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

func (s queries) rawColumn(ctx context.Context, sql string) (map[string][]byte, error) {
	rows, err := s.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]byte{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		out[id] = raw
	}
	return out, rows.Err()
}

const roleColumns = `id, name, name_ar, COALESCE(description, ''), permissions, is_system, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	var perms []byte
	if err := row.Scan(&r.ID, &r.Name, &r.NameAr, &r.Description, &perms, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Role{}, err
	}
	r.Permissions = access.NormalizeRaw(perms)
	return r, nil
}

func (s queries) GetRole(ctx context.Context, id string) (Role, error) {
	r, err := scanRole(s.q.QueryRow(ctx, "SELECT "+roleColumns+" FROM roles WHERE id = $1", id))
	if db.IsNoRows(err) {
		return Role{}, ErrRoleNotFound
	}
	return r, err
}

func (s queries) FindRoleByName(ctx context.Context, name string) (Role, error) {
	r, err := scanRole(s.q.QueryRow(ctx, "SELECT "+roleColumns+" FROM roles WHERE name = $1", name))
	if db.IsNoRows(err) {
		return Role{}, ErrRoleNotFound
	}
	return r, err
}

func (s queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.q.Query(ctx, "SELECT "+roleColumns+" FROM roles ORDER BY is_system DESC, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s queries) CreateRole(ctx context.Context, r Role) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO roles (id, name, name_ar, description, permissions, is_system)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, r.ID, r.Name, r.NameAr, db.NullString(r.Description), db.EncodeJSON(r.Permissions, "[]"), r.IsSystem)
	if db.IsUniqueViolation(err) {
		return ErrRoleNameTaken
	}
	return err
}

func (s queries) UpdateRole(ctx context.Context, r Role) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE roles SET name = $1, name_ar = $2, description = $3, permissions = $4, updated_at = now()
    WHERE id = $5
  `, r.Name, r.NameAr, db.NullString(r.Description), db.EncodeJSON(r.Permissions, "[]"), r.ID)
	if db.IsUniqueViolation(err) {
		return ErrRoleNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (s queries) DeleteRole(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrRoleNotFound, "DELETE FROM roles WHERE id = $1", id)
}

func (s queries) SetRolePermissions(ctx context.Context, id string, perms []string) error {
	return s.execOne(ctx, ErrRoleNotFound, "UPDATE roles SET permissions = $1, updated_at = now() WHERE id = $2", db.EncodeJSON(perms, "[]"), id)
}

func (s queries) RawRolePermissions(ctx context.Context) (map[string][]byte, error) {
	return s.rawColumn(ctx, "SELECT id, permissions FROM roles")
}

func (s queries) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE role_id = $1", roleID).Scan(&n)
	return n, err
}

func (s queries) CountEmployeesWithRole(ctx context.Context, roleID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE role_id = $1", roleID).Scan(&n)
	return n, err
}

const clientUserColumns = `id, email, password_hash, client_id, client_name, COALESCE(client_name_en, ''), is_active, last_login, created_at`

func scanClientUser(row pgx.Row) (ClientUser, error) {
	var c ClientUser
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.ClientID, &c.ClientName, &c.ClientNameEn, &c.IsActive, &c.LastLogin, &c.CreatedAt)
	return c, err
}

func (s queries) clientUserBy(ctx context.Context, where string, arg any) (ClientUser, error) {
	c, err := scanClientUser(s.q.QueryRow(ctx, "SELECT "+clientUserColumns+" FROM client_users WHERE "+where+" LIMIT 1", arg))
	if db.IsNoRows(err) {
		return ClientUser{}, ErrClientUserNotFound
	}
	return c, err
}

func (s queries) FindClientUserByEmail(ctx context.Context, email string) (ClientUser, error) {
	return s.clientUserBy(ctx, "email = $1", email)
}

func (s queries) GetClientUser(ctx context.Context, id string) (ClientUser, error) {
	return s.clientUserBy(ctx, "id = $1", id)
}

func (s queries) ClientUserByClient(ctx context.Context, clientID string) (ClientUser, error) {
	return s.clientUserBy(ctx, "client_id = $1", clientID)
}

func (s queries) ListClientUsers(ctx context.Context) ([]ClientUser, error) {
	rows, err := s.q.Query(ctx, "SELECT "+clientUserColumns+" FROM client_users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ClientUser{}
	for rows.Next() {
		c, err := scanClientUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s queries) CreateClientUser(ctx context.Context, c ClientUser) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO client_users (id, email, password_hash, client_id, client_name, client_name_en, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, c.ID, c.Email, c.PasswordHash, c.ClientID, c.ClientName, db.NullString(c.ClientNameEn), c.IsActive)
	if db.IsUniqueViolation(err) {
		return ErrClientUserExists
	}
	return err
}

func (s queries) SetClientUserActive(ctx context.Context, id string, active bool) error {
	return s.execOne(ctx, ErrClientUserNotFound, "UPDATE client_users SET is_active = $1, updated_at = now() WHERE id = $2", active, id)
}

func (s queries) TouchClientLastLogin(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, "UPDATE client_users SET last_login = now() WHERE id = $1", id)
	return err
}

func (s queries) CreateInvitation(ctx context.Context, inv Invitation, tokenHash string) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO invitations (id, email, name, name_en, role_id, permissions, department, employee_id, token_hash, invited_by, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, inv.ID, inv.Email, inv.Name, db.NullString(inv.NameEn), inv.RoleID, db.EncodeJSON(inv.Permissions, "[]"),
		db.NullString(inv.Department), db.NullString(inv.EmployeeID), tokenHash, db.NullString(inv.InvitedBy), inv.ExpiresAt)
	return err
}

func (s queries) InvitationByToken(ctx context.Context, tokenHash string, now time.Time) (Invitation, error) {
	var inv Invitation
	var perms []byte
	err := s.q.QueryRow(ctx, `
    SELECT id, email, COALESCE(name, ''), COALESCE(name_en, ''), role_id, permissions,
           COALESCE(department, ''), COALESCE(employee_id, ''), COALESCE(invited_by, ''), expires_at, used_at
    FROM invitations
    WHERE token_hash = $1 AND expires_at > $2
  `, tokenHash, now).Scan(&inv.ID, &inv.Email, &inv.Name, &inv.NameEn, &inv.RoleID, &perms,
		&inv.Department, &inv.EmployeeID, &inv.InvitedBy, &inv.ExpiresAt, &inv.UsedAt)
	if db.IsNoRows(err) {
		return Invitation{}, ErrInvitationInvalid
	}
	if err != nil {
		return Invitation{}, err
	}
	inv.Permissions = access.NormalizeRaw(perms)
	return inv, nil
}

func (s queries) MarkInvitationUsed(ctx context.Context, id string, at time.Time) error {
	// the used_at guard makes a concurrent second acceptance affect no rows
	return s.execOne(ctx, ErrInvitationUsed, "UPDATE invitations SET used_at = $1 WHERE id = $2 AND used_at IS NULL", at, id)
}

func (s queries) CreatePasswordReset(ctx context.Context, reset PasswordReset, tokenHash string) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO password_resets (id, email, token_hash, expires_at)
    VALUES ($1,$2,$3,$4)
  `, reset.ID, reset.Email, tokenHash, reset.ExpiresAt)
	return err
}

func (s queries) PasswordResetByToken(ctx context.Context, tokenHash string, now time.Time) (PasswordReset, error) {
	var r PasswordReset
	err := s.q.QueryRow(ctx, `
    SELECT id, email, expires_at, used_at
    FROM password_resets
    WHERE token_hash = $1 AND expires_at > $2
  `, tokenHash, now).Scan(&r.ID, &r.Email, &r.ExpiresAt, &r.UsedAt)
	if db.IsNoRows(err) {
		return PasswordReset{}, ErrResetInvalid
	}
	return r, err
}

func (s queries) MarkPasswordResetUsed(ctx context.Context, id string, at time.Time) error {
	return s.execOne(ctx, ErrResetInvalid, "UPDATE password_resets SET used_at = $1 WHERE id = $2 AND used_at IS NULL", at, id)
}
