package auth

import (
	"context"
	"errors"
	"strings"

	tokens "agencyops/internal/auth"
	"agencyops/internal/domain/access"
)

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.Store.ListRoles(ctx)
}

func (s *Service) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	name := strings.TrimSpace(in.Name)
	nameAr := strings.TrimSpace(in.NameAr)
	if name == "" || nameAr == "" {
		return Role{}, ErrRoleFieldsRequired
	}
	if _, err := s.Store.FindRoleByName(ctx, name); err == nil {
		return Role{}, ErrRoleNameTaken
	} else if !errors.Is(err, ErrRoleNotFound) {
		return Role{}, err
	}
	now := s.now()
	role := Role{
		ID:          s.newID(),
		Name:        name,
		NameAr:      nameAr,
		Description: strings.TrimSpace(in.Description),
		Permissions: access.NormalizePermissions(in.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateRole(ctx, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole applies the non-empty fields of in. System roles keep their
// name; renaming admin is an error.
func (s *Service) UpdateRole(ctx context.Context, id string, in RoleInput) (Role, error) {
	role, err := s.Store.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	name := strings.TrimSpace(in.Name)
	if role.Name == access.RoleAdmin && name != "" && name != access.RoleAdmin {
		return Role{}, ErrCannotRenameAdmin
	}
	if name != "" && !role.IsSystem {
		role.Name = name
	}
	if nameAr := strings.TrimSpace(in.NameAr); nameAr != "" {
		role.NameAr = nameAr
	}
	if in.Description != "" {
		role.Description = strings.TrimSpace(in.Description)
	}
	if in.Permissions != nil {
		role.Permissions = access.NormalizePermissions(in.Permissions)
	}
	role.UpdatedAt = s.now()
	if err := s.Store.UpdateRole(ctx, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.Store.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	users, err := s.Store.CountUsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return &RoleInUseError{Holder: "user", Count: users}
	}
	employees, err := s.Store.CountEmployeesWithRole(ctx, id)
	if err != nil {
		return err
	}
	if employees > 0 {
		return &RoleInUseError{Holder: "employee", Count: employees}
	}
	return s.Store.DeleteRole(ctx, id)
}

// NormalizeRolePermissions rewrites every stored role permission column in
// canonical form and reports how many rows it touched.
func (s *Service) NormalizeRolePermissions(ctx context.Context) (int, error) {
	count := 0
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		raw, err := repo.RawRolePermissions(ctx)
		if err != nil {
			return err
		}
		for id, value := range raw {
			if err := repo.SetRolePermissions(ctx, id, access.NormalizeRaw(value)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (s *Service) NormalizeUserPermissions(ctx context.Context) (int, error) {
	count := 0
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		raw, err := repo.RawUserPermissions(ctx)
		if err != nil {
			return err
		}
		for id, value := range raw {
			if err := repo.SetUserPermissions(ctx, id, access.NormalizeRaw(value)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.Store.ListUsers(ctx)
}

// ToggleUserActive flips the active flag and returns the new value.
func (s *Service) ToggleUserActive(ctx context.Context, actorID, userID string) (bool, error) {
	if actorID == userID {
		return false, ErrCannotDeactivateMe
	}
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	next := !user.IsActive
	if err := s.Store.SetUserActive(ctx, userID, next); err != nil {
		return false, err
	}
	return next, nil
}

func (s *Service) UpdateUserAccess(ctx context.Context, userID string, in UserAccessInput) error {
	return s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetUser(ctx, userID); err != nil {
			return err
		}
		if in.RoleID != "" {
			if _, err := repo.GetRole(ctx, in.RoleID); err != nil {
				return err
			}
			if err := repo.SetUserRole(ctx, userID, in.RoleID); err != nil {
				return err
			}
		}
		if in.Permissions != nil {
			if err := repo.SetUserPermissions(ctx, userID, access.NormalizePermissions(in.Permissions)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) UserPermissions(ctx context.Context, userID string) (EffectivePermissions, error) {
	subject, err := s.LoadSubject(ctx, userID)
	if errors.Is(err, access.ErrUnknownSubject) {
		return EffectivePermissions{}, ErrUserNotFound
	}
	if err != nil {
		return EffectivePermissions{}, err
	}
	return EffectivePermissions{Role: roleOrDefault(subject.RoleName), Permissions: subject.Effective()}, nil
}

func (s *Service) ListClientUsers(ctx context.Context) ([]ClientUser, error) {
	return s.Store.ListClientUsers(ctx)
}

func (s *Service) CreateClientUser(ctx context.Context, in ClientUserInput) (ClientUser, error) {
	emailAddr := normalizeEmail(in.Email)
	if emailAddr == "" || in.Password == "" || strings.TrimSpace(in.ClientID) == "" || strings.TrimSpace(in.ClientName) == "" {
		return ClientUser{}, ErrClientUserFieldsRequired
	}
	if _, err := s.Store.FindClientUserByEmail(ctx, emailAddr); err == nil {
		return ClientUser{}, ErrClientUserExists
	} else if !errors.Is(err, ErrClientUserNotFound) {
		return ClientUser{}, err
	}
	hash, err := tokens.HashPassword(in.Password)
	if err != nil {
		return ClientUser{}, err
	}
	user := ClientUser{
		ID:           s.newID(),
		Email:        emailAddr,
		PasswordHash: hash,
		ClientID:     strings.TrimSpace(in.ClientID),
		ClientName:   strings.TrimSpace(in.ClientName),
		ClientNameEn: strings.TrimSpace(in.ClientNameEn),
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.Store.CreateClientUser(ctx, user); err != nil {
		return ClientUser{}, err
	}
	return user, nil
}

// ClientUserForClient returns nil without error when the client has no
// portal account.
func (s *Service) ClientUserForClient(ctx context.Context, clientID string) (*ClientUser, error) {
	user, err := s.Store.ClientUserByClient(ctx, clientID)
	if errors.Is(err, ErrClientUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) ToggleClientUserActive(ctx context.Context, id string) (bool, error) {
	user, err := s.Store.GetClientUser(ctx, id)
	if err != nil {
		return false, err
	}
	next := !user.IsActive
	if err := s.Store.SetClientUserActive(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}
