package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tokens "agencyops/internal/auth"
	"agencyops/internal/domain/access"
	"agencyops/internal/platform/jobs"
)

func (s *Service) Invite(ctx context.Context, invitedBy string, in InviteInput) (InviteResult, error) {
	emailAddr := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if emailAddr == "" || name == "" || strings.TrimSpace(in.RoleID) == "" {
		return InviteResult{}, ErrInviteFieldsRequired
	}
	if _, err := s.Store.FindUserByEmail(ctx, emailAddr); err == nil {
		return InviteResult{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return InviteResult{}, err
	}
	role, err := s.Store.GetRole(ctx, in.RoleID)
	if err != nil {
		return InviteResult{}, err
	}
	token, hash, err := tokens.NewOpaqueToken()
	if err != nil {
		return InviteResult{}, err
	}
	inv := Invitation{
		ID:          s.newID(),
		Email:       emailAddr,
		Name:        name,
		NameEn:      strings.TrimSpace(in.NameEn),
		RoleID:      role.ID,
		Permissions: access.NormalizePermissions(in.Permissions),
		Department:  strings.TrimSpace(in.Department),
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
		InvitedBy:   invitedBy,
		ExpiresAt:   s.now().Add(s.InviteTTL),
	}
	if err := s.Store.CreateInvitation(ctx, inv, hash); err != nil {
		return InviteResult{}, err
	}

	link := s.link("/set-password", token)
	roleLabel := role.NameAr
	if roleLabel == "" {
		roleLabel = "Employee"
	}
	s.mail(jobs.JobInvitationEmail, inv.Email, "Invitation to join",
		fmt.Sprintf("Hello %s,\n\nYou have been invited as %s.\nSet your password here: %s\n\nThe link expires on %s.\n",
			inv.Name, roleLabel, link, inv.ExpiresAt.Format("2006-01-02 15:04 MST")))
	return InviteResult{InviteLink: link, ExpiresAt: inv.ExpiresAt, EmailQueue: s.Mailer != nil}, nil
}

func (s *Service) CheckInvitation(ctx context.Context, token string) (Invitation, error) {
	inv, err := s.Store.InvitationByToken(ctx, tokens.HashToken(token), s.now())
	if err != nil {
		return Invitation{}, err
	}
	if inv.UsedAt != nil {
		return Invitation{}, ErrInvitationUsed
	}
	return inv, nil
}

// AcceptInvitation creates the invited user and consumes the invitation in
// one transaction, then ends the caller's current session.
func (s *Service) AcceptInvitation(ctx context.Context, sessionID, token, password string) error {
	if strings.TrimSpace(token) == "" || password == "" {
		return ErrTokenPasswordRequired
	}
	if err := checkPolicy(password); err != nil {
		return err
	}
	hash, err := tokens.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	err = s.Store.WithTx(ctx, func(repo Repo) error {
		inv, err := repo.InvitationByToken(ctx, tokens.HashToken(token), now)
		if err != nil {
			return err
		}
		if inv.UsedAt != nil {
			return ErrInvitationUsed
		}
		if _, err := repo.FindUserByEmail(ctx, inv.Email); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if err := repo.CreateUser(ctx, User{
			ID:           s.newID(),
			Email:        inv.Email,
			PasswordHash: hash,
			Name:         inv.Name,
			NameEn:       inv.NameEn,
			RoleID:       inv.RoleID,
			Permissions:  inv.Permissions,
			Department:   inv.Department,
			EmployeeID:   inv.EmployeeID,
			IsActive:     true,
		}); err != nil {
			return err
		}
		return repo.MarkInvitationUsed(ctx, inv.ID, now)
	})
	if err != nil {
		return err
	}
	if sessionID != "" {
		if err := s.Sessions.Destroy(ctx, sessionID); err != nil {
			slog.Warn("session destroy after invitation failed", "err", err)
		}
	}
	return nil
}

// ForgotPassword never reveals whether the address exists.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrEmailRequired
	}
	user, err := s.Store.FindUserByEmail(ctx, emailAddr)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}
	token, hash, err := tokens.NewOpaqueToken()
	if err != nil {
		return err
	}
	reset := PasswordReset{ID: s.newID(), Email: user.Email, ExpiresAt: s.now().Add(s.ResetTTL)}
	if err := s.Store.CreatePasswordReset(ctx, reset, hash); err != nil {
		return err
	}
	s.mail(jobs.JobPasswordReset, user.Email, "Password reset",
		fmt.Sprintf("Hello %s,\n\nReset your password here: %s\n\nIf you did not ask for this, ignore this message.\n",
			user.Name, s.link("/reset-password", token)))
	return nil
}

func (s *Service) CheckReset(ctx context.Context, token string) (PasswordReset, error) {
	reset, err := s.Store.PasswordResetByToken(ctx, tokens.HashToken(token), s.now())
	if err != nil {
		return PasswordReset{}, err
	}
	if reset.UsedAt != nil {
		return PasswordReset{}, ErrResetInvalid
	}
	return reset, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" || password == "" {
		return ErrTokenPasswordRequired
	}
	if err := checkPolicy(password); err != nil {
		return err
	}
	hash, err := tokens.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	return s.Store.WithTx(ctx, func(repo Repo) error {
		reset, err := repo.PasswordResetByToken(ctx, tokens.HashToken(token), now)
		if err != nil {
			return err
		}
		if reset.UsedAt != nil {
			return ErrResetInvalid
		}
		if err := repo.SetPasswordByEmail(ctx, reset.Email, hash); err != nil {
			return err
		}
		return repo.MarkPasswordResetUsed(ctx, reset.ID, now)
	})
}
