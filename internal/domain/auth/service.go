package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	tokens "agencyops/internal/auth"
	"agencyops/internal/domain/access"
	"agencyops/internal/domain/identity"
	"agencyops/internal/platform/email"
	"agencyops/internal/platform/jobs"
)

type Service struct {
	Store      StoreAPI
	Sessions   identity.Store
	Mailer     email.Mailer
	Jobs       jobs.Enqueuer
	Secret     string
	SessionTTL time.Duration
	BaseURL    string
	From       string
	InviteTTL  time.Duration
	ResetTTL   time.Duration
	now        func() time.Time
}

type Options struct {
	Secret     string
	SessionTTL time.Duration
	BaseURL    string
	From       string
	InviteTTL  time.Duration
	ResetTTL   time.Duration
}

func NewService(store StoreAPI, sessions identity.Store, mailer email.Mailer, queue jobs.Enqueuer, opts Options) *Service {
	if opts.InviteTTL <= 0 {
		opts.InviteTTL = 72 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = 24 * time.Hour
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if queue == nil {
		queue = jobs.Inline{}
	}
	return &Service{
		Store:      store,
		Sessions:   sessions,
		Mailer:     mailer,
		Jobs:       queue,
		Secret:     opts.Secret,
		SessionTTL: opts.SessionTTL,
		BaseURL:    strings.TrimRight(opts.BaseURL, "/"),
		From:       opts.From,
		InviteTTL:  opts.InviteTTL,
		ResetTTL:   opts.ResetTTL,
		now:        time.Now,
	}
}

// issue opens a new session for id and signs its bearer token. A previous
// session of the caller, if any, is destroyed first.
func (s *Service) issue(ctx context.Context, previous string, id identity.Identity) (string, identity.Session, error) {
	if previous != "" {
		if err := s.Sessions.Destroy(ctx, previous); err != nil {
			slog.Warn("previous session destroy failed", "err", err)
		}
	}
	sess, err := s.Sessions.Create(ctx, id)
	if err != nil {
		return "", identity.Session{}, err
	}
	token, err := tokens.GenerateToken(s.Secret, tokens.SessionClaims{SessionID: sess.ID, Kind: string(id.Kind())}, s.SessionTTL)
	if err != nil {
		_ = s.Sessions.Destroy(ctx, sess.ID)
		return "", identity.Session{}, err
	}
	return token, sess, nil
}

func (s *Service) Login(ctx context.Context, previous, emailAddr, password string) (LoginResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return LoginResult{}, ErrCredentialsRequired
	}
	user, err := s.Store.FindUserByEmail(ctx, emailAddr)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrEmailNotFound
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !user.IsActive {
		return LoginResult{}, ErrAccountDeactivated
	}
	if tokens.CheckPassword(user.PasswordHash, password) != nil {
		return LoginResult{}, ErrWrongPassword
	}
	if err := s.Store.TouchLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}

	subject, err := s.subjectFor(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	perms := subject.Effective()
	token, sess, err := s.issue(ctx, previous, identity.Staff{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		RoleID:      user.RoleID,
		RoleName:    roleOrDefault(subject.RoleName),
		Permissions: perms,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: staffProfile(user, subject, perms)}, nil
}

func (s *Service) ClientLogin(ctx context.Context, previous, emailAddr, password string) (LoginResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return LoginResult{}, ErrCredentialsRequired
	}
	user, err := s.Store.FindClientUserByEmail(ctx, emailAddr)
	if errors.Is(err, ErrClientUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !user.IsActive {
		return LoginResult{}, ErrAccountDeactivated
	}
	if tokens.CheckPassword(user.PasswordHash, password) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := s.Store.TouchClientLastLogin(ctx, user.ID); err != nil {
		slog.Warn("client last login update failed", "clientUserId", user.ID, "err", err)
	}
	token, sess, err := s.issue(ctx, previous, identity.ClientPortal{
		ClientUserID: user.ID,
		Email:        user.Email,
		Name:         user.ClientName,
		ClientID:     user.ClientID,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: clientProfile(user)}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Sessions.Destroy(ctx, sessionID)
}

// Me re-reads the principal behind a session. A principal that is gone or
// deactivated ends the session.
func (s *Service) Me(ctx context.Context, sess identity.Session) (any, error) {
	switch id := sess.Identity.(type) {
	case identity.Staff:
		user, err := s.Store.GetUser(ctx, id.UserID)
		if errors.Is(err, ErrUserNotFound) || (err == nil && !user.IsActive) {
			return nil, s.endSession(ctx, sess.ID)
		}
		if err != nil {
			return nil, err
		}
		subject, err := s.subjectFor(ctx, user)
		if err != nil {
			return nil, err
		}
		return staffProfile(user, subject, subject.Effective()), nil
	case identity.ClientPortal:
		user, err := s.Store.GetClientUser(ctx, id.ClientUserID)
		if errors.Is(err, ErrClientUserNotFound) || (err == nil && !user.IsActive) {
			return nil, s.endSession(ctx, sess.ID)
		}
		if err != nil {
			return nil, err
		}
		return clientProfile(user), nil
	}
	return nil, ErrSessionInvalid
}

func (s *Service) endSession(ctx context.Context, sessionID string) error {
	if err := s.Sessions.Destroy(ctx, sessionID); err != nil {
		slog.Warn("session destroy failed", "err", err)
	}
	return ErrSessionInvalid
}

// LoadSubject reads the persisted authorization state of a staff user.
func (s *Service) LoadSubject(ctx context.Context, userID string) (access.Subject, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return access.Subject{}, access.ErrUnknownSubject
	}
	if err != nil {
		return access.Subject{}, err
	}
	return s.subjectFor(ctx, user)
}

func (s *Service) subjectFor(ctx context.Context, user User) (access.Subject, error) {
	subject := access.Subject{
		UserID:          user.ID,
		Email:           user.Email,
		Name:            user.Name,
		RoleID:          user.RoleID,
		Active:          user.IsActive,
		UserPermissions: user.Permissions,
	}
	if user.RoleID == "" {
		return subject, nil
	}
	role, err := s.Store.GetRole(ctx, user.RoleID)
	if errors.Is(err, ErrRoleNotFound) {
		return subject, nil
	}
	if err != nil {
		return access.Subject{}, err
	}
	subject.RoleName = role.Name
	subject.RolePermissions = role.Permissions
	return subject, nil
}

func roleOrDefault(name string) string {
	if name == "" {
		return access.RoleEmployee
	}
	return name
}

func staffProfile(user User, subject access.Subject, perms []string) StaffProfile {
	return StaffProfile{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		NameEn:      user.NameEn,
		Role:        roleOrDefault(subject.RoleName),
		RoleID:      user.RoleID,
		Department:  user.Department,
		Permissions: perms,
	}
}

func clientProfile(user ClientUser) ClientProfile {
	return ClientProfile{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.ClientName,
		NameEn:       user.ClientNameEn,
		ClientID:     user.ClientID,
		IsClientUser: true,
	}
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return ErrPasswordsRequired
	}
	if err := checkPolicy(next); err != nil {
		return err
	}
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if tokens.CheckPassword(user.PasswordHash, current) != nil {
		return ErrCurrentPasswordWrong
	}
	hash, err := tokens.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.SetUserPassword(ctx, user.ID, hash)
}

func (s *Service) newID() string {
	return uuid.NewString()
}

func (s *Service) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.BaseURL, path, token)
}

// mail queues a best-effort message. Callers invoke it only after their
// transaction committed.
func (s *Service) mail(jobType, to, subject, body string) {
	if s.Mailer == nil {
		return
	}
	from := s.From
	s.Jobs.Enqueue(jobType, func(ctx context.Context) error {
		return s.Mailer.Send(ctx, from, to, subject, body)
	})
}
