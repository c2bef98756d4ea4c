package auth

import (
	"errors"
	"fmt"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrEmailNotFound       = errors.New("email not found")
	ErrAccountDeactivated  = errors.New("account deactivated")
	ErrWrongPassword       = errors.New("wrong password")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionInvalid      = errors.New("session no longer valid")

	ErrUserNotFound       = errors.New("user not found")
	ErrClientUserNotFound = errors.New("client user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleFieldsRequired = errors.New("name and arabic name are required")
	ErrRoleNameTaken      = errors.New("role name already exists")
	ErrCannotRenameAdmin  = errors.New("cannot rename admin role")
	ErrSystemRole         = errors.New("cannot delete system roles")
	ErrCannotDeactivateMe = errors.New("cannot deactivate yourself")

	ErrInviteFieldsRequired     = errors.New("email, name and role are required")
	ErrUserExists               = errors.New("user with this email already exists")
	ErrClientUserFieldsRequired = errors.New("email, password, clientId and clientName are required")
	ErrClientUserExists         = errors.New("client user with this email already exists")
	ErrInvitationInvalid        = errors.New("invalid or expired invitation")
	ErrInvitationUsed           = errors.New("invitation has already been used")
	ErrTokenPasswordRequired    = errors.New("token and password are required")
	ErrEmailRequired            = errors.New("email is required")
	ErrResetInvalid             = errors.New("invalid or expired reset link")
	ErrPasswordsRequired        = errors.New("current and new passwords are required")
	ErrCurrentPasswordWrong     = errors.New("current password is incorrect")
)

// RoleInUseError blocks deletion of a role that is still assigned.
type RoleInUseError struct {
	Holder string
	Count  int
}

func (e *RoleInUseError) Error() string {
	return fmt.Sprintf("cannot delete role: assigned to %d %s(s)", e.Count, e.Holder)
}

// PasswordPolicyError lists every rule a candidate password breaks.
type PasswordPolicyError struct {
	Problems []string
}

func (e *PasswordPolicyError) Error() string {
	return "invalid password"
}
