package authhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"agencyops/internal/domain/auth"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type failure struct {
	status  int
	code    string
	message string
}

var failures = []struct {
	err error
	failure
}{
	{auth.ErrCredentialsRequired, failure{http.StatusBadRequest, "validation_error", "Email and password are required"}},
	{auth.ErrEmailNotFound, failure{http.StatusUnauthorized, "EMAIL_NOT_FOUND", "Email not found"}},
	{auth.ErrAccountDeactivated, failure{http.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "Account is deactivated"}},
	{auth.ErrWrongPassword, failure{http.StatusUnauthorized, "WRONG_PASSWORD", "Wrong password"}},
	{auth.ErrInvalidCredentials, failure{http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"}},
	{auth.ErrSessionInvalid, failure{http.StatusUnauthorized, "unauthorized", "Not authenticated"}},
	{auth.ErrUserNotFound, failure{http.StatusNotFound, "not_found", "User not found"}},
	{auth.ErrClientUserNotFound, failure{http.StatusNotFound, "not_found", "Client user not found"}},
	{auth.ErrRoleNotFound, failure{http.StatusNotFound, "not_found", "Role not found"}},
	{auth.ErrRoleFieldsRequired, failure{http.StatusBadRequest, "validation_error", "Name and Arabic Name are required"}},
	{auth.ErrRoleNameTaken, failure{http.StatusBadRequest, "conflict", "Role name already exists"}},
	{auth.ErrCannotRenameAdmin, failure{http.StatusBadRequest, "conflict", "Cannot rename admin role"}},
	{auth.ErrSystemRole, failure{http.StatusBadRequest, "conflict", "Cannot delete system roles"}},
	{auth.ErrCannotDeactivateMe, failure{http.StatusBadRequest, "conflict", "Cannot deactivate yourself"}},
	{auth.ErrInviteFieldsRequired, failure{http.StatusBadRequest, "validation_error", "Email, name and role are required"}},
	{auth.ErrUserExists, failure{http.StatusBadRequest, "conflict", "User with this email already exists"}},
	{auth.ErrClientUserFieldsRequired, failure{http.StatusBadRequest, "validation_error", "Email, password, clientId, and clientName are required"}},
	{auth.ErrClientUserExists, failure{http.StatusBadRequest, "conflict", "Client user with this email already exists"}},
	{auth.ErrInvitationInvalid, failure{http.StatusNotFound, "not_found", "Invalid or expired invitation"}},
	{auth.ErrInvitationUsed, failure{http.StatusBadRequest, "conflict", "Invitation has already been used"}},
	{auth.ErrTokenPasswordRequired, failure{http.StatusBadRequest, "validation_error", "Token and password are required"}},
	{auth.ErrEmailRequired, failure{http.StatusBadRequest, "validation_error", "Email is required"}},
	{auth.ErrResetInvalid, failure{http.StatusNotFound, "not_found", "Invalid or expired reset link"}},
	{auth.ErrPasswordsRequired, failure{http.StatusBadRequest, "validation_error", "Current and new passwords are required"}},
	{auth.ErrCurrentPasswordWrong, failure{http.StatusUnauthorized, "invalid_credentials", "Current password is incorrect"}},
}

// WriteError maps an auth domain error onto the response envelope. Unknown
// errors are logged and reported as fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())

	var policy *auth.PasswordPolicyError
	if errors.As(err, &policy) {
		api.FailWithDetails(w, http.StatusBadRequest, "invalid_password", "Invalid password", policy.Problems, reqID)
		return
	}
	var inUse *auth.RoleInUseError
	if errors.As(err, &inUse) {
		api.Fail(w, http.StatusBadRequest, "conflict", fmt.Sprintf("Cannot delete role: assigned to %d %s(s)", inUse.Count, inUse.Holder), reqID)
		return
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			api.Fail(w, f.status, f.code, f.message, reqID)
			return
		}
	}
	slog.Error(fallback, "err", err, "requestId", reqID)
	api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, reqID)
}
