package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"agencyops/internal/domain/access"
	"agencyops/internal/domain/identity"
	"agencyops/internal/transport/http/api"
)

const (
	msgUnauthorized   = "Unauthorized: Please log in again"
	msgStaffRequired  = "Forbidden: Staff access required"
	msgClientRequired = "Forbidden: Client access required"
	msgAdminRequired  = "Forbidden: Admin access required"
)

// StaffDirectory reads the persisted authorization state of a staff user.
// It returns access.ErrUnknownSubject when the user no longer exists.
type StaffDirectory interface {
	LoadSubject(ctx context.Context, userID string) (access.Subject, error)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusUnauthorized, "unauthorized", msgUnauthorized, GetRequestID(r.Context()))
}

func forbidden(w http.ResponseWriter, r *http.Request, message string) {
	api.Fail(w, http.StatusForbidden, "forbidden", message, GetRequestID(r.Context()))
}

func staffSession(w http.ResponseWriter, r *http.Request) (identity.Session, identity.Staff, bool) {
	sess, ok := GetSession(r.Context())
	if !ok {
		unauthorized(w, r)
		return identity.Session{}, identity.Staff{}, false
	}
	staff, ok := identity.AsStaff(sess.Identity)
	if !ok {
		forbidden(w, r, msgStaffRequired)
		return identity.Session{}, identity.Staff{}, false
	}
	return sess, staff, true
}

// RequireAuth admits staff sessions only.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := staffSession(w, r); !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireClientAuth admits client-portal sessions only.
func RequireClientAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}
		if _, ok := identity.AsClient(sess.Identity); !ok {
			forbidden(w, r, msgClientRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(dir StaffDirectory, sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, staff, ok := staffSession(w, r)
			if !ok {
				return
			}
			subject, ok := loadActiveSubject(w, r, dir, sessions, sess, staff)
			if !ok {
				return
			}
			if subject.RoleName != access.RoleAdmin {
				forbidden(w, r, msgAdminRequired)
				return
			}
			refreshSession(r.Context(), sessions, sess.ID, subject)
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission decides on the stored role and user permissions, never
// on the capabilities cached in the session.
func RequirePermission(resource, action string, dir StaffDirectory, sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, staff, ok := staffSession(w, r)
			if !ok {
				return
			}
			subject, ok := loadActiveSubject(w, r, dir, sessions, sess, staff)
			if !ok {
				return
			}
			effective := subject.Effective()
			if !access.Allows(effective, resource, action) {
				forbidden(w, r, "Permission denied: "+access.Permission(resource, action))
				return
			}
			refreshSession(r.Context(), sessions, sess.ID, subject)
			next.ServeHTTP(w, r)
		})
	}
}

func loadActiveSubject(w http.ResponseWriter, r *http.Request, dir StaffDirectory, sessions SessionStore, sess identity.Session, staff identity.Staff) (access.Subject, bool) {
	subject, err := dir.LoadSubject(r.Context(), staff.UserID)
	if errors.Is(err, access.ErrUnknownSubject) || (err == nil && !subject.Active) {
		if derr := sessions.Destroy(r.Context(), sess.ID); derr != nil {
			slog.Warn("session destroy failed", "err", derr, "sessionId", sess.ID)
		}
		unauthorized(w, r)
		return access.Subject{}, false
	}
	if err != nil {
		slog.Warn("permission lookup failed", "err", err, "userId", staff.UserID)
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
		return access.Subject{}, false
	}
	return subject, true
}

func refreshSession(ctx context.Context, sessions SessionStore, sessionID string, subject access.Subject) {
	err := sessions.RefreshStaff(ctx, sessionID, subject.RoleID, subject.RoleName, subject.Effective())
	if err != nil && !errors.Is(err, identity.ErrSessionNotFound) {
		slog.Warn("session refresh failed", "err", err, "sessionId", sessionID)
	}
}
