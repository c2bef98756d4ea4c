package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"agencyops/internal/auth"
	"agencyops/internal/domain/identity"
	"agencyops/internal/requestctx"
)

// SessionStore is the subset of the session backend the HTTP layer needs.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (identity.Session, error)
	Destroy(ctx context.Context, sessionID string) error
	RefreshStaff(ctx context.Context, sessionID, roleID, roleName string, permissions []string) error
}

// Session resolves a bearer token into a stored session. Requests without a
// usable token continue anonymously and are rejected by the guards.
func Session(secret string, sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Get(r.Context(), claims.SessionID)
			if err != nil {
				if !errors.Is(err, identity.ErrSessionNotFound) {
					slog.Warn("session lookup failed", "err", err, "requestId", GetRequestID(r.Context()))
				}
				next.ServeHTTP(w, r)
				return
			}
			if string(sess.Identity.Kind()) != claims.Kind {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestctx.WithSession(r.Context(), sess)))
		})
	}
}

func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func GetSession(ctx context.Context) (identity.Session, bool) {
	return requestctx.GetSession(ctx)
}

func GetStaff(ctx context.Context) (identity.Staff, bool) {
	return requestctx.Staff(ctx)
}

func GetClient(ctx context.Context) (identity.ClientPortal, bool) {
	return requestctx.Client(ctx)
}
