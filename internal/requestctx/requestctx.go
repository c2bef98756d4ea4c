package requestctx

import (
	"context"

	"agencyops/internal/domain/identity"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionKey   ctxKey = "session"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithSession(ctx context.Context, sess identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func GetSession(ctx context.Context) (identity.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(identity.Session)
	if !ok || sess.Identity == nil {
		return identity.Session{}, false
	}
	return sess, true
}

// Staff returns the staff identity of the current session, if any.
func Staff(ctx context.Context) (identity.Staff, bool) {
	sess, ok := GetSession(ctx)
	if !ok {
		return identity.Staff{}, false
	}
	return identity.AsStaff(sess.Identity)
}

func Client(ctx context.Context) (identity.ClientPortal, bool) {
	sess, ok := GetSession(ctx)
	if !ok {
		return identity.ClientPortal{}, false
	}
	return identity.AsClient(sess.Identity)
}
