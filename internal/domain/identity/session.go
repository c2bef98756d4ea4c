package identity

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions. Implementations must make Destroy idempotent.
type Store interface {
	Create(ctx context.Context, id Identity) (Session, error)
	Get(ctx context.Context, sessionID string) (Session, error)
	Destroy(ctx context.Context, sessionID string) error
	RefreshStaff(ctx context.Context, sessionID, roleID, roleName string, permissions []string) error
}
