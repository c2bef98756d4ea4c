package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type sessionRecord struct {
	Identity  json.RawMessage `json:"identity"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// RedisStore keeps sessions under session:<id> with a TTL equal to the
// session lifetime.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time

	// afterRead runs between the read and the conditional rewrite in
	// RefreshStaff. Nil outside tests.
	afterRead func(sessionID string)
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: "session:", ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Create(ctx context.Context, id Identity) (Session, error) {
	payload, err := marshalIdentity(id)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Identity:  id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.write(ctx, sess.ID, sessionRecord{Identity: payload, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt}, s.ttl); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrSessionNotFound
	}
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	id, err := unmarshalIdentity(rec.Identity)
	if err != nil {
		return Session{}, fmt.Errorf("decode session identity: %w", err)
	}
	return Session{ID: sessionID, Identity: id, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// RefreshStaff rewrites the cached role and permissions of a staff session
// while keeping its remaining lifetime.
func (s *RedisStore) RefreshStaff(ctx context.Context, sessionID, roleID, roleName string, permissions []string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	staff, ok := AsStaff(sess.Identity)
	if !ok {
		return ErrUnknownKind
	}
	staff.RoleID = roleID
	staff.RoleName = roleName
	staff.Permissions = append([]string{}, permissions...)

	payload, err := marshalIdentity(staff)
	if err != nil {
		return err
	}
	if !sess.ExpiresAt.After(s.now()) {
		return ErrSessionNotFound
	}
	data, err := json.Marshal(sessionRecord{Identity: payload, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if s.afterRead != nil {
		s.afterRead(sessionID)
	}

	// XX only overwrites a live key, so a logout landing after the read is
	// never undone.
	err = s.client.SetArgs(ctx, s.key(sessionID), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, sessionID string, rec sessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
