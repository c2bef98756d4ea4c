package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"agencyops/internal/transport/http/api"
)

const IdempotencyHeader = "Idempotency-Key"

var (
	ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is still running")
)

type idempotencyRecord struct {
	RequestHash string          `json:"requestHash"`
	Done        bool            `json:"done"`
	Status      int             `json:"status,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// IdempotencyStore remembers the response of a mutation per caller and key.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, prefix: "idem:", ttl: ttl}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) key(scope, endpoint, key string) string {
	return s.prefix + scope + ":" + endpoint + ":" + key
}

// Begin claims the key. When an earlier request with the same key completed,
// its stored response is returned with replay set to true.
func (s *IdempotencyStore) Begin(ctx context.Context, scope, endpoint, key, requestHash string) (status int, response json.RawMessage, replay bool, err error) {
	if s == nil || s.client == nil {
		return 0, nil, false, nil
	}
	pending, _ := json.Marshal(idempotencyRecord{RequestHash: requestHash})
	k := s.key(scope, endpoint, key)
	claimed, err := s.client.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return 0, nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return 0, nil, false, nil
	}

	raw, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.Begin(ctx, scope, endpoint, key, requestHash)
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, nil, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	if rec.RequestHash != requestHash {
		return 0, nil, false, ErrIdempotencyConflict
	}
	if !rec.Done {
		return 0, nil, false, ErrIdempotencyInFlight
	}
	return rec.Status, rec.Response, true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, scope, endpoint, key, requestHash string, status int, response json.RawMessage) error {
	if s == nil || s.client == nil {
		return nil
	}
	payload, err := json.Marshal(idempotencyRecord{RequestHash: requestHash, Done: true, Status: status, Response: response})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(scope, endpoint, key), payload, s.ttl).Err()
}

// Release drops a claim so a failed request can be retried with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, scope, endpoint, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(scope, endpoint, key)).Err()
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.buf.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotent replays the stored response for a repeated Idempotency-Key.
// Requests without the header pass through untouched.
func Idempotent(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := "anonymous"
			if sess, ok := GetSession(r.Context()); ok {
				scope = string(sess.Identity.Kind()) + ":" + sess.Identity.SubjectID()
			}
			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(append([]byte(endpoint+"\n"), body...))

			status, stored, replay, err := store.Begin(r.Context(), scope, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", reqID)
				return
			case errors.Is(err, ErrIdempotencyInFlight):
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is in progress", reqID)
				return
			case err != nil:
				slog.Warn("idempotency check failed", "err", err, "requestId", reqID)
				next.ServeHTTP(w, r)
				return
			case replay:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(status)
				_, _ = w.Write(stored)
				return
			}

			ctx := context.WithoutCancel(r.Context())
			recorder := &bufferedWriter{ResponseWriter: w}
			func() {
				// a panicking handler must not leave the key claimed until the TTL
				defer func() {
					if rec := recover(); rec != nil {
						if err := store.Release(ctx, scope, endpoint, key); err != nil {
							slog.Warn("idempotency release failed", "err", err, "requestId", reqID)
						}
						panic(rec)
					}
				}()
				next.ServeHTTP(recorder, r)
			}()

			if recorder.status >= 200 && recorder.status < 300 {
				if err := store.Complete(ctx, scope, endpoint, key, hash, recorder.status, recorder.buf.Bytes()); err != nil {
					slog.Warn("idempotency save failed", "err", err, "requestId", reqID)
				}
				return
			}
			if err := store.Release(ctx, scope, endpoint, key); err != nil {
				slog.Warn("idempotency release failed", "err", err, "requestId", reqID)
			}
		})
	}
}
