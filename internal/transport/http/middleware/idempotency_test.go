package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func newIdempotencyStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour)
}

func TestIdempotentReplaysCompletedResponse(t *testing.T) {
	store := newIdempotencyStore(t)
	calls := 0
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1"}}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/client-payments", bytes.NewBufferString(`{"amount":100}`))
		req.Header.Set(IdempotencyHeader, "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i+1, rec.Code)
		}
		if rec.Body.String() != `{"success":true,"data":{"id":"p1"}}` {
			t.Fatalf("attempt %d: unexpected body %s", i+1, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotentRejectsDifferentPayload(t *testing.T) {
	store := newIdempotencyStore(t)
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/client-payments", bytes.NewBufferString(`{"amount":100}`))
	first.Header.Set(IdempotencyHeader, "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/client-payments", bytes.NewBufferString(`{"amount":200}`))
	second.Header.Set(IdempotencyHeader, "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestIdempotentReleasesFailedRequest(t *testing.T) {
	store := newIdempotencyStore(t)
	calls := 0
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString(`{}`))
		req.Header.Set(IdempotencyHeader, "key-2")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected retry after failure to run handler, calls=%d", calls)
	}
}

func TestIdempotentReleasesAfterPanic(t *testing.T) {
	store := newIdempotencyStore(t)
	calls := 0
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() (rec *httptest.ResponseRecorder, panicked bool) {
		defer func() {
			if recover() != nil {
				panicked = true
			}
		}()
		req := httptest.NewRequest(http.MethodPost, "/api/client-payments", bytes.NewBufferString(`{"amount":100}`))
		req.Header.Set(IdempotencyHeader, "key-3")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, false
	}

	if _, panicked := send(); !panicked {
		t.Fatal("expected the panic to reach the caller")
	}
	rec, panicked := send()
	if panicked {
		t.Fatal("retry panicked")
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected retry to run the handler, got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("expected two handler runs, got %d", calls)
	}
}

func TestIdempotentWithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	handler := Idempotent(newIdempotencyStore(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/invoices", nil))
	}
	if calls != 2 {
		t.Fatalf("expected both requests to run, calls=%d", calls)
	}
}
