package worksessionhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/access"
	"agencyops/internal/domain/identity"
	"agencyops/internal/domain/worksession"
	"agencyops/internal/requestctx"
)

type stubStore struct {
	worksession.StoreAPI
	sessions map[string]worksession.Session
}

func (s *stubStore) WithTx(ctx context.Context, fn func(worksession.Repo) error) error { return fn(s) }

func (s *stubStore) SessionFor(ctx context.Context, employeeID, date string) (worksession.Session, error) {
	sess, ok := s.sessions[employeeID+"/"+date]
	if !ok {
		return worksession.Session{}, worksession.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubStore) CreateSession(ctx context.Context, sess worksession.Session) error {
	s.sessions[sess.EmployeeID+"/"+sess.Date] = sess
	return nil
}

func (s *stubStore) UpdateSession(ctx context.Context, sess worksession.Session) error {
	s.sessions[sess.EmployeeID+"/"+sess.Date] = sess
	return nil
}

type nopSessions struct{}

func (nopSessions) Get(ctx context.Context, id string) (identity.Session, error) {
	return identity.Session{}, identity.ErrSessionNotFound
}
func (nopSessions) Destroy(ctx context.Context, id string) error { return nil }
func (nopSessions) RefreshStaff(ctx context.Context, id, roleID, roleName string, perms []string) error {
	return nil
}

type directory map[string]access.Subject

func (d directory) LoadSubject(ctx context.Context, userID string) (access.Subject, error) {
	s, ok := d[userID]
	if !ok {
		return access.Subject{}, access.ErrUnknownSubject
	}
	return s, nil
}

func setup(t *testing.T) (http.Handler, *stubStore) {
	t.Helper()
	store := &stubStore{sessions: map[string]worksession.Session{}}
	dir := directory{
		"emp-1":   {UserID: "emp-1", Active: true, RoleName: "employee"},
		"manager": {UserID: "manager", Active: true, RoleName: "lead", RolePermissions: []string{"work_tracking:edit"}},
	}
	r := chi.NewRouter()
	NewHandler(worksession.NewService(store), dir, nopSessions{}).RegisterRoutes(r)
	return r, store
}

func call(h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	sess := identity.Session{ID: "s-" + userID, Identity: identity.Staff{UserID: userID}}
	req = req.WithContext(requestctx.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func status(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Data worksession.Session `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data.Status
}

func TestSelfServiceTransitions(t *testing.T) {
	h, _ := setup(t)

	rec := call(h, http.MethodPost, "/work-sessions/start", "emp-1", "")
	if rec.Code != http.StatusOK || status(t, rec) != worksession.StatusWorking {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	rec = call(h, http.MethodPost, "/work-sessions/break", "emp-1", `{"breakType":"lunch"}`)
	if rec.Code != http.StatusOK || status(t, rec) != worksession.StatusOnBreak {
		t.Fatalf("break: %d %s", rec.Code, rec.Body.String())
	}
	rec = call(h, http.MethodPost, "/work-sessions/resume", "emp-1", "")
	if rec.Code != http.StatusOK || status(t, rec) != worksession.StatusWorking {
		t.Fatalf("resume: %d %s", rec.Code, rec.Body.String())
	}
	rec = call(h, http.MethodPost, "/work-sessions/end", "emp-1", "")
	if rec.Code != http.StatusOK || status(t, rec) != worksession.StatusEnded {
		t.Fatalf("end: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(h, http.MethodPost, "/work-sessions/start", "emp-1", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_transition") {
		t.Fatalf("expected invalid_transition after end, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestActingForAnotherEmployee(t *testing.T) {
	h, store := setup(t)

	rec := call(h, http.MethodPost, "/work-sessions/start", "emp-1", `{"employeeId":"emp-2"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("forbidden request must not write")
	}

	rec = call(h, http.MethodPost, "/work-sessions/start", "manager", `{"employeeId":"emp-2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, s := range store.sessions {
		if s.EmployeeID != "emp-2" {
			t.Fatalf("expected session for emp-2, got %q", s.EmployeeID)
		}
	}
}

func TestTodayWithoutSession(t *testing.T) {
	h, _ := setup(t)

	rec := call(h, http.MethodGet, "/work-sessions/today", "emp-1", "")
	if rec.Code != http.StatusOK || status(t, rec) != worksession.StatusNotStarted {
		t.Fatalf("today: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownBreakTypeRejected(t *testing.T) {
	h, _ := setup(t)
	call(h, http.MethodPost, "/work-sessions/start", "emp-1", "")

	rec := call(h, http.MethodPost, "/work-sessions/break", "emp-1", `{"breakType":"nap"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
