package crmhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/access"
	"agencyops/internal/domain/crm"
	"agencyops/internal/domain/identity"
	"agencyops/internal/requestctx"
)

type stubStore struct {
	crm.StoreAPI
	leads    map[string]crm.Lead
	clients  map[string]crm.Client
	services []crm.ClientService
}

func (s *stubStore) WithTx(ctx context.Context, fn func(crm.Repo) error) error { return fn(s) }

func (s *stubStore) GetLead(ctx context.Context, id string) (crm.Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return crm.Lead{}, crm.ErrLeadNotFound
	}
	return l, nil
}

func (s *stubStore) UpdateLead(ctx context.Context, l crm.Lead) error {
	s.leads[l.ID] = l
	return nil
}

func (s *stubStore) DeleteLead(ctx context.Context, id string) error {
	delete(s.leads, id)
	return nil
}

func (s *stubStore) CreateClient(ctx context.Context, c crm.Client) error {
	s.clients[c.ID] = c
	return nil
}

func (s *stubStore) DefaultMainPackage(ctx context.Context) (string, error) { return "", nil }

func (s *stubStore) CreateService(ctx context.Context, svc crm.ClientService) error {
	s.services = append(s.services, svc)
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

func setup() (http.Handler, *stubStore) {
	store := &stubStore{
		leads: map[string]crm.Lead{
			"lead-1": {ID: "lead-1", Name: "Acme", Stage: crm.LeadStageNew, DealValue: 1000, DealCurrency: "USD", Notes: "first call"},
		},
		clients: map[string]crm.Client{},
	}
	dir := directory{
		"u-sales":  {UserID: "u-sales", Active: true, RoleName: "sales", RolePermissions: []string{"leads:view", "leads:edit", "leads:convert"}},
		"u-viewer": {UserID: "u-viewer", Active: true, RoleName: "viewer", RolePermissions: []string{"leads:view"}},
	}
	r := chi.NewRouter()
	NewHandler(crm.NewService(store, nil), dir, nopSessions{}).RegisterRoutes(r)
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

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return env.Error.Code, env.Error.Message
}

func TestConvertLeadRequiresPermission(t *testing.T) {
	h, store := setup()

	rec := call(h, http.MethodPost, "/leads/lead-1/convert", "u-viewer", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if _, msg := errorOf(t, rec); msg != "Permission denied: leads:convert" {
		t.Fatalf("unexpected message %q", msg)
	}
	if len(store.leads) != 1 {
		t.Fatalf("lead must not be touched")
	}

	rec = call(h, http.MethodPost, "/leads/lead-1/convert", "u-sales", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if len(store.leads) != 0 || len(store.clients) != 1 || len(store.services) != 1 {
		t.Fatalf("conversion incomplete: %d leads %d clients %d services", len(store.leads), len(store.clients), len(store.services))
	}
	if store.services[0].Price != 1000 {
		t.Fatalf("expected deal value as price, got %v", store.services[0].Price)
	}
}

func TestConvertMissingLead(t *testing.T) {
	h, _ := setup()
	rec := call(h, http.MethodPost, "/leads/ghost/convert", "u-sales", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code, msg := errorOf(t, rec); code != "not_found" || msg != "Lead not found" {
		t.Fatalf("unexpected error %s %q", code, msg)
	}
}

func TestUpdateLeadOverlaysBody(t *testing.T) {
	h, store := setup()

	rec := call(h, http.MethodPut, "/leads/lead-1", "u-sales", `{"stage":"negotiation"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	lead := store.leads["lead-1"]
	if lead.Stage != crm.LeadStageNegotiation || lead.Notes != "first call" || lead.DealValue != 1000 {
		t.Fatalf("partial update lost fields: %#v", lead)
	}

	rec = call(h, http.MethodPut, "/leads/lead-1", "u-sales", `{"stage":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestAnonymousIsUnauthorized(t *testing.T) {
	h, _ := setup()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
