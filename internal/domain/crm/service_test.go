package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, nil)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return svc
}

func TestConvertOrganicLead(t *testing.T) {
	store := newFakeStore()
	store.packages["pkg-social"] = 2
	store.packages["pkg-seo"] = 1
	store.leads["lead-1"] = Lead{ID: "lead-1", Name: "Acme", DealValue: 1000, DealCurrency: "USD", Notes: "Met at expo", NegotiatorID: "emp-1", CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(store)

	client, err := svc.ConvertLeadToClient(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(store.clients) != 1 || len(store.leads) != 0 {
		t.Fatalf("expected one client and no lead, got %d clients %d leads", len(store.clients), len(store.leads))
	}
	if client.Status != ClientStatusActive || client.SalesOwnerID != "emp-1" || client.ConvertedFromLeadID != "lead-1" {
		t.Fatalf("unexpected client %#v", client)
	}
	if client.Notes != "Met at expo\n\nDeal Value: 1000 USD" {
		t.Fatalf("unexpected notes %q", client.Notes)
	}
	if client.LeadCreatedAt == nil || client.LeadCreatedAt.Month() != time.May {
		t.Fatalf("expected lead creation time to be kept")
	}
	services, _ := store.ListServices(context.Background(), client.ID)
	if len(services) != 1 {
		t.Fatalf("expected one default service, got %d", len(services))
	}
	s := services[0]
	if s.Price != 1000 || s.Currency != "USD" || s.ServiceName != "Converted Deal" || s.Status != ServiceStatusInProgress {
		t.Fatalf("unexpected service %#v", s)
	}
	if s.MainPackageID != "pkg-seo" || s.StartDate != "2025-06-01" {
		t.Fatalf("expected lowest-ordered package and today, got %s %s", s.MainPackageID, s.StartDate)
	}
}

func TestConvertLeadWithoutDealOrPackage(t *testing.T) {
	store := newFakeStore()
	store.leads["lead-1"] = Lead{ID: "lead-1", Name: "Quiet Co"}
	svc := newTestService(store)

	client, err := svc.ConvertLeadToClient(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	services, _ := store.ListServices(context.Background(), client.ID)
	if len(services) != 1 {
		t.Fatalf("expected one service")
	}
	s := services[0]
	if s.ServiceName != "New Service" || s.Price != 0 || s.Currency != DefaultCurrency || s.MainPackageID != UnknownPackage {
		t.Fatalf("unexpected default service %#v", s)
	}
	if client.Notes != "" {
		t.Fatalf("expected empty notes, got %q", client.Notes)
	}
}

func TestConvertNotFoundWritesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.ConvertLeadToClient(context.Background(), "missing"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected lead not found, got %v", err)
	}
	if _, err := svc.ConvertClientToLead(context.Background(), "missing"); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected client not found, got %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("expected no writes, got %d", store.writes)
	}
}

func TestConvertLeadRollsBackOnServiceFailure(t *testing.T) {
	store := newFakeStore()
	store.leads["lead-1"] = Lead{ID: "lead-1", Name: "Acme"}
	store.failCreateService = true
	svc := newTestService(store)

	if _, err := svc.ConvertLeadToClient(context.Background(), "lead-1"); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if len(store.clients) != 0 {
		t.Fatalf("client insert should be rolled back")
	}
	if _, ok := store.leads["lead-1"]; !ok {
		t.Fatalf("lead should still exist")
	}
}

func seedClient(store *fakeStore) Client {
	client := Client{ID: "client-1", Name: "Acme", Email: "hi@acme.test", Status: ClientStatusArchived, SalesOwnerID: "emp-2", SalesOwners: []string{"emp-2"}, Notes: "VIP"}
	store.clients[client.ID] = client
	store.services["svc-1"] = ClientService{ID: "svc-1", ClientID: client.ID, MainPackageID: "pkg-1", ServiceName: "Ads", StartDate: "2025-01-01", Status: "active", Price: 500, Currency: "USD", ExecutionEmployeeIDs: []string{"emp-3"}}
	store.services["svc-2"] = ClientService{ID: "svc-2", ClientID: client.ID, MainPackageID: "pkg-2", ServiceName: "Website", StartDate: "2025-02-01", EndDate: "2025-03-01", Status: "completed", Price: 1200.5, Currency: "EUR", ExecutionEmployeeIDs: []string{}}
	store.deliverables["d-1"] = Deliverable{ID: "d-1", ServiceID: "svc-1", Key: "posts", Target: 10, Completed: 4}
	store.owned[client.ID] = 3
	return client
}

func TestClientLeadRoundTrip(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	original, _ := store.ListServices(context.Background(), client.ID)
	svc := newTestService(store)

	lead, err := svc.ConvertClientToLead(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("client to lead: %v", err)
	}
	if len(store.clients) != 0 || len(store.services) != 0 || len(store.deliverables) != 0 || store.owned[client.ID] != 0 {
		t.Fatalf("client cascade incomplete")
	}
	if lead.Stage != LeadStageNegotiation || !lead.WasConfirmedClient || lead.ConvertedFromClientID != client.ID || lead.NegotiatorID != "emp-2" {
		t.Fatalf("unexpected lead %#v", lead)
	}
	for _, want := range []string{"VIP", "--- Service History (from Client phase) ---", "- Ads (active): 500 USD [2025-01-01 - Ongoing]", "- Website (completed): 1200.5 EUR [2025-02-01 - 2025-03-01]"} {
		if !strings.Contains(lead.Notes, want) {
			t.Fatalf("notes missing %q: %q", want, lead.Notes)
		}
	}

	restored, err := svc.ConvertLeadToClient(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("lead to client: %v", err)
	}
	if len(store.leads) != 0 {
		t.Fatalf("intermediate lead should be gone")
	}
	if restored.Status != ClientStatusActive || restored.Name != client.Name || restored.Notes != client.Notes || restored.SalesOwnerID != client.SalesOwnerID {
		t.Fatalf("unexpected restored client %#v", restored)
	}
	if restored.ID == client.ID {
		t.Fatalf("restored client must get a fresh id")
	}
	services, _ := store.ListServices(context.Background(), restored.ID)
	if len(services) != len(original) {
		t.Fatalf("expected %d services, got %d", len(original), len(services))
	}
	for i := range services {
		got, want := services[i], original[i]
		if got.ID == want.ID {
			t.Fatalf("service %s reused its id", want.ID)
		}
		if got.ServiceName != want.ServiceName || got.Price != want.Price || got.Currency != want.Currency ||
			got.Status != want.Status || got.StartDate != want.StartDate || got.EndDate != want.EndDate ||
			got.MainPackageID != want.MainPackageID || len(got.ExecutionEmployeeIDs) != len(want.ExecutionEmployeeIDs) {
			t.Fatalf("service mismatch:\n got %#v\nwant %#v", got, want)
		}
	}
}

func TestDecodePreserved(t *testing.T) {
	if decodePreserved(nil) != nil || decodePreserved([]byte("garbage")) != nil || decodePreserved([]byte(`{}`)) != nil {
		t.Fatalf("malformed snapshots must decode as absent")
	}
	p := decodePreserved([]byte(`{"client":{"name":"Acme"},"services":[{"serviceName":"Ads"}]}`))
	if p == nil || p.Client.Name != "Acme" || len(p.Services) != 1 {
		t.Fatalf("unexpected snapshot %#v", p)
	}
}

func TestCreateClientWithServiceFallsBackToDefaultPackage(t *testing.T) {
	store := newFakeStore()
	store.packages["pkg-a"] = 0
	svc := newTestService(store)

	out, err := svc.CreateClientWithService(context.Background(), Client{Name: "Beta"}, ClientService{ServiceName: "SEO", StartDate: "2025-06-01", MainPackageID: "ghost"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Service.MainPackageID != "pkg-a" || out.Service.ClientID != out.Client.ID || out.Service.Status != ServiceStatusNotStarted {
		t.Fatalf("unexpected service %#v", out.Service)
	}

	if _, err := svc.CreateClientWithService(context.Background(), Client{Name: "Gamma"}, ClientService{}); !errors.Is(err, ErrServiceInvalid) {
		t.Fatalf("expected invalid service, got %v", err)
	}
	if len(store.clients) != 1 {
		t.Fatalf("failed create must not leave a client behind")
	}
}

func TestArchiveAndDeleteClient(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	svc := newTestService(store)

	archived, err := svc.ArchiveClient(context.Background(), client.ID)
	if err != nil || archived.Status != ClientStatusArchived {
		t.Fatalf("archive: %#v %v", archived, err)
	}
	if err := svc.DeleteClient(context.Background(), client.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.services) != 0 || len(store.clients) != 0 {
		t.Fatalf("delete should cascade")
	}
	if err := svc.DeleteClient(context.Background(), client.ID); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateLeadKeepsSnapshot(t *testing.T) {
	store := newFakeStore()
	snap := &PreservedClientData{Client: Client{Name: "Acme"}}
	store.leads["lead-1"] = Lead{ID: "lead-1", Name: "Acme", Stage: LeadStageNegotiation, WasConfirmedClient: true, PreservedClientData: snap}
	svc := newTestService(store)

	updated, err := svc.UpdateLead(context.Background(), "lead-1", func(l *Lead) error {
		l.Stage = "won"
		l.PreservedClientData = nil
		l.WasConfirmedClient = false
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stage != "won" || updated.PreservedClientData == nil || !updated.WasConfirmedClient {
		t.Fatalf("unexpected lead %#v", updated)
	}
}

func TestUpdateDeliverablesLogsProgress(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	svc := newTestService(store)

	items := []Deliverable{
		{Key: "posts", Label: "Posts", Target: 10, Completed: 6},
		{Key: "report", LabelAr: "تقرير", LabelEn: "Report", Target: 1, IsBoolean: true},
	}
	out, err := svc.UpdateDeliverables(context.Background(), "svc-1", "emp-3", items)
	if err != nil {
		t.Fatalf("update deliverables: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected two deliverables, got %d", len(out))
	}
	logs, _ := store.ListActivityLogs(context.Background(), "svc-1")
	if len(logs) != 1 || logs[0].PreviousValue != "4" || logs[0].NewValue != "6" || logs[0].DeliverableID != "d-1" {
		t.Fatalf("expected one progress log, got %#v", logs)
	}
	if out[0].Key != "posts" || out[0].LabelEn != "Posts" {
		t.Fatalf("label fallback not applied: %#v", out[0])
	}

	if _, err := svc.UpdateDeliverables(context.Background(), "svc-404", "", items); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected service not found, got %v", err)
	}
	if _, err := svc.UpdateDeliverables(context.Background(), "svc-1", "", []Deliverable{{Target: 1}}); !errors.Is(err, ErrDeliverableKey) {
		t.Fatalf("expected key error, got %v", err)
	}
}

func TestListServicesAttachesDeliverables(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	svc := newTestService(store)
	services, err := svc.ListServices(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, s := range services {
		if s.Deliverables == nil {
			t.Fatalf("deliverables should never be nil")
		}
		if s.ID == "svc-1" && len(s.Deliverables) != 1 {
			t.Fatalf("expected one deliverable on svc-1")
		}
	}
}
