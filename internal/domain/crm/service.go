package crm

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencyops/internal/platform/metrics"
)

const dateLayout = "2006-01-02"

type Service struct {
	Store   StoreAPI
	Metrics *metrics.Collector
	now     func() time.Time
	newID   func() string
}

func NewService(store StoreAPI, collector *metrics.Collector) *Service {
	return &Service{Store: store, Metrics: collector, now: time.Now, newID: uuid.NewString}
}

func (s *Service) ListClients(ctx context.Context, status string) ([]Client, error) {
	return s.Store.ListClients(ctx, status)
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	return s.Store.GetClient(ctx, id)
}

func (s *Service) prepareClient(c *Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	if c.SalesOwners == nil {
		c.SalesOwners = []string{}
	}
	return nil
}

func (s *Service) CreateClient(ctx context.Context, c Client) (Client, error) {
	if err := s.prepareClient(&c); err != nil {
		return Client{}, err
	}
	now := s.now()
	c.ID = s.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.Store.CreateClient(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// UpdateClient loads the client, lets apply overlay the changes and writes
// the result. Identity and conversion fields cannot be changed by apply.
func (s *Service) UpdateClient(ctx context.Context, id string, apply func(*Client) error) (Client, error) {
	var out Client
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetClient(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID = current.ID
		next.ConvertedFromLeadID = current.ConvertedFromLeadID
		next.LeadCreatedAt = current.LeadCreatedAt
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = s.now()
		if err := s.prepareClient(&next); err != nil {
			return err
		}
		out = next
		return repo.UpdateClient(ctx, next)
	})
	return out, err
}

func (s *Service) ArchiveClient(ctx context.Context, id string) (Client, error) {
	return s.UpdateClient(ctx, id, func(c *Client) error {
		c.Status = ClientStatusArchived
		return nil
	})
}

// DeleteClient removes a client and everything it owns in one transaction.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetClient(ctx, id); err != nil {
			return err
		}
		return repo.DeleteClientCascade(ctx, id)
	})
	s.Metrics.Cascade("client_delete", err)
	return err
}

// CreateClientWithService creates a client and its first service together.
func (s *Service) CreateClientWithService(ctx context.Context, c Client, svc ClientService) (ClientWithService, error) {
	if err := s.prepareClient(&c); err != nil {
		return ClientWithService{}, err
	}
	var out ClientWithService
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		now := s.now()
		c.ID = s.newID()
		c.CreatedAt, c.UpdatedAt = now, now
		if err := repo.CreateClient(ctx, c); err != nil {
			return err
		}
		svc.ClientID = c.ID
		created, err := s.createService(ctx, repo, svc)
		if err != nil {
			return err
		}
		out = ClientWithService{Client: c, Service: created}
		return nil
	})
	return out, err
}

func (s *Service) ListLeads(ctx context.Context) ([]Lead, error) {
	return s.Store.ListLeads(ctx)
}

func (s *Service) GetLead(ctx context.Context, id string) (Lead, error) {
	return s.Store.GetLead(ctx, id)
}

func (s *Service) CreateLead(ctx context.Context, l Lead) (Lead, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return Lead{}, ErrNameRequired
	}
	if l.Stage == "" {
		l.Stage = LeadStageNew
	}
	now := s.now()
	l.ID = s.newID()
	l.CreatedAt, l.UpdatedAt = now, now
	l.WasConfirmedClient = false
	l.ConvertedFromClientID = ""
	l.PreservedClientData = nil
	if err := s.Store.CreateLead(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

// UpdateLead overlays changes on the stored lead. The conversion snapshot
// is owned by the conversion workflows and is never replaced here.
func (s *Service) UpdateLead(ctx context.Context, id string, apply func(*Lead) error) (Lead, error) {
	var out Lead
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetLead(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID = current.ID
		next.WasConfirmedClient = current.WasConfirmedClient
		next.ConvertedFromClientID = current.ConvertedFromClientID
		next.PreservedClientData = current.PreservedClientData
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = s.now()
		next.Name = strings.TrimSpace(next.Name)
		if next.Name == "" {
			return ErrNameRequired
		}
		out = next
		return repo.UpdateLead(ctx, next)
	})
	return out, err
}

func (s *Service) DeleteLead(ctx context.Context, id string) error {
	return s.Store.DeleteLead(ctx, id)
}

// ListServices returns services with their deliverables attached.
func (s *Service) ListServices(ctx context.Context, clientID string) ([]ClientService, error) {
	services, err := s.Store.ListServices(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return services, nil
	}
	ids := make([]string, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	deliverables, err := s.Store.ListDeliverables(ctx, ids)
	if err != nil {
		return nil, err
	}
	byService := map[string][]Deliverable{}
	for _, d := range deliverables {
		byService[d.ServiceID] = append(byService[d.ServiceID], d)
	}
	for i := range services {
		services[i].Deliverables = byService[services[i].ID]
		if services[i].Deliverables == nil {
			services[i].Deliverables = []Deliverable{}
		}
	}
	return services, nil
}

func (s *Service) CreateService(ctx context.Context, svc ClientService) (ClientService, error) {
	var out ClientService
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetClient(ctx, svc.ClientID); err != nil {
			return err
		}
		created, err := s.createService(ctx, repo, svc)
		out = created
		return err
	})
	return out, err
}

// createService falls back to the default main package when the requested
// one is missing or unknown.
func (s *Service) createService(ctx context.Context, repo Repo, svc ClientService) (ClientService, error) {
	if strings.TrimSpace(svc.ServiceName) == "" || strings.TrimSpace(svc.StartDate) == "" {
		return ClientService{}, ErrServiceInvalid
	}
	pkg := strings.TrimSpace(svc.MainPackageID)
	if pkg != "" && pkg != UnknownPackage {
		ok, err := repo.MainPackageExists(ctx, pkg)
		if err != nil {
			return ClientService{}, err
		}
		if !ok {
			pkg = ""
		}
	}
	if pkg == "" || pkg == UnknownPackage {
		fallback, err := repo.DefaultMainPackage(ctx)
		if err != nil {
			return ClientService{}, err
		}
		pkg = fallback
		if pkg == "" {
			pkg = UnknownPackage
		}
	}
	now := s.now()
	svc.ID = s.newID()
	svc.MainPackageID = pkg
	if svc.Status == "" {
		svc.Status = ServiceStatusNotStarted
	}
	if svc.ExecutionEmployeeIDs == nil {
		svc.ExecutionEmployeeIDs = []string{}
	}
	svc.Deliverables = nil
	svc.CreatedAt, svc.UpdatedAt = now, now
	if err := repo.CreateService(ctx, svc); err != nil {
		return ClientService{}, err
	}
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, apply func(*ClientService) error) (ClientService, error) {
	var out ClientService
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.GetService(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID = current.ID
		next.ClientID = current.ClientID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = s.now()
		next.Deliverables = nil
		if next.MainPackageID == "" {
			next.MainPackageID = current.MainPackageID
		}
		if strings.TrimSpace(next.ServiceName) == "" || strings.TrimSpace(next.StartDate) == "" {
			return ErrServiceInvalid
		}
		if next.Status == "completed" && current.Status != "completed" && next.CompletedAt == nil {
			at := next.UpdatedAt
			next.CompletedAt = &at
		}
		out = next
		return repo.UpdateService(ctx, next)
	})
	return out, err
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(repo Repo) error {
		return repo.DeleteService(ctx, id)
	})
}

// UpdateDeliverables upserts deliverables by key in one transaction and logs
// every change of a completed counter.
func (s *Service) UpdateDeliverables(ctx context.Context, serviceID, employeeID string, items []Deliverable) ([]Deliverable, error) {
	for _, d := range items {
		if strings.TrimSpace(d.Key) == "" {
			return nil, ErrDeliverableKey
		}
	}
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		if _, err := repo.GetService(ctx, serviceID); err != nil {
			return err
		}
		for _, d := range items {
			d.ID = s.newID()
			d.ServiceID = serviceID
			if d.LabelAr == "" {
				d.LabelAr = d.Label
			}
			if d.LabelEn == "" {
				d.LabelEn = d.Label
			}
			prev, err := repo.UpsertDeliverable(ctx, d)
			if err != nil {
				return err
			}
			deliverableID := d.ID
			previous := "0"
			if prev != nil {
				if prev.Completed == d.Completed {
					continue
				}
				deliverableID = prev.ID
				previous = strconv.Itoa(prev.Completed)
			} else if d.Completed == 0 {
				continue
			}
			if err := repo.InsertActivityLog(ctx, ActivityLog{
				ID:            s.newID(),
				ServiceID:     serviceID,
				DeliverableID: deliverableID,
				EmployeeID:    employeeID,
				Action:        "deliverable_progress",
				PreviousValue: previous,
				NewValue:      strconv.Itoa(d.Completed),
				CreatedAt:     s.now(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Store.ListDeliverables(ctx, []string{serviceID})
}

func (s *Service) ListActivityLogs(ctx context.Context, serviceID string) ([]ActivityLog, error) {
	return s.Store.ListActivityLogs(ctx, serviceID)
}
