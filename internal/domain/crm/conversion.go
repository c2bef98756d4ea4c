package crm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"agencyops/internal/platform/db"
)

// decodePreserved reads the snapshot column. Malformed or nameless
// snapshots are treated as absent so the lead converts as an organic one.
func decodePreserved(raw []byte) *PreservedClientData {
	p := db.DecodeJSON[*PreservedClientData](raw, nil)
	if p == nil || strings.TrimSpace(p.Client.Name) == "" {
		return nil
	}
	return p
}

// ConvertLeadToClient turns a lead into a client in one transaction. A lead
// carrying a client snapshot restores that client and its services; any
// other lead yields a new client with one default service. The lead is
// deleted last.
func (s *Service) ConvertLeadToClient(ctx context.Context, leadID string) (Client, error) {
	var client Client
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		lead, err := repo.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.PreservedClientData != nil {
			client, err = s.restoreClient(ctx, repo, lead)
		} else {
			client, err = s.clientFromLead(ctx, repo, lead)
		}
		if err != nil {
			return err
		}
		return repo.DeleteLead(ctx, lead.ID)
	})
	s.Metrics.Cascade("lead_to_client", err)
	if err != nil {
		return Client{}, err
	}
	return client, nil
}

func (s *Service) restoreClient(ctx context.Context, repo Repo, lead Lead) (Client, error) {
	now := s.now()
	snap := lead.PreservedClientData
	createdAt := lead.CreatedAt
	client := snap.Client
	client.ID = s.newID()
	client.Status = ClientStatusActive
	client.ConvertedFromLeadID = lead.ID
	client.LeadCreatedAt = &createdAt
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.SalesOwners == nil {
		client.SalesOwners = []string{}
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		return Client{}, err
	}
	for _, svc := range snap.Services {
		svc.ID = s.newID()
		svc.ClientID = client.ID
		svc.CreatedAt = now
		svc.UpdatedAt = now
		svc.Deliverables = nil
		if svc.ExecutionEmployeeIDs == nil {
			svc.ExecutionEmployeeIDs = []string{}
		}
		if err := repo.CreateService(ctx, svc); err != nil {
			return Client{}, err
		}
	}
	return client, nil
}

func (s *Service) clientFromLead(ctx context.Context, repo Repo, lead Lead) (Client, error) {
	now := s.now()
	createdAt := lead.CreatedAt
	owners := []string{}
	if lead.NegotiatorID != "" {
		owners = append(owners, lead.NegotiatorID)
	}
	var notes []string
	if lead.Notes != "" {
		notes = append(notes, lead.Notes)
	}
	if lead.DealValue != 0 {
		notes = append(notes, fmt.Sprintf("Deal Value: %s %s", formatAmount(lead.DealValue), lead.DealCurrency))
	}
	client := Client{
		ID:                  s.newID(),
		Name:                lead.Name,
		Email:               lead.Email,
		Phone:               lead.Phone,
		Company:             lead.Company,
		Country:             lead.Country,
		Source:              lead.Source,
		Status:              ClientStatusActive,
		SalesOwnerID:        lead.NegotiatorID,
		SalesOwners:         owners,
		ConvertedFromLeadID: lead.ID,
		LeadCreatedAt:       &createdAt,
		Notes:               strings.TrimSpace(strings.Join(notes, "\n\n")),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		return Client{}, err
	}

	pkg, err := repo.DefaultMainPackage(ctx)
	if err != nil {
		return Client{}, err
	}
	if pkg == "" {
		pkg = UnknownPackage
	}
	name := "New Service"
	if lead.DealValue != 0 {
		name = "Converted Deal"
	}
	currency := lead.DealCurrency
	if currency == "" {
		currency = DefaultCurrency
	}
	svc := ClientService{
		ID:                   s.newID(),
		ClientID:             client.ID,
		MainPackageID:        pkg,
		ServiceName:          name,
		ServiceNameEn:        name,
		StartDate:            now.Format(dateLayout),
		Status:               ServiceStatusInProgress,
		Price:                lead.DealValue,
		Currency:             currency,
		SalesEmployeeID:      lead.NegotiatorID,
		ExecutionEmployeeIDs: []string{},
		Notes:                lead.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := repo.CreateService(ctx, svc); err != nil {
		return Client{}, err
	}
	return client, nil
}

// ConvertClientToLead archives a client as a negotiation-stage lead that
// carries a full snapshot of the client and its services, then removes the
// client with the same cascade as a hard delete.
func (s *Service) ConvertClientToLead(ctx context.Context, clientID string) (Lead, error) {
	var lead Lead
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		client, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return err
		}
		services, err := repo.ListServices(ctx, clientID)
		if err != nil {
			return err
		}

		var notes []string
		if client.Notes != "" {
			notes = append(notes, client.Notes)
		}
		if history := serviceHistory(services); history != "" {
			notes = append(notes, history)
		}
		now := s.now()
		lead = Lead{
			ID:                    s.newID(),
			Name:                  client.Name,
			Email:                 client.Email,
			Phone:                 client.Phone,
			Company:               client.Company,
			Country:               client.Country,
			Source:                client.Source,
			Stage:                 LeadStageNegotiation,
			Notes:                 strings.Join(notes, "\n"),
			NegotiatorID:          client.SalesOwnerID,
			WasConfirmedClient:    true,
			ConvertedFromClientID: client.ID,
			PreservedClientData:   &PreservedClientData{Client: client, Services: services},
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := repo.CreateLead(ctx, lead); err != nil {
			return err
		}
		return repo.DeleteClientCascade(ctx, client.ID)
	})
	s.Metrics.Cascade("client_to_lead", err)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func serviceHistory(services []ClientService) string {
	if len(services) == 0 {
		return ""
	}
	lines := make([]string, 0, len(services))
	for _, svc := range services {
		end := svc.EndDate
		if end == "" {
			end = "Ongoing"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s %s [%s - %s]",
			svc.ServiceName, svc.Status, formatAmount(svc.Price), svc.Currency, svc.StartDate, end))
	}
	return "\n\n--- Service History (from Client phase) ---\n" + strings.Join(lines, "\n")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
