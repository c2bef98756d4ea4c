package crm

import (
	"context"
	"errors"
	"sort"
)

type fakeData struct {
	clients      map[string]Client
	leads        map[string]Lead
	services     map[string]ClientService
	deliverables map[string]Deliverable
	logs         []ActivityLog
	packages     map[string]int
	// owned counts client-scoped rows outside this package (payments,
	// invoices, portal users) that the cascade must remove.
	owned map[string]int
}

func (d fakeData) clone() fakeData {
	out := fakeData{
		clients:      map[string]Client{},
		leads:        map[string]Lead{},
		services:     map[string]ClientService{},
		deliverables: map[string]Deliverable{},
		logs:         append([]ActivityLog(nil), d.logs...),
		packages:     map[string]int{},
		owned:        map[string]int{},
	}
	for k, v := range d.clients {
		out.clients[k] = v
	}
	for k, v := range d.leads {
		out.leads[k] = v
	}
	for k, v := range d.services {
		out.services[k] = v
	}
	for k, v := range d.deliverables {
		out.deliverables[k] = v
	}
	for k, v := range d.packages {
		out.packages[k] = v
	}
	for k, v := range d.owned {
		out.owned[k] = v
	}
	return out
}

type fakeStore struct {
	fakeData
	failCreateService bool
	writes            int
}

var errInjected = errors.New("injected failure")

func newFakeStore() *fakeStore {
	return &fakeStore{fakeData: fakeData{}.clone()}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	snapshot := f.fakeData.clone()
	if err := fn(f); err != nil {
		f.fakeData = snapshot
		return err
	}
	return nil
}

func (f *fakeStore) ListClients(ctx context.Context, status string) ([]Client, error) {
	out := []Client{}
	for _, c := range f.clients {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetClient(ctx context.Context, id string) (Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateClient(ctx context.Context, c Client) error {
	f.writes++
	f.clients[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateClient(ctx context.Context, c Client) error {
	if _, ok := f.clients[c.ID]; !ok {
		return ErrClientNotFound
	}
	f.writes++
	f.clients[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteClientCascade(ctx context.Context, id string) error {
	f.writes++
	for sid, svc := range f.services {
		if svc.ClientID != id {
			continue
		}
		for did, d := range f.deliverables {
			if d.ServiceID == sid {
				delete(f.deliverables, did)
			}
		}
		delete(f.services, sid)
	}
	delete(f.owned, id)
	if _, ok := f.clients[id]; !ok {
		return ErrClientNotFound
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeStore) ListLeads(ctx context.Context) ([]Lead, error) {
	out := []Lead{}
	for _, l := range f.leads {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) GetLead(ctx context.Context, id string) (Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return Lead{}, ErrLeadNotFound
	}
	return l, nil
}

func (f *fakeStore) CreateLead(ctx context.Context, l Lead) error {
	f.writes++
	f.leads[l.ID] = l
	return nil
}

func (f *fakeStore) UpdateLead(ctx context.Context, l Lead) error {
	if _, ok := f.leads[l.ID]; !ok {
		return ErrLeadNotFound
	}
	f.writes++
	f.leads[l.ID] = l
	return nil
}

func (f *fakeStore) DeleteLead(ctx context.Context, id string) error {
	if _, ok := f.leads[id]; !ok {
		return ErrLeadNotFound
	}
	f.writes++
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) ListServices(ctx context.Context, clientID string) ([]ClientService, error) {
	out := []ClientService{}
	for _, s := range f.services {
		if clientID == "" || s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out, nil
}

func (f *fakeStore) GetService(ctx context.Context, id string) (ClientService, error) {
	s, ok := f.services[id]
	if !ok {
		return ClientService{}, ErrServiceNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateService(ctx context.Context, s ClientService) error {
	if f.failCreateService {
		return errInjected
	}
	f.writes++
	f.services[s.ID] = s
	return nil
}

func (f *fakeStore) UpdateService(ctx context.Context, s ClientService) error {
	if _, ok := f.services[s.ID]; !ok {
		return ErrServiceNotFound
	}
	f.writes++
	f.services[s.ID] = s
	return nil
}

func (f *fakeStore) DeleteService(ctx context.Context, id string) error {
	if _, ok := f.services[id]; !ok {
		return ErrServiceNotFound
	}
	f.writes++
	for did, d := range f.deliverables {
		if d.ServiceID == id {
			delete(f.deliverables, did)
		}
	}
	delete(f.services, id)
	return nil
}

func (f *fakeStore) ListDeliverables(ctx context.Context, serviceIDs []string) ([]Deliverable, error) {
	want := map[string]bool{}
	for _, id := range serviceIDs {
		want[id] = true
	}
	out := []Deliverable{}
	for _, d := range f.deliverables {
		if want[d.ServiceID] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStore) UpsertDeliverable(ctx context.Context, d Deliverable) (*Deliverable, error) {
	f.writes++
	for id, existing := range f.deliverables {
		if existing.ServiceID == d.ServiceID && existing.Key == d.Key {
			prev := existing
			d.ID = id
			f.deliverables[id] = d
			return &prev, nil
		}
	}
	f.deliverables[d.ID] = d
	return nil, nil
}

func (f *fakeStore) ListActivityLogs(ctx context.Context, serviceID string) ([]ActivityLog, error) {
	out := []ActivityLog{}
	for _, l := range f.logs {
		if l.ServiceID == serviceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertActivityLog(ctx context.Context, l ActivityLog) error {
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeStore) DefaultMainPackage(ctx context.Context) (string, error) {
	best, bestOrder := "", 0
	for id, order := range f.packages {
		if best == "" || order < bestOrder || (order == bestOrder && id < best) {
			best, bestOrder = id, order
		}
	}
	return best, nil
}

func (f *fakeStore) MainPackageExists(ctx context.Context, id string) (bool, error) {
	_, ok := f.packages[id]
	return ok, nil
}
