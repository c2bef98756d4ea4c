package crm

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencyops/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
	queries
}

type queries struct {
	q db.Querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, queries: queries{q: pool}}
}

func (s *Store) WithTx(ctx context.Context, fn func(Repo) error) error {
	return db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(queries{q: tx})
	})
}

func (s queries) execOne(ctx context.Context, notFound error, sql string, args ...any) error {
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

const clientColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(company, ''), COALESCE(country, ''),
  COALESCE(source, ''), status, COALESCE(sales_owner_id, ''), sales_owners, COALESCE(converted_from_lead_id, ''),
  lead_created_at, COALESCE(notes, ''), created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	var owners []byte
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Country, &c.Source, &c.Status,
		&c.SalesOwnerID, &owners, &c.ConvertedFromLeadID, &c.LeadCreatedAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Client{}, err
	}
	c.SalesOwners = db.DecodeJSON(owners, []string{})
	return c, nil
}

func (s queries) ListClients(ctx context.Context, status string) ([]Client, error) {
	rows, err := s.q.Query(ctx, `SELECT `+clientColumns+`
    FROM clients
    WHERE ($1 = '' OR status = $1)
    ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s queries) GetClient(ctx context.Context, id string) (Client, error) {
	c, err := scanClient(s.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Client{}, ErrClientNotFound
	}
	return c, err
}

func (s queries) CreateClient(ctx context.Context, c Client) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO clients (id, name, email, phone, company, country, source, status, sales_owner_id, sales_owners,
                         converted_from_lead_id, lead_created_at, notes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
  `, c.ID, c.Name, db.NullString(c.Email), db.NullString(c.Phone), db.NullString(c.Company), db.NullString(c.Country),
		db.NullString(c.Source), c.Status, db.NullString(c.SalesOwnerID), db.EncodeJSON(c.SalesOwners, "[]"),
		db.NullString(c.ConvertedFromLeadID), c.LeadCreatedAt, db.NullString(c.Notes), c.CreatedAt)
	return err
}

func (s queries) UpdateClient(ctx context.Context, c Client) error {
	return s.execOne(ctx, ErrClientNotFound, `
    UPDATE clients
    SET name = $1, email = $2, phone = $3, company = $4, country = $5, source = $6, status = $7,
        sales_owner_id = $8, sales_owners = $9, notes = $10, updated_at = $11
    WHERE id = $12
  `, c.Name, db.NullString(c.Email), db.NullString(c.Phone), db.NullString(c.Company), db.NullString(c.Country),
		db.NullString(c.Source), c.Status, db.NullString(c.SalesOwnerID), db.EncodeJSON(c.SalesOwners, "[]"),
		db.NullString(c.Notes), c.UpdatedAt, c.ID)
}

// clientCascade lists the deletes run for a client, in order. Service-owned
// rows go first, then client-level rows, then the client itself.
var clientCascade = []string{
	`DELETE FROM service_deliverables WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM work_activity_logs WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM service_reports WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM client_payments WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM calendar_events WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM transactions WHERE service_id IN (SELECT id FROM client_services WHERE client_id = $1)`,
	`DELETE FROM client_services WHERE client_id = $1`,
	`DELETE FROM client_payments WHERE client_id = $1`,
	`DELETE FROM calendar_events WHERE client_id = $1`,
	`DELETE FROM transactions WHERE client_id = $1`,
	`DELETE FROM invoices WHERE client_id = $1`,
	`DELETE FROM client_users WHERE client_id = $1`,
}

func (s queries) DeleteClientCascade(ctx context.Context, id string) error {
	for _, stmt := range clientCascade {
		if _, err := s.q.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	return s.execOne(ctx, ErrClientNotFound, `DELETE FROM clients WHERE id = $1`, id)
}

const leadColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(company, ''), COALESCE(country, ''),
  COALESCE(source, ''), stage, COALESCE(deal_value, 0)::float8, COALESCE(deal_currency, ''), COALESCE(notes, ''),
  COALESCE(negotiator_id, ''), was_confirmed_client, COALESCE(converted_from_client_id, ''), preserved_client_data,
  created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	var preserved []byte
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Country, &l.Source, &l.Stage,
		&l.DealValue, &l.DealCurrency, &l.Notes, &l.NegotiatorID, &l.WasConfirmedClient, &l.ConvertedFromClientID,
		&preserved, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Lead{}, err
	}
	l.PreservedClientData = decodePreserved(preserved)
	return l, nil
}

func (s queries) ListLeads(ctx context.Context) ([]Lead, error) {
	rows, err := s.q.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s queries) GetLead(ctx context.Context, id string) (Lead, error) {
	l, err := scanLead(s.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Lead{}, ErrLeadNotFound
	}
	return l, err
}

func preservedParam(p *PreservedClientData) any {
	if p == nil {
		return nil
	}
	return db.EncodeJSON(p, "null")
}

func dealValueParam(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func (s queries) CreateLead(ctx context.Context, l Lead) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO leads (id, name, email, phone, company, country, source, stage, deal_value, deal_currency, notes,
                       negotiator_id, was_confirmed_client, converted_from_client_id, preserved_client_data, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
  `, l.ID, l.Name, db.NullString(l.Email), db.NullString(l.Phone), db.NullString(l.Company), db.NullString(l.Country),
		db.NullString(l.Source), l.Stage, dealValueParam(l.DealValue), db.NullString(l.DealCurrency), db.NullString(l.Notes),
		db.NullString(l.NegotiatorID), l.WasConfirmedClient, db.NullString(l.ConvertedFromClientID),
		preservedParam(l.PreservedClientData), l.CreatedAt)
	return err
}

func (s queries) UpdateLead(ctx context.Context, l Lead) error {
	return s.execOne(ctx, ErrLeadNotFound, `
    UPDATE leads
    SET name = $1, email = $2, phone = $3, company = $4, country = $5, source = $6, stage = $7, deal_value = $8,
        deal_currency = $9, notes = $10, negotiator_id = $11, updated_at = $12
    WHERE id = $13
  `, l.Name, db.NullString(l.Email), db.NullString(l.Phone), db.NullString(l.Company), db.NullString(l.Country),
		db.NullString(l.Source), l.Stage, dealValueParam(l.DealValue), db.NullString(l.DealCurrency), db.NullString(l.Notes),
		db.NullString(l.NegotiatorID), l.UpdatedAt, l.ID)
}

func (s queries) DeleteLead(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrLeadNotFound, `DELETE FROM leads WHERE id = $1`, id)
}

const serviceColumns = `id, client_id, main_package_id, COALESCE(sub_package_id, ''), service_name, COALESCE(service_name_en, ''),
  start_date, COALESCE(end_date, ''), status, COALESCE(price, 0)::float8, COALESCE(currency, ''),
  COALESCE(sales_employee_id, ''), execution_employee_ids, COALESCE(notes, ''), completed_at, created_at, updated_at`

func scanService(row pgx.Row) (ClientService, error) {
	var s ClientService
	var execIDs []byte
	err := row.Scan(&s.ID, &s.ClientID, &s.MainPackageID, &s.SubPackageID, &s.ServiceName, &s.ServiceNameEn,
		&s.StartDate, &s.EndDate, &s.Status, &s.Price, &s.Currency, &s.SalesEmployeeID, &execIDs, &s.Notes,
		&s.CompletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return ClientService{}, err
	}
	s.ExecutionEmployeeIDs = db.DecodeJSON(execIDs, []string{})
	return s, nil
}

func (s queries) ListServices(ctx context.Context, clientID string) ([]ClientService, error) {
	rows, err := s.q.Query(ctx, `SELECT `+serviceColumns+`
    FROM client_services
    WHERE ($1 = '' OR client_id = $1)
    ORDER BY created_at`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ClientService{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s queries) GetService(ctx context.Context, id string) (ClientService, error) {
	svc, err := scanService(s.q.QueryRow(ctx, `SELECT `+serviceColumns+` FROM client_services WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return ClientService{}, ErrServiceNotFound
	}
	return svc, err
}

func (s queries) CreateService(ctx context.Context, svc ClientService) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO client_services (id, client_id, main_package_id, sub_package_id, service_name, service_name_en, start_date,
                                 end_date, status, price, currency, sales_employee_id, execution_employee_ids, notes,
                                 completed_at, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
  `, svc.ID, svc.ClientID, svc.MainPackageID, db.NullString(svc.SubPackageID), svc.ServiceName, db.NullString(svc.ServiceNameEn),
		svc.StartDate, db.NullString(svc.EndDate), svc.Status, svc.Price, db.NullString(svc.Currency),
		db.NullString(svc.SalesEmployeeID), db.EncodeJSON(svc.ExecutionEmployeeIDs, "[]"), db.NullString(svc.Notes),
		svc.CompletedAt, svc.CreatedAt)
	return err
}

func (s queries) UpdateService(ctx context.Context, svc ClientService) error {
	return s.execOne(ctx, ErrServiceNotFound, `
    UPDATE client_services
    SET main_package_id = $1, sub_package_id = $2, service_name = $3, service_name_en = $4, start_date = $5,
        end_date = $6, status = $7, price = $8, currency = $9, sales_employee_id = $10, execution_employee_ids = $11,
        notes = $12, completed_at = $13, updated_at = $14
    WHERE id = $15
  `, svc.MainPackageID, db.NullString(svc.SubPackageID), svc.ServiceName, db.NullString(svc.ServiceNameEn), svc.StartDate,
		db.NullString(svc.EndDate), svc.Status, svc.Price, db.NullString(svc.Currency), db.NullString(svc.SalesEmployeeID),
		db.EncodeJSON(svc.ExecutionEmployeeIDs, "[]"), db.NullString(svc.Notes), svc.CompletedAt, svc.UpdatedAt, svc.ID)
}

func (s queries) DeleteService(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM service_deliverables WHERE service_id = $1`, id); err != nil {
		return err
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM work_activity_logs WHERE service_id = $1`, id); err != nil {
		return err
	}
	return s.execOne(ctx, ErrServiceNotFound, `DELETE FROM client_services WHERE id = $1`, id)
}

func (s queries) ListDeliverables(ctx context.Context, serviceIDs []string) ([]Deliverable, error) {
	out := []Deliverable{}
	if len(serviceIDs) == 0 {
		return out, nil
	}
	rows, err := s.q.Query(ctx, `
    SELECT id, service_id, key, label_ar, label_en, target, completed, is_boolean
    FROM service_deliverables
    WHERE service_id = ANY($1)
    ORDER BY created_at
  `, serviceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d Deliverable
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.Key, &d.LabelAr, &d.LabelEn, &d.Target, &d.Completed, &d.IsBoolean); err != nil {
			return nil, err
		}
		d.Label = d.LabelAr
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s queries) UpsertDeliverable(ctx context.Context, d Deliverable) (*Deliverable, error) {
	var prev Deliverable
	err := s.q.QueryRow(ctx, `
    SELECT id, service_id, key, label_ar, label_en, target, completed, is_boolean
    FROM service_deliverables
    WHERE service_id = $1 AND key = $2
    FOR UPDATE
  `, d.ServiceID, d.Key).Scan(&prev.ID, &prev.ServiceID, &prev.Key, &prev.LabelAr, &prev.LabelEn, &prev.Target, &prev.Completed, &prev.IsBoolean)
	if db.IsNoRows(err) {
		_, err = s.q.Exec(ctx, `
      INSERT INTO service_deliverables (id, service_id, key, label_ar, label_en, target, completed, is_boolean)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, d.ID, d.ServiceID, d.Key, d.LabelAr, d.LabelEn, d.Target, d.Completed, d.IsBoolean)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	_, err = s.q.Exec(ctx, `
    UPDATE service_deliverables
    SET label_ar = $1, label_en = $2, target = $3, completed = $4, is_boolean = $5, updated_at = now()
    WHERE id = $6
  `, d.LabelAr, d.LabelEn, d.Target, d.Completed, d.IsBoolean, prev.ID)
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

func (s queries) ListActivityLogs(ctx context.Context, serviceID string) ([]ActivityLog, error) {
	rows, err := s.q.Query(ctx, `
    SELECT id, service_id, COALESCE(deliverable_id, ''), COALESCE(employee_id, ''), action,
           COALESCE(previous_value, ''), COALESCE(new_value, ''), COALESCE(notes, ''), created_at
    FROM work_activity_logs
    WHERE service_id = $1
    ORDER BY created_at DESC
  `, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ActivityLog{}
	for rows.Next() {
		var l ActivityLog
		if err := rows.Scan(&l.ID, &l.ServiceID, &l.DeliverableID, &l.EmployeeID, &l.Action, &l.PreviousValue, &l.NewValue, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s queries) InsertActivityLog(ctx context.Context, l ActivityLog) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO work_activity_logs (id, service_id, deliverable_id, employee_id, action, previous_value, new_value, notes, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, l.ID, l.ServiceID, db.NullString(l.DeliverableID), db.NullString(l.EmployeeID), l.Action,
		db.NullString(l.PreviousValue), db.NullString(l.NewValue), db.NullString(l.Notes), l.CreatedAt)
	return err
}

func (s queries) DefaultMainPackage(ctx context.Context) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `SELECT id FROM main_packages ORDER BY sort_order, name LIMIT 1`).Scan(&id)
	if db.IsNoRows(err) {
		return "", nil
	}
	return id, err
}

func (s queries) MainPackageExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM main_packages WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
