package calendar

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencyops/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
	q  db.Querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, q: pool}
}

const eventColumns = `id, source, event_type, title_ar, COALESCE(title_en, ''), date, COALESCE(time, ''), status, priority,
  COALESCE(client_id, ''), COALESCE(service_id, ''), COALESCE(employee_id, ''), COALESCE(notes, ''), created_at, updated_at`

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Source, &e.EventType, &e.TitleAr, &e.TitleEn, &e.Date, &e.Time, &e.Status, &e.Priority,
		&e.ClientID, &e.ServiceID, &e.EmployeeID, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) ListEvents(ctx context.Context, f Filter) ([]Event, error) {
	rows, err := s.q.Query(ctx, `SELECT `+eventColumns+`
    FROM calendar_events
    WHERE ($1 = '' OR date >= $1)
      AND ($2 = '' OR date <= $2)
      AND ($3 = '' OR event_type = $3)
      AND ($4 = '' OR status = $4)
      AND ($5 = '' OR client_id = $5)
      AND ($6 = '' OR employee_id = $6)
    ORDER BY date DESC, time DESC NULLS LAST`,
		f.StartDate, f.EndDate, f.EventType, f.Status, f.ClientID, f.EmployeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	e, err := scanEvent(s.q.QueryRow(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Event{}, ErrEventNotFound
	}
	return e, err
}

func (s *Store) CreateEvent(ctx context.Context, e Event) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO calendar_events (id, source, event_type, title_ar, title_en, date, time, status, priority,
      client_id, service_id, employee_id, notes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
  `, e.ID, e.Source, e.EventType, e.TitleAr, db.NullString(e.TitleEn), e.Date, db.NullString(e.Time), e.Status, e.Priority,
		db.NullString(e.ClientID), db.NullString(e.ServiceID), db.NullString(e.EmployeeID), db.NullString(e.Notes), e.CreatedAt)
	return err
}

func (s *Store) UpdateEvent(ctx context.Context, e Event) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE calendar_events
    SET source = $1, event_type = $2, title_ar = $3, title_en = $4, date = $5, time = $6, status = $7, priority = $8,
        client_id = $9, service_id = $10, employee_id = $11, notes = $12, updated_at = $13
    WHERE id = $14
  `, e.Source, e.EventType, e.TitleAr, db.NullString(e.TitleEn), e.Date, db.NullString(e.Time), e.Status, e.Priority,
		db.NullString(e.ClientID), db.NullString(e.ServiceID), db.NullString(e.EmployeeID), db.NullString(e.Notes),
		e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}
