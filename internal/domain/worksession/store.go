package worksession

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

const sessionColumns = `id, employee_id, date, segments, COALESCE(notes, ''), created_at, updated_at`

func scanSession(row pgx.Row) (Session, error) {
	var (
		s   Session
		raw []byte
	)
	if err := row.Scan(&s.ID, &s.EmployeeID, &s.Date, &raw, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Session{}, err
	}
	s.Segments = db.DecodeJSON(raw, []Segment{})
	derive(&s)
	return s, nil
}

func (s queries) ListSessions(ctx context.Context, f Filter) ([]Session, error) {
	rows, err := s.q.Query(ctx, `SELECT `+sessionColumns+`
    FROM work_sessions
    WHERE ($1 = '' OR employee_id = $1)
      AND ($2 = '' OR date = $2)
      AND ($3 = '' OR date >= $3)
      AND ($4 = '' OR date <= $4)
    ORDER BY date DESC, employee_id`, f.EmployeeID, f.Date, f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s queries) GetSession(ctx context.Context, id string) (Session, error) {
	session, err := scanSession(s.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM work_sessions WHERE id = $1 FOR UPDATE`, id))
	if db.IsNoRows(err) {
		return Session{}, ErrSessionNotFound
	}
	return session, err
}

func (s queries) SessionFor(ctx context.Context, employeeID, date string) (Session, error) {
	session, err := scanSession(s.q.QueryRow(ctx, `SELECT `+sessionColumns+`
    FROM work_sessions WHERE employee_id = $1 AND date = $2 FOR UPDATE`, employeeID, date))
	if db.IsNoRows(err) {
		return Session{}, ErrSessionNotFound
	}
	return session, err
}

func (s queries) CreateSession(ctx context.Context, session Session) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO work_sessions (id, employee_id, date, segments, total_duration, break_duration, notes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, session.ID, session.EmployeeID, session.Date, db.EncodeJSON(session.Segments, "[]"), session.TotalDuration,
		session.BreakDuration, db.NullString(session.Notes), session.CreatedAt, session.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrSessionExists
	}
	return err
}

func (s queries) UpdateSession(ctx context.Context, session Session) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE work_sessions
    SET segments = $1, total_duration = $2, break_duration = $3, notes = $4, updated_at = $5
    WHERE id = $6
  `, db.EncodeJSON(session.Segments, "[]"), session.TotalDuration, session.BreakDuration,
		db.NullString(session.Notes), session.UpdatedAt, session.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s queries) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM work_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
