package employees

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

const employeeColumns = `id, name, COALESCE(name_en, ''), email, COALESCE(phone, ''), COALESCE(role_id, ''),
  COALESCE(department, ''), COALESCE(job_title, ''), salary_type, salary_amount::float8, salary_currency,
  start_date, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.NameEn, &e.Email, &e.Phone, &e.RoleID, &e.Department, &e.JobTitle,
		&e.SalaryType, &e.SalaryAmount, &e.SalaryCurrency, &e.StartDate, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s queries) ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	rows, err := s.q.Query(ctx, `SELECT `+employeeColumns+`
    FROM employees
    WHERE (NOT $1 OR is_active)
    ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s queries) GetEmployee(ctx context.Context, id string) (Employee, error) {
	e, err := scanEmployee(s.q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (s queries) CreateEmployee(ctx context.Context, e Employee) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO employees (id, name, name_en, email, phone, role_id, department, job_title, salary_type,
                           salary_amount, salary_currency, start_date, is_active, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
  `, e.ID, e.Name, db.NullString(e.NameEn), e.Email, db.NullString(e.Phone), db.NullString(e.RoleID),
		db.NullString(e.Department), db.NullString(e.JobTitle), e.SalaryType, e.SalaryAmount, e.SalaryCurrency,
		e.StartDate, e.IsActive, e.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s queries) UpdateEmployee(ctx context.Context, e Employee) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE employees
    SET name = $1, name_en = $2, email = $3, phone = $4, role_id = $5, department = $6, job_title = $7,
        salary_type = $8, salary_amount = $9, salary_currency = $10, start_date = $11, is_active = $12,
        updated_at = $13
    WHERE id = $14
  `, e.Name, db.NullString(e.NameEn), e.Email, db.NullString(e.Phone), db.NullString(e.RoleID),
		db.NullString(e.Department), db.NullString(e.JobTitle), e.SalaryType, e.SalaryAmount, e.SalaryCurrency,
		e.StartDate, e.IsActive, e.UpdatedAt, e.ID)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s queries) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM employee_salaries WHERE employee_id = $1`, id); err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
