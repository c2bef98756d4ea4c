package catalog

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

const mainColumns = `id, name, name_en, COALESCE(icon, ''), COALESCE(description, ''), COALESCE(description_en, ''),
  sort_order, is_active, created_at, updated_at`

func scanMain(row pgx.Row) (MainPackage, error) {
	var p MainPackage
	err := row.Scan(&p.ID, &p.Name, &p.NameEn, &p.Icon, &p.Description, &p.DescriptionEn, &p.Order, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s queries) ListMainPackages(ctx context.Context) ([]MainPackage, error) {
	rows, err := s.q.Query(ctx, `SELECT `+mainColumns+` FROM main_packages ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MainPackage{}
	for rows.Next() {
		p, err := scanMain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s queries) GetMainPackage(ctx context.Context, id string) (MainPackage, error) {
	p, err := scanMain(s.q.QueryRow(ctx, `SELECT `+mainColumns+` FROM main_packages WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return MainPackage{}, ErrPackageNotFound
	}
	return p, err
}

func (s queries) CreateMainPackage(ctx context.Context, p MainPackage) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO main_packages (id, name, name_en, icon, description, description_en, sort_order, is_active, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
  `, p.ID, p.Name, p.NameEn, db.NullString(p.Icon), db.NullString(p.Description), db.NullString(p.DescriptionEn),
		p.Order, p.IsActive, p.CreatedAt)
	return err
}

func (s queries) UpdateMainPackage(ctx context.Context, p MainPackage) error {
	return s.execOne(ctx, ErrPackageNotFound, `
    UPDATE main_packages
    SET name = $1, name_en = $2, icon = $3, description = $4, description_en = $5, sort_order = $6,
        is_active = $7, updated_at = $8
    WHERE id = $9
  `, p.Name, p.NameEn, db.NullString(p.Icon), db.NullString(p.Description), db.NullString(p.DescriptionEn),
		p.Order, p.IsActive, p.UpdatedAt, p.ID)
}

func (s queries) DeleteMainPackage(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrPackageNotFound, `DELETE FROM main_packages WHERE id = $1`, id)
}

func (s queries) DeleteSubPackagesOf(ctx context.Context, mainPackageID string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM sub_packages WHERE main_package_id = $1`, mainPackageID)
	return err
}

const subColumns = `id, main_package_id, name, name_en, price::float8, currency, billing_type, COALESCE(description, ''),
  COALESCE(description_en, ''), COALESCE(duration, ''), deliverables, is_active, sort_order, created_at, updated_at`

func scanSub(row pgx.Row) (SubPackage, error) {
	var p SubPackage
	var deliverables []byte
	err := row.Scan(&p.ID, &p.MainPackageID, &p.Name, &p.NameEn, &p.Price, &p.Currency, &p.BillingType,
		&p.Description, &p.DescriptionEn, &p.Duration, &deliverables, &p.IsActive, &p.Order, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return SubPackage{}, err
	}
	p.Deliverables = db.DecodeJSON(deliverables, []DeliverableTemplate{})
	return p, nil
}

func (s queries) ListSubPackages(ctx context.Context, mainPackageID string) ([]SubPackage, error) {
	rows, err := s.q.Query(ctx, `SELECT `+subColumns+`
    FROM sub_packages
    WHERE ($1 = '' OR main_package_id = $1)
    ORDER BY sort_order, name`, mainPackageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SubPackage{}
	for rows.Next() {
		p, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s queries) GetSubPackage(ctx context.Context, id string) (SubPackage, error) {
	p, err := scanSub(s.q.QueryRow(ctx, `SELECT `+subColumns+` FROM sub_packages WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return SubPackage{}, ErrSubPackageNotFound
	}
	return p, err
}

func (s queries) CreateSubPackage(ctx context.Context, p SubPackage) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO sub_packages (id, main_package_id, name, name_en, price, currency, billing_type, description,
                              description_en, duration, deliverables, is_active, sort_order, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
  `, p.ID, p.MainPackageID, p.Name, p.NameEn, p.Price, p.Currency, p.BillingType, db.NullString(p.Description),
		db.NullString(p.DescriptionEn), db.NullString(p.Duration), db.EncodeJSON(p.Deliverables, "[]"), p.IsActive,
		p.Order, p.CreatedAt)
	return err
}

func (s queries) UpdateSubPackage(ctx context.Context, p SubPackage) error {
	return s.execOne(ctx, ErrSubPackageNotFound, `
    UPDATE sub_packages
    SET main_package_id = $1, name = $2, name_en = $3, price = $4, currency = $5, billing_type = $6,
        description = $7, description_en = $8, duration = $9, deliverables = $10, is_active = $11,
        sort_order = $12, updated_at = $13
    WHERE id = $14
  `, p.MainPackageID, p.Name, p.NameEn, p.Price, p.Currency, p.BillingType, db.NullString(p.Description),
		db.NullString(p.DescriptionEn), db.NullString(p.Duration), db.EncodeJSON(p.Deliverables, "[]"), p.IsActive,
		p.Order, p.UpdatedAt, p.ID)
}

func (s queries) DeleteSubPackage(ctx context.Context, id string) error {
	return s.execOne(ctx, ErrSubPackageNotFound, `DELETE FROM sub_packages WHERE id = $1`, id)
}
