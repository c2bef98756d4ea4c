package notifications

import (
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
