package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiome/agentcore/internal/port/database"
)

// Store implements the database.Store port on top of a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ database.Store = (*Store)(nil)

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
