package ratelimit

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// NewStore creates a rate limit store for the configured backend.
//
// Backend options:
// - "local": In-memory store (default for single instance)
// - "postgres": PostgreSQL-backed store for multi-instance deployments
//
// The pool parameter is required for the "postgres" backend.
func NewStore(backend string, pool *pgxpool.Pool) (Store, error) {
	switch backend {
	case "local", "":
		log.Info().Msg("Using in-memory rate limit store (single instance mode)")
		return NewMemoryStore(10 * time.Minute), nil

	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("database pool is required for postgres rate limit backend")
		}
		log.Info().Msg("Using PostgreSQL rate limit store (multi-instance mode)")
		return NewPostgresStore(pool, 10*time.Minute), nil

	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s (valid options: local, postgres)", backend)
	}
}
