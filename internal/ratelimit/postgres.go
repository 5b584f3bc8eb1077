package ratelimit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore implements Store using PostgreSQL.
// This is suitable for multi-instance deployments without requiring any
// infrastructure beyond the job database. It uses UPSERT with ON CONFLICT
// to atomically increment counters.
//
// The store uses the rate_limits table created by the schema migrations.
type PostgresStore struct {
	pool       *pgxpool.Pool
	gcInterval time.Duration
	stopCh     chan struct{}
}

// NewPostgresStore creates a new PostgreSQL-backed rate limit store.
// gcInterval specifies how often expired rows are cleaned up.
func NewPostgresStore(pool *pgxpool.Pool, gcInterval time.Duration) *PostgresStore {
	if gcInterval <= 0 {
		gcInterval = 10 * time.Minute
	}

	store := &PostgresStore{
		pool:       pool,
		gcInterval: gcInterval,
		stopCh:     make(chan struct{}),
	}

	go store.gc()

	return store
}

// Get retrieves the current count for a key.
func (s *PostgresStore) Get(ctx context.Context, key string) (int64, time.Time, error) {
	var count int64
	var expiresAt time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT count, expires_at
		FROM rate_limits
		WHERE key = $1 AND expires_at > NOW()
	`, key).Scan(&count, &expiresAt)

	if err != nil {
		// Not found is not an error - return zero count
		return 0, time.Time{}, nil
	}

	return count, expiresAt, nil
}

// Increment atomically increments the counter for a key.
// Uses PostgreSQL's UPSERT to handle concurrent access safely.
func (s *PostgresStore) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	expiresAt := time.Now().Add(expiration)

	var count int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rate_limits (key, count, expires_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.expires_at <= NOW() THEN 1
				ELSE rate_limits.count + 1
			END,
			expires_at = CASE
				WHEN rate_limits.expires_at <= NOW() THEN $2
				ELSE rate_limits.expires_at
			END
		RETURNING count
	`, key, expiresAt).Scan(&count)

	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to increment rate limit counter")
		return 0, err
	}

	return count, nil
}

// Reset resets the counter for a key.
func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM rate_limits WHERE key = $1
	`, key)
	return err
}

// Close stops the cleanup goroutine. The connection pool is not owned
// by the store and stays open.
func (s *PostgresStore) Close() error {
	close(s.stopCh)
	return nil
}

// gc periodically removes expired rows, mirroring the memory store's
// in-process garbage collection.
func (s *PostgresStore) gc() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := s.Cleanup(ctx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to clean up expired rate limit rows")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("rows", removed).Msg("Cleaned up expired rate limit rows")
			}
		}
	}
}

// Cleanup removes expired entries from the rate_limits table.
func (s *PostgresStore) Cleanup(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM rate_limits WHERE expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
