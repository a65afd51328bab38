package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pointlab/poinavi/internal/core/ports"
)

// SearchLogRepo implements ports.SearchLogRepository with pgx.
type SearchLogRepo struct {
	db *DB
}

// NewSearchLogRepo creates a new SearchLogRepo.
func NewSearchLogRepo(db *DB) *SearchLogRepo {
	return &SearchLogRepo{db: db}
}

// Insert persists one search analytics row.
func (r *SearchLogRepo) Insert(ctx context.Context, entry *ports.SearchLogEntry) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO search_log (searched_at, query, category, alternate_query, origin_lat, origin_lon, results, retried, cache_hit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.Time, entry.Query, entry.Category, entry.AlternateQuery,
		entry.Origin.Lat, entry.Origin.Lon, entry.Results, entry.Retried, entry.CacheHit)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// CountSince returns the number of searches recorded at or after the cutoff.
func (r *SearchLogRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM search_log WHERE searched_at >= $1
	`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count search log: %w", err)
	}
	return n, nil
}
