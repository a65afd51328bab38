package ports

import (
	"context"
	"time"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// TagRepository persists custom search tags and default-tag soft deletions.
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id string) error
	ListCustom(ctx context.Context) ([]domain.Tag, error)
	// Deleted default tags are tracked by ID so they can be hidden without
	// touching the built-in set.
	MarkDefaultDeleted(ctx context.Context, id string) error
	ListDeletedDefaults(ctx context.Context) ([]string, error)
}

// SearchLogEntry is one persisted analytics row.
type SearchLogEntry struct {
	Time           time.Time       `json:"time"`
	Query          string          `json:"query,omitempty"`
	Category       string          `json:"category,omitempty"`
	AlternateQuery string          `json:"alternate_query,omitempty"`
	Origin         domain.GeoPoint `json:"origin"`
	Results        int             `json:"results"`
	Retried        bool            `json:"retried"`
	CacheHit       bool            `json:"cache_hit"`
}

// SearchLogRepository persists search analytics events.
type SearchLogRepository interface {
	Insert(ctx context.Context, entry *SearchLogEntry) error
	CountSince(ctx context.Context, since time.Time) (int, error)
}
