package ports

import (
	"context"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// SearchRequest describes one round against the place-search backend.
type SearchRequest struct {
	Query        string
	Category     string // structured place type for nearby searches
	Keyword      string // optional keyword hint alongside Category
	Origin       domain.GeoPoint
	RadiusMeters float64
}

// PlaceSearcher is the external text/category search collaborator. Results
// carry whatever fields the backend returned; hours are typically absent
// until enriched through PlaceDetailer.
type PlaceSearcher interface {
	TextSearch(ctx context.Context, req SearchRequest) ([]domain.Place, error)
	NearbySearch(ctx context.Context, req SearchRequest) ([]domain.Place, error)
}

// PlaceDetailer fetches per-place enrichment (hours, address). Partial or
// failed responses are not errors from the pipeline's point of view; the
// caller keeps the fields it already had.
type PlaceDetailer interface {
	Details(ctx context.Context, placeID string) (*domain.Place, error)
}
