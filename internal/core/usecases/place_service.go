package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/hours"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/core/search"
	"github.com/pointlab/poinavi/internal/pkg/geospatial"
)

const (
	defaultResultCount = 3
	maxResultCount     = 20
	defaultRadius      = 3000 // meters
	cacheTTLSeconds    = 600
)

// SearchParams carries one search request through the pipeline.
type SearchParams struct {
	Query        string
	Category     string
	Origin       domain.GeoPoint
	RadiusMeters float64
	Limit        int
	OpenOnly     bool
}

// SearchResponse is the finalized, ranked, status-annotated result list.
// Viewport is the bounding box a map consumer should fit to show the
// origin and every result.
type SearchResponse struct {
	Results        []domain.RankedResult `json:"results"`
	Viewport       domain.Bounds         `json:"viewport"`
	Query          string                `json:"query,omitempty"`
	Category       string                `json:"category,omitempty"`
	AlternateQuery string                `json:"alternate_query,omitempty"`
	Retried        bool                  `json:"retried"`
	CacheHit       bool                  `json:"cache_hit"`
}

// PlaceService runs the place-search pipeline: search, alternate-query
// retry, relevance reranking, detail enrichment, availability resolution,
// and display limiting.
type PlaceService struct {
	searcher  ports.PlaceSearcher
	detailer  ports.PlaceDetailer
	cache     ports.CacheService
	publisher ports.EventPublisher
	resolver  *hours.Resolver
	clock     ports.Clock
}

// NewPlaceService creates a PlaceService. cache, publisher, and detailer may
// be nil; the pipeline degrades gracefully without them.
func NewPlaceService(
	searcher ports.PlaceSearcher,
	detailer ports.PlaceDetailer,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	resolver *hours.Resolver,
	clock ports.Clock,
) *PlaceService {
	return &PlaceService{
		searcher:  searcher,
		detailer:  detailer,
		cache:     cache,
		publisher: publisher,
		resolver:  resolver,
		clock:     clock,
	}
}

// SearchByText runs a free-text search with at most one alternate-query
// retry round. Zero results from both rounds yield an empty response, not
// an error.
func (s *PlaceService) SearchByText(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	if p.Query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	p = p.withDefaults()

	if resp, ok := s.fromCache(ctx, p, cacheKey("q", p.Query, p.Origin, p.Limit)); ok {
		return resp, nil
	}

	req := ports.SearchRequest{Query: p.Query, Origin: p.Origin, RadiusMeters: p.RadiusMeters}
	places, err := s.searcher.TextSearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	cands := search.ComputeDistances(p.Origin, places)
	search.SortByDistance(cands)

	resp := &SearchResponse{Query: p.Query}

	// At most one retry round, issued sequentially: the decision depends on
	// the first round's results.
	if search.NeedsRetry(p.Query, cands, p.Limit) {
		if alt := search.DeriveAlternateQuery(p.Query); alt != "" {
			resp.AlternateQuery = alt
			resp.Retried = true

			retryReq := req
			retryReq.Query = alt
			retryPlaces, retryErr := s.searcher.TextSearch(ctx, retryReq)
			if retryErr != nil {
				slog.Warn("alternate-query search failed", "query", alt, "error", retryErr)
			}
			retryCands := search.ComputeDistances(p.Origin, retryPlaces)

			if len(cands) == 0 {
				// First round was empty: take the retry round as-is.
				search.SortByDistance(retryCands)
				cands = retryCands
			} else {
				cands = search.MergeRetryResults(cands, retryCands, p.Query, alt)
			}
		}
	}

	preRanked := resp.Retried && len(cands) > 0
	if !resp.Retried {
		cands, preRanked = search.PartitionByRelevance(cands, p.Query)
	}

	resp.Results = s.finalize(ctx, cands, p, preRanked)
	resp.Viewport = viewport(p.Origin, resp.Results)

	s.toCache(ctx, cacheKey("q", p.Query, p.Origin, p.Limit), cands)
	s.publish(ctx, p, resp)
	return resp, nil
}

// SearchByCategory runs a structured nearby search for a tag's place type,
// keeping only candidates that actually carry the type.
func (s *PlaceService) SearchByCategory(ctx context.Context, tag domain.Tag, p SearchParams) (*SearchResponse, error) {
	if tag.IsCustom || tag.PlaceType == "" {
		// Custom tags have no structured type: search their name as text.
		p.Query = tag.Name
		return s.SearchByText(ctx, p)
	}
	p = p.withDefaults()
	p.Category = tag.PlaceType

	if resp, ok := s.fromCache(ctx, p, cacheKey("cat", tag.PlaceType, p.Origin, p.Limit)); ok {
		return resp, nil
	}

	places, err := s.searcher.NearbySearch(ctx, ports.SearchRequest{
		Category:     tag.PlaceType,
		Keyword:      tag.Keyword,
		Origin:       p.Origin,
		RadiusMeters: p.RadiusMeters,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	// The backend matches categories loosely; drop anything that does not
	// actually carry the requested type.
	filtered := places[:0]
	for i := range places {
		if places[i].HasType(tag.PlaceType) {
			filtered = append(filtered, places[i])
		}
	}

	cands := search.ComputeDistances(p.Origin, filtered)
	search.SortByDistance(cands)

	resp := &SearchResponse{Category: tag.PlaceType}
	resp.Results = s.finalize(ctx, cands, p, false)
	resp.Viewport = viewport(p.Origin, resp.Results)

	s.toCache(ctx, cacheKey("cat", tag.PlaceType, p.Origin, p.Limit), cands)
	s.publish(ctx, p, resp)
	return resp, nil
}

// finalize enriches, resolves availability, and applies the display limit.
func (s *PlaceService) finalize(ctx context.Context, cands []search.Candidate, p SearchParams, preRanked bool) []domain.RankedResult {
	cands = s.enrich(ctx, cands, p.Limit)

	weekday, minutes := s.clock.Now()
	now := hours.PointInTime{Weekday: weekday, MinutesSinceMidnight: minutes}

	results := make([]domain.RankedResult, len(cands))
	for i, c := range cands {
		rank := 1
		if p.Query != "" && search.IsResultSetRelevant(p.Query, []search.Candidate{c}, 1) {
			rank = 0
		}
		results[i] = domain.RankedResult{
			Place:          c.Place,
			DistanceMeters: c.DistanceMeters,
			RelevanceRank:  rank,
			Availability:   s.resolver.Resolve(c.Place.Hours, now),
			TravelMinutes:  search.EstimateTravelMinutes(c.DistanceMeters),
		}
	}

	return search.Limit(results, p.Limit, p.OpenOnly, preRanked)
}

// enrich fetches details for the top display-count candidates in parallel.
// The output slice is indexed by input position so completion order never
// affects ordering, and a failed fetch leaves the candidate untouched.
func (s *PlaceService) enrich(ctx context.Context, cands []search.Candidate, limit int) []search.Candidate {
	if s.detailer == nil || len(cands) == 0 {
		return cands
	}
	n := limit
	if n > len(cands) {
		n = len(cands)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			detail, err := s.detailer.Details(ctx, cands[idx].Place.ID)
			if err != nil || detail == nil {
				if err != nil {
					slog.Debug("detail enrichment failed", "place_id", cands[idx].Place.ID, "error", err)
				}
				return
			}
			if detail.Hours != nil {
				cands[idx].Place.Hours = detail.Hours
			}
			if detail.Address != "" {
				cands[idx].Place.Address = detail.Address
			}
			if detail.Rating != 0 {
				cands[idx].Place.Rating = detail.Rating
			}
		}(i)
	}
	wg.Wait()
	return cands
}

func (p SearchParams) withDefaults() SearchParams {
	if p.Limit <= 0 || p.Limit > maxResultCount {
		p.Limit = defaultResultCount
	}
	if p.RadiusMeters <= 0 {
		p.RadiusMeters = defaultRadius
	}
	return p
}

// cacheKey rounds coordinates to ~11 m so nearby queries share entries;
// a larger move produces a new key, which stands in for the original
// move-threshold invalidation.
func cacheKey(kind, term string, origin domain.GeoPoint, limit int) string {
	return fmt.Sprintf("places:%s:%s:%.4f:%.4f:%d", kind, term, origin.Lat, origin.Lon, limit)
}

// fromCache rebuilds a response from cached candidates. Availability is
// re-resolved against the current time: it is a pure function of
// (hours, now), so stale place data against a fresh now stays safe.
func (s *PlaceService) fromCache(ctx context.Context, p SearchParams, key string) (*SearchResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cands []search.Candidate
	if err := json.Unmarshal(data, &cands); err != nil {
		return nil, false
	}

	weekday, minutes := s.clock.Now()
	now := hours.PointInTime{Weekday: weekday, MinutesSinceMidnight: minutes}

	results := make([]domain.RankedResult, len(cands))
	for i, c := range cands {
		results[i] = domain.RankedResult{
			Place:          c.Place,
			DistanceMeters: c.DistanceMeters,
			RelevanceRank:  1,
			Availability:   s.resolver.Resolve(c.Place.Hours, now),
			TravelMinutes:  search.EstimateTravelMinutes(c.DistanceMeters),
		}
	}

	limited := search.Limit(results, p.Limit, p.OpenOnly, true)
	return &SearchResponse{
		Results:  limited,
		Viewport: viewport(p.Origin, limited),
		Query:    p.Query,
		Category: p.Category,
		CacheHit: true,
	}, true
}

// viewport is the box a map consumer fits to show the origin and every
// result. With no results it falls back to a 500 m box around the origin.
func viewport(origin domain.GeoPoint, results []domain.RankedResult) domain.Bounds {
	if len(results) == 0 {
		minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(origin.Lat, origin.Lon, 500)
		return domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	}
	b := domain.Bounds{MinLat: origin.Lat, MinLon: origin.Lon, MaxLat: origin.Lat, MaxLon: origin.Lon}
	for _, r := range results {
		loc := r.Place.Location
		b.MinLat = math.Min(b.MinLat, loc.Lat)
		b.MinLon = math.Min(b.MinLon, loc.Lon)
		b.MaxLat = math.Max(b.MaxLat, loc.Lat)
		b.MaxLon = math.Max(b.MaxLon, loc.Lon)
	}
	return b
}

func (s *PlaceService) toCache(ctx context.Context, key string, cands []search.Candidate) {
	if s.cache == nil || len(cands) == 0 {
		return
	}
	if data, err := json.Marshal(cands); err == nil {
		_ = s.cache.Set(ctx, key, data, cacheTTLSeconds)
	}
}

func (s *PlaceService) publish(ctx context.Context, p SearchParams, resp *SearchResponse) {
	if s.publisher == nil {
		return
	}
	ev := &domain.SearchEvent{
		Time:           time.Now(),
		Query:          p.Query,
		Category:       p.Category,
		AlternateQuery: resp.AlternateQuery,
		Origin:         p.Origin,
		Results:        len(resp.Results),
		Retried:        resp.Retried,
		CacheHit:       resp.CacheHit,
		OpenOnly:       p.OpenOnly,
	}
	if err := s.publisher.PublishSearchEvent(ctx, ev); err != nil {
		slog.Debug("search event publish failed", "error", err)
	}
}
