package search

import (
	"sort"
	"strings"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/pkg/geospatial"
)

// Candidate pairs a place with its computed distance from the search origin.
type Candidate struct {
	Place          domain.Place
	DistanceMeters float64
}

// ComputeDistances returns candidates annotated with the haversine distance
// from origin, preserving input order.
func ComputeDistances(origin domain.GeoPoint, places []domain.Place) []Candidate {
	out := make([]Candidate, len(places))
	for i, p := range places {
		out[i] = Candidate{
			Place:          p,
			DistanceMeters: geospatial.Haversine(origin.Lat, origin.Lon, p.Location.Lat, p.Location.Lon),
		}
	}
	return out
}

// SortByDistance orders candidates by ascending distance, stable.
func SortByDistance(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].DistanceMeters < cands[j].DistanceMeters
	})
}

// normalizeName strips all whitespace and case-folds for substring matching.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// nameMatches reports whether a candidate name plausibly matches a query:
// whitespace-insensitive, case-folded, substring in either direction.
func nameMatches(name, query string) bool {
	n := normalizeName(name)
	q := normalizeName(query)
	if n == "" || q == "" {
		return false
	}
	return strings.Contains(n, q) || strings.Contains(q, n)
}

// IsResultSetRelevant reports whether any of the top-N candidates matches
// the query by name. N is the caller's requested display count.
func IsResultSetRelevant(query string, cands []Candidate, topN int) bool {
	if topN > len(cands) {
		topN = len(cands)
	}
	for _, c := range cands[:topN] {
		if nameMatches(c.Place.Name, query) {
			return true
		}
	}
	return false
}

// NeedsRetry decides whether an alternate-query retry should be attempted:
// the first round under-filled the requested count, or none of its top
// entries looks related to the query.
func NeedsRetry(query string, cands []Candidate, requested int) bool {
	return len(cands) < requested || !IsResultSetRelevant(query, cands, requested)
}

// MergeRetryResults combines the first-round candidates with a retry round.
// Retry entries already present in the original set are dropped (originals
// win on conflict), and only retry entries whose name matches the original
// or alternate query are admitted. The final order is every relevant entry
// sorted by distance, then every non-relevant entry sorted by distance.
func MergeRetryResults(original, retry []Candidate, query, altQuery string) []Candidate {
	seen := make(map[string]struct{}, len(original))
	for _, c := range original {
		seen[c.Place.ID] = struct{}{}
	}

	var relevant, rest []Candidate
	for _, c := range retry {
		if _, dup := seen[c.Place.ID]; dup {
			continue
		}
		if nameMatches(c.Place.Name, query) || (altQuery != "" && nameMatches(c.Place.Name, altQuery)) {
			relevant = append(relevant, c)
		}
	}
	for _, c := range original {
		if nameMatches(c.Place.Name, query) {
			relevant = append(relevant, c)
		} else {
			rest = append(rest, c)
		}
	}

	SortByDistance(relevant)
	SortByDistance(rest)
	return append(relevant, rest...)
}

// PartitionByRelevance reorders candidates so that entries whose name
// matches the query come first, each partition sorted by distance. Used when
// no retry round was issued. The second return reports whether anything
// matched at all; when false the input order is kept.
func PartitionByRelevance(cands []Candidate, query string) ([]Candidate, bool) {
	var relevant, rest []Candidate
	for _, c := range cands {
		if nameMatches(c.Place.Name, query) {
			relevant = append(relevant, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(relevant) == 0 {
		return cands, false
	}
	SortByDistance(relevant)
	SortByDistance(rest)
	return append(relevant, rest...), true
}
