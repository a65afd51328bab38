package search

import (
	"sort"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// Limit finalises a result list for display. Steps run in strict order:
// distance sort (skipped when the list arrived pre-ranked by a relevance
// merge), open-only filtering, then truncation to the requested count.
// Filtering before truncation means the closest N open places are shown
// rather than the closest N places minus the closed ones.
func Limit(results []domain.RankedResult, requested int, openOnly, preRanked bool) []domain.RankedResult {
	if !preRanked {
		sortRankedByDistance(results)
	}

	if openOnly {
		filtered := results[:0]
		for _, r := range results {
			// Unknown does not pass the open-only filter.
			if r.Availability.State == domain.StateOpen {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if requested > 0 && len(results) > requested {
		results = results[:requested]
	}
	return results
}

func sortRankedByDistance(results []domain.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
}
