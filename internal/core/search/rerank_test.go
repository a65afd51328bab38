package search_test

import (
	"testing"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/search"
)

func place(id, name string, lat, lon float64) domain.Place {
	return domain.Place{ID: id, Name: name, Location: domain.GeoPoint{Lat: lat, Lon: lon}}
}

func cand(id, name string, dist float64) search.Candidate {
	return search.Candidate{Place: domain.Place{ID: id, Name: name}, DistanceMeters: dist}
}

func TestComputeDistances(t *testing.T) {
	origin := domain.GeoPoint{Lat: 35.6812, Lon: 139.7671}
	cands := search.ComputeDistances(origin, []domain.Place{
		place("a", "here", 35.6812, 139.7671),
		place("b", "antipode", -35.6812, -40.2329),
	})

	if cands[0].DistanceMeters != 0 {
		t.Errorf("identical points: expected 0, got %f", cands[0].DistanceMeters)
	}
	// Antipodal distance is π * R ≈ 20,015,087 m.
	if d := cands[1].DistanceMeters; d < 20_000_000 || d > 20_030_000 {
		t.Errorf("antipodal distance out of range: %f", d)
	}
}

func TestIsResultSetRelevant(t *testing.T) {
	cands := []search.Candidate{
		cand("1", "Some Bakery", 100),
		cand("2", "スターバックス 渋谷店", 200),
		cand("3", "Another Cafe", 300),
	}

	if !search.IsResultSetRelevant("スターバックス", cands, 3) {
		t.Error("expected relevant: candidate name contains the query")
	}
	// Top-N window excludes the matching entry.
	if search.IsResultSetRelevant("スターバックス", cands, 1) {
		t.Error("expected not relevant within top-1")
	}
	if search.IsResultSetRelevant("餃子", cands, 3) {
		t.Error("expected not relevant for unrelated query")
	}
}

func TestIsResultSetRelevant_WhitespaceInsensitive(t *testing.T) {
	cands := []search.Candidate{cand("1", "Star Bucks Coffee", 10)}
	if !search.IsResultSetRelevant("starbucks", cands, 1) {
		t.Error("expected whitespace-stripped match")
	}
}

func TestNeedsRetry(t *testing.T) {
	cands := []search.Candidate{cand("1", "スターバックス", 10), cand("2", "タリーズ", 20)}

	if search.NeedsRetry("スターバックス", cands, 2) {
		t.Error("full and relevant set must not retry")
	}
	if !search.NeedsRetry("スターバックス", cands, 5) {
		t.Error("under-filled set must retry")
	}
	if !search.NeedsRetry("ドトール", cands, 2) {
		t.Error("irrelevant set must retry")
	}
}

func TestMergeRetryResults(t *testing.T) {
	original := []search.Candidate{
		cand("o1", "スターバックス 本店", 400),
		cand("o2", "無関係な店", 50),
	}
	retry := []search.Candidate{
		cand("o1", "スターバックス 本店", 400), // duplicate, must be dropped
		cand("r1", "スター バックス 駅前", 150),
		cand("r2", "別の無関係な店", 10), // irrelevant retry entries are not admitted
	}

	merged := search.MergeRetryResults(original, retry, "スターバックス", "スター バックス")

	if len(merged) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(merged))
	}
	// Relevant first, by distance: r1 (150), o1 (400); then non-relevant o2.
	if merged[0].Place.ID != "r1" || merged[1].Place.ID != "o1" || merged[2].Place.ID != "o2" {
		t.Errorf("unexpected order: %s, %s, %s",
			merged[0].Place.ID, merged[1].Place.ID, merged[2].Place.ID)
	}
}

func TestMergeRetryResults_RelevantOutputMatchesPredicate(t *testing.T) {
	original := []search.Candidate{cand("a", "ラーメン一蘭", 100), cand("b", "服屋", 5)}
	retry := []search.Candidate{cand("c", "らーめん一蘭 別館", 20)}

	merged := search.MergeRetryResults(original, retry, "ラーメン一蘭", "らーめん一蘭")

	// Everything ahead of the first non-matching entry must satisfy the
	// match predicate against one of the two queries.
	sawNonMatch := false
	for _, c := range merged {
		matches := search.IsResultSetRelevant("ラーメン一蘭", []search.Candidate{c}, 1) ||
			search.IsResultSetRelevant("らーめん一蘭", []search.Candidate{c}, 1)
		if !matches {
			sawNonMatch = true
		} else if sawNonMatch {
			t.Errorf("relevant entry %q found after non-relevant entries", c.Place.Name)
		}
	}
}

func TestPartitionByRelevance(t *testing.T) {
	cands := []search.Candidate{
		cand("far-match", "ドトール珈琲店", 900),
		cand("near-other", "パン屋", 10),
		cand("near-match", "ドトール", 100),
	}

	got, any := search.PartitionByRelevance(cands, "ドトール")
	if !any {
		t.Fatal("expected matches")
	}
	if got[0].Place.ID != "near-match" || got[1].Place.ID != "far-match" || got[2].Place.ID != "near-other" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Place.ID, got[1].Place.ID, got[2].Place.ID)
	}

	same, any := search.PartitionByRelevance(cands, "寿司")
	if any {
		t.Error("expected no matches")
	}
	if same[0].Place.ID != cands[0].Place.ID {
		t.Error("no-match partition must keep input order")
	}
}

func TestEstimateTravelMinutes(t *testing.T) {
	est := search.EstimateTravelMinutes(800)
	if est["walk"] != 10 {
		t.Errorf("walk: expected 10, got %d", est["walk"])
	}
	if est["bicycle"] != 3 {
		t.Errorf("bicycle: expected 3, got %d", est["bicycle"])
	}
	if est["car"] != 2 {
		t.Errorf("car: expected 2, got %d", est["car"])
	}

	// Short hops clamp to one minute.
	est = search.EstimateTravelMinutes(10)
	for mode, m := range est {
		if m != 1 {
			t.Errorf("%s: expected 1 minute minimum, got %d", mode, m)
		}
	}
}
