package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/hours"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/core/usecases"
)

// --- Mock collaborators ---

type mockSearcher struct {
	textFn   func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error)
	nearbyFn func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error)
	queries  []string
}

func (m *mockSearcher) TextSearch(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
	m.queries = append(m.queries, req.Query)
	if m.textFn != nil {
		return m.textFn(ctx, req)
	}
	return nil, nil
}

func (m *mockSearcher) NearbySearch(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, req)
	}
	return nil, nil
}

type mockDetailer struct {
	detailsFn func(ctx context.Context, placeID string) (*domain.Place, error)

	mu     sync.Mutex
	called []string
}

func (m *mockDetailer) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	m.mu.Lock()
	m.called = append(m.called, placeID)
	m.mu.Unlock()
	if m.detailsFn != nil {
		return m.detailsFn(ctx, placeID)
	}
	return nil, nil
}

type fixedClock struct {
	weekday int
	minutes int
}

func (c fixedClock) Now() (int, int) { return c.weekday, c.minutes }

func newService(searcher ports.PlaceSearcher, detailer ports.PlaceDetailer) *usecases.PlaceService {
	return usecases.NewPlaceService(
		searcher, detailer, nil, nil,
		hours.NewResolver(hours.Config{}),
		fixedClock{weekday: 1, minutes: 10 * 60},
	)
}

func placeAt(id, name string, lat, lon float64) domain.Place {
	return domain.Place{ID: id, Name: name, Location: domain.GeoPoint{Lat: lat, Lon: lon}}
}

var origin = domain.GeoPoint{Lat: 35.6812, Lon: 139.7671}

// --- Tests ---

func TestSearchByText_EmptyQuery(t *testing.T) {
	svc := newService(&mockSearcher{}, nil)
	_, err := svc.SearchByText(context.Background(), usecases.SearchParams{Origin: origin})
	if err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchByText_DistanceOrder(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return []domain.Place{
				placeAt("far", "ラーメン 遠い店", 35.70, 139.80),
				placeAt("near", "ラーメン 近い店", 35.6813, 139.7672),
			}, nil
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "ラーメン", Origin: origin, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Place.ID != "near" {
		t.Errorf("expected nearest first, got %s", resp.Results[0].Place.ID)
	}
	if resp.Results[0].DistanceMeters <= 0 {
		t.Error("expected a positive distance")
	}
}

func TestSearchByText_NoRetryWhenRelevant(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return []domain.Place{
				placeAt("1", "スターバックス 渋谷店", 35.6813, 139.7672),
				placeAt("2", "スターバックス 新宿店", 35.6900, 139.7000),
			}, nil
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "スターバックス", Origin: origin, Limit: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Retried {
		t.Error("relevant full set must not retry")
	}
	if len(searcher.queries) != 1 {
		t.Errorf("expected exactly 1 backend call, got %d", len(searcher.queries))
	}
}

func TestSearchByText_RetryOnZeroResults(t *testing.T) {
	call := 0
	searcher := &mockSearcher{}
	searcher.textFn = func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
		call++
		if call == 1 {
			return nil, nil
		}
		return []domain.Place{placeAt("1", "スター バックス 駅前店", 35.6820, 139.7680)}, nil
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "スターバックス", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Retried {
		t.Fatal("expected a retry round")
	}
	if resp.AlternateQuery == "" {
		t.Fatal("expected an alternate query")
	}
	if len(searcher.queries) != 2 {
		t.Fatalf("expected 2 backend calls, got %d", len(searcher.queries))
	}
	if searcher.queries[1] != resp.AlternateQuery {
		t.Errorf("retry used %q, response says %q", searcher.queries[1], resp.AlternateQuery)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestSearchByText_AtMostOneRetry(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return nil, nil // both rounds empty
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "スターバックス", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("zero results must not be an error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(resp.Results))
	}
	if len(searcher.queries) != 2 {
		t.Errorf("expected exactly 2 backend calls (one retry), got %d", len(searcher.queries))
	}
}

func TestSearchByText_NoRetryWhenDerivationInapplicable(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return nil, nil
		},
	}
	svc := newService(searcher, nil)

	// Latin-script query: no alternate derivation exists.
	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "starbucks", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Retried {
		t.Error("derivation-inapplicable query must not retry")
	}
	if len(searcher.queries) != 1 {
		t.Errorf("expected 1 backend call, got %d", len(searcher.queries))
	}
}

func TestSearchByText_EnrichmentPreservesOrderAndSurvivesFailure(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return []domain.Place{
				placeAt("a", "テスト店A", 35.6813, 139.7672),
				placeAt("b", "テスト店B", 35.6820, 139.7680),
				placeAt("c", "テスト店C", 35.6830, 139.7690),
			}, nil
		},
	}
	detailer := &mockDetailer{
		detailsFn: func(ctx context.Context, placeID string) (*domain.Place, error) {
			if placeID == "b" {
				return nil, fmt.Errorf("details unavailable")
			}
			return &domain.Place{
				ID:    placeID,
				Hours: &domain.WeeklyHours{PerDayText: []string{"月曜日: 24時間営業"}},
			}, nil
		},
	}
	svc := newService(searcher, detailer)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "テスト店", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	// One failed enrichment must not abort the batch or change ordering.
	if resp.Results[0].Place.ID != "a" || resp.Results[1].Place.ID != "b" || resp.Results[2].Place.ID != "c" {
		t.Errorf("order changed: %s %s %s",
			resp.Results[0].Place.ID, resp.Results[1].Place.ID, resp.Results[2].Place.ID)
	}
	if resp.Results[0].Availability.State != domain.StateOpen {
		t.Error("enriched candidate should resolve open")
	}
	if resp.Results[1].Availability.State != domain.StateUnknown {
		t.Error("failed enrichment should leave availability unknown")
	}
}

func TestSearchByText_OpenOnlyFilter(t *testing.T) {
	openHours := &domain.WeeklyHours{PerDayText: []string{"Monday: 9:00 AM – 5:00 PM"}}
	closedHours := &domain.WeeklyHours{PerDayText: []string{"Monday: Closed"}}

	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			open := placeAt("open", "テスト店 本店", 35.6830, 139.7690)
			open.Hours = openHours
			closed := placeAt("closed", "テスト店 支店", 35.6813, 139.7672)
			closed.Hours = closedHours
			noInfo := placeAt("noinfo", "テスト店 別館", 35.6820, 139.7680)
			return []domain.Place{open, closed, noInfo}, nil
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "テスト店", Origin: origin, Limit: 3, OpenOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Place.ID != "open" {
		t.Fatalf("open-only filter must drop closed and unknown, got %d results", len(resp.Results))
	}
}

func TestSearchByText_ViewportCoversOriginAndResults(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return []domain.Place{placeAt("1", "テスト店", 35.70, 139.80)}, nil
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "テスト店", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := resp.Viewport
	if v.MinLat > origin.Lat || v.MaxLat < 35.70 || v.MinLon > origin.Lon || v.MaxLon < 139.80 {
		t.Errorf("viewport does not cover origin and result: %+v", v)
	}
}

func TestSearchByText_EmptyViewportFallsBackToOrigin(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return nil, nil
		},
	}
	svc := newService(searcher, nil)

	resp, err := svc.SearchByText(context.Background(), usecases.SearchParams{
		Query: "starbucks", Origin: origin, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := resp.Viewport
	if v.MinLat >= origin.Lat || v.MaxLat <= origin.Lat {
		t.Errorf("fallback viewport should surround the origin: %+v", v)
	}
}

func TestSearchByCategory_TypeFilter(t *testing.T) {
	searcher := &mockSearcher{
		nearbyFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			a := placeAt("pharmacy", "サンドラッグ", 35.6813, 139.7672)
			a.Types = []string{"pharmacy", "store"}
			b := placeAt("not-pharmacy", "スーパー", 35.6820, 139.7680)
			b.Types = []string{"supermarket"}
			return []domain.Place{a, b}, nil
		},
	}
	svc := newService(searcher, nil)

	tag := domain.Tag{ID: "pharmacy", Name: "薬局", PlaceType: "pharmacy"}
	resp, err := svc.SearchByCategory(context.Background(), tag, usecases.SearchParams{Origin: origin, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Place.ID != "pharmacy" {
		t.Fatalf("expected only tagged-type places, got %d", len(resp.Results))
	}
}

func TestSearchByCategory_CustomTagUsesTextSearch(t *testing.T) {
	searcher := &mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			if req.Query != "町中華" {
				t.Errorf("expected custom tag name as query, got %q", req.Query)
			}
			return []domain.Place{placeAt("1", "町中華 一番", 35.6813, 139.7672)}, nil
		},
	}
	svc := newService(searcher, nil)

	tag := domain.Tag{ID: "custom-1", Name: "町中華", IsCustom: true}
	resp, err := svc.SearchByCategory(context.Background(), tag, usecases.SearchParams{Origin: origin, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
}
