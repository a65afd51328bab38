package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/pointlab/poinavi/internal/adapters/http"
	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/hours"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/core/usecases"
)

// ---- Mock collaborators ----

type mockSearcher struct {
	textFn   func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error)
	nearbyFn func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error)
}

func (m *mockSearcher) TextSearch(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
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

type mockTagRepo struct {
	custom          []domain.Tag
	deletedDefaults []string
}

func (m *mockTagRepo) Create(ctx context.Context, tag *domain.Tag) error {
	m.custom = append(m.custom, *tag)
	return nil
}
func (m *mockTagRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *mockTagRepo) ListCustom(ctx context.Context) ([]domain.Tag, error) {
	return m.custom, nil
}
func (m *mockTagRepo) MarkDefaultDeleted(ctx context.Context, id string) error {
	m.deletedDefaults = append(m.deletedDefaults, id)
	return nil
}
func (m *mockTagRepo) ListDeletedDefaults(ctx context.Context) ([]string, error) {
	return m.deletedDefaults, nil
}

type mockSearchLog struct {
	countFn func(ctx context.Context, since time.Time) (int, error)
}

func (m *mockSearchLog) Insert(ctx context.Context, entry *ports.SearchLogEntry) error { return nil }
func (m *mockSearchLog) CountSince(ctx context.Context, since time.Time) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, since)
	}
	return 0, nil
}

type fixedClock struct{}

func (fixedClock) Now() (int, int) { return 1, 10 * 60 }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(searcher *mockSearcher) *handler.Dependencies {
	placeSvc := usecases.NewPlaceService(searcher, nil, nil, nil,
		hours.NewResolver(hours.Config{}), fixedClock{})
	return &handler.Dependencies{
		Places: placeSvc,
		Tags:   usecases.NewTagService(&mockTagRepo{}),
	}
}

func fixedPlaces() []domain.Place {
	return []domain.Place{
		{ID: "p1", Name: "ラーメン一条", Location: domain.GeoPoint{Lat: 35.6813, Lon: 139.7672}},
		{ID: "p2", Name: "ラーメン二条", Location: domain.GeoPoint{Lat: 35.6900, Lon: 139.7700}},
	}
}

// ---- Place search tests ----

func TestSearchPlaces_Success(t *testing.T) {
	deps := makeDeps(&mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			return fixedPlaces(), nil
		},
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/search?q=ラーメン&lat=35.6812&lon=139.7671", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result usecases.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if result.Results[0].Place.ID != "p1" {
		t.Errorf("expected nearest first, got %s", result.Results[0].Place.ID)
	}
}

func TestSearchPlaces_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/places/search?lat=35.68&lon=139.76", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchPlaces_MissingCoordinates(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/places/search?q=ラーメン", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchPlaces_ZeroCoordinatesAccepted(t *testing.T) {
	deps := makeDeps(&mockSearcher{
		textFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			if req.Origin.Lat != 0 || req.Origin.Lon != 0 {
				t.Errorf("expected origin 0,0, got %v", req.Origin)
			}
			return nil, nil
		},
	})
	app := setupApp(deps)

	// Null Island is a valid origin, only absent parameters are rejected.
	req := httptest.NewRequest("GET", "/v1/places/search?q=ラーメン&lat=0&lon=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSearchPlaces_CoordinatesOutOfRange(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/places/search?q=ラーメン&lat=91&lon=139.76", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_Success(t *testing.T) {
	deps := makeDeps(&mockSearcher{
		nearbyFn: func(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
			if req.Category != "cafe" {
				t.Errorf("expected cafe category, got %q", req.Category)
			}
			p := fixedPlaces()[0]
			p.Types = []string{"cafe"}
			return []domain.Place{p}, nil
		},
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/nearby?tag=cafe&lat=35.6812&lon=139.7671", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result usecases.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result.Results))
	}
}

func TestNearbyPlaces_UnknownTag(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/places/nearby?tag=nope&lat=35.68&lon=139.76", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Tag handler tests ----

func TestListTags_Success(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/tags", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Tag `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != len(domain.DefaultTags) {
		t.Errorf("expected total %d, got %d", len(domain.DefaultTags), result.Pagination.Total)
	}
}

func TestCreateTag_Success(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	body := strings.NewReader(`{"name":"町中華"}`)
	req := httptest.NewRequest("POST", "/v1/tags", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var tag domain.Tag
	if err := json.NewDecoder(resp.Body).Decode(&tag); err != nil {
		t.Fatal(err)
	}
	if !tag.IsCustom || tag.Name != "町中華" {
		t.Errorf("unexpected tag: %+v", tag)
	}
}

func TestCreateTag_DuplicateName(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	body := strings.NewReader(`{"name":"カフェ"}`) // collides with a default tag
	req := httptest.NewRequest("POST", "/v1/tags", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateTag_NameTooLong(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	body := strings.NewReader(`{"name":"` + strings.Repeat("あ", 21) + `"}`)
	req := httptest.NewRequest("POST", "/v1/tags", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteTag_Default(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("DELETE", "/v1/tags/cafe", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

// ---- Stats handler tests ----

func TestSearchStats_Success(t *testing.T) {
	deps := makeDeps(&mockSearcher{})
	deps.SearchLog = &mockSearchLog{
		countFn: func(ctx context.Context, since time.Time) (int, error) {
			return 42, nil
		},
	}
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/searches/stats?hours=12", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		WindowHours int `json:"window_hours"`
		Searches    int `json:"searches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Searches != 42 || result.WindowHours != 12 {
		t.Errorf("unexpected stats: %+v", result)
	}
}

// ---- Health tests ----

func TestHealth_Success(t *testing.T) {
	app := setupApp(makeDeps(&mockSearcher{}))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
