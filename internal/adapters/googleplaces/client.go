// Package googleplaces adapts the Google Places web service to the core
// search ports. Responses are mapped straight into domain types; opening
// hours come back as localized weekday text lines.
package googleplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/pkg/metrics"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Client calls the Places text, nearby, and details endpoints.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	hc       *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithLanguage sets the response language code. Defaults to Japanese.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// NewClient creates a Places client with a 10s request timeout.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: "ja",
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ ports.PlaceSearcher = (*Client)(nil)
	_ ports.PlaceDetailer = (*Client)(nil)
)

// TextSearch runs a free-text query biased around the request origin.
func (c *Client) TextSearch(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("location", formatLocation(req.Origin))
	params.Set("radius", strconv.Itoa(int(req.RadiusMeters)))

	var resp searchResponse
	if err := c.get(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return mapResults(resp.Results), nil
}

// NearbySearch runs a structured search by place type, optionally narrowed
// by a keyword hint.
func (c *Client) NearbySearch(ctx context.Context, req ports.SearchRequest) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("location", formatLocation(req.Origin))
	params.Set("radius", strconv.Itoa(int(req.RadiusMeters)))
	if req.Category != "" {
		params.Set("type", req.Category)
	}
	if req.Keyword != "" {
		params.Set("keyword", req.Keyword)
	}

	var resp searchResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	return mapResults(resp.Results), nil
}

// Details fetches the fields the pipeline enriches with: weekday opening
// hours text, formatted address, and rating.
func (c *Client) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,geometry,formatted_address,opening_hours,rating,types")

	var resp detailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	place := mapResult(resp.Result)
	return &place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out statusCarrier) error {
	params.Set("key", c.apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.hc.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("places api status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	switch s := out.status(); s {
	case "OK", "ZERO_RESULTS":
		return nil
	default:
		return fmt.Errorf("places api status %s", s)
	}
}

func formatLocation(p domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// --- wire types ---

type statusCarrier interface{ status() string }

type searchResponse struct {
	Results []placeResult `json:"results"`
	Status  string        `json:"status"`
}

func (r *searchResponse) status() string { return r.Status }

type detailsResponse struct {
	Result placeResult `json:"result"`
	Status string      `json:"status"`
}

func (r *detailsResponse) status() string { return r.Status }

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Rating           float64  `json:"rating"`
	Types            []string `json:"types"`
	OpeningHours     *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

func mapResults(results []placeResult) []domain.Place {
	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		places = append(places, mapResult(r))
	}
	return places
}

func mapResult(r placeResult) domain.Place {
	p := domain.Place{
		ID:   r.PlaceID,
		Name: r.Name,
		Location: domain.GeoPoint{
			Lat: r.Geometry.Location.Lat,
			Lon: r.Geometry.Location.Lng,
		},
		Address: r.FormattedAddress,
		Rating:  r.Rating,
		Types:   r.Types,
	}
	if p.Address == "" {
		p.Address = r.Vicinity
	}
	if r.OpeningHours != nil && len(r.OpeningHours.WeekdayText) > 0 {
		p.Hours = &domain.WeeklyHours{PerDayText: r.OpeningHours.WeekdayText}
	}
	return p
}
