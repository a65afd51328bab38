package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/usecases"
	"github.com/pointlab/poinavi/internal/pkg/metrics"
)

func recordSearch(kind string, resp *usecases.SearchResponse) {
	metrics.SearchesTotal.WithLabelValues(kind).Inc()
	metrics.SearchResultsReturned.WithLabelValues(kind).Observe(float64(len(resp.Results)))
	if resp.Retried {
		metrics.SearchRetries.Inc()
	}
	if resp.CacheHit {
		metrics.CacheHits.WithLabelValues("search").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}
}

// searchParamsFromQuery parses the shared search query parameters.
func searchParamsFromQuery(c *fiber.Ctx) (usecases.SearchParams, error) {
	if c.Query("lat") == "" || c.Query("lon") == "" {
		return usecases.SearchParams{}, errBadRequest(c, "lat and lon are required")
	}
	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return usecases.SearchParams{}, errBadRequest(c, "lat and lon are out of range")
	}

	radius := c.QueryFloat("radius", 0)
	if radius < 0 || radius > 50000 {
		return usecases.SearchParams{}, errBadRequest(c, "radius must be between 0 and 50000 meters")
	}

	return usecases.SearchParams{
		Origin:       domain.GeoPoint{Lat: lat, Lon: lon},
		RadiusMeters: radius,
		Limit:        c.QueryInt("limit", 0),
		OpenOnly:     c.QueryBool("open_only", false),
	}, nil
}

// SearchPlacesHandler runs a free-text place search around a point.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		params, err := searchParamsFromQuery(c)
		if err != nil {
			return err
		}
		params.Query = query

		resp, err := deps.Places.SearchByText(c.Context(), params)
		if err != nil {
			return errInternal(c, err.Error())
		}
		recordSearch("text", resp)

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(resp)
	}
}

// NearbyPlacesHandler searches places by tag around a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tagID := c.Query("tag")
		if tagID == "" {
			return errBadRequest(c, "tag query parameter is required")
		}

		tag, err := deps.Tags.Find(c.Context(), tagID)
		if err != nil {
			return errNotFound(c, "tag not found")
		}

		params, perr := searchParamsFromQuery(c)
		if perr != nil {
			return perr
		}

		resp, err := deps.Places.SearchByCategory(c.Context(), *tag, params)
		if err != nil {
			return errInternal(c, err.Error())
		}
		recordSearch("category", resp)

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(resp)
	}
}

// ListTagsHandler returns the active tag set with pagination.
func ListTagsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := deps.Tags.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(tags)
		if offset >= total {
			tags = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			tags = tags[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: tags, Pagination: pg})
	}
}

// CreateTagHandler registers a custom tag.
func CreateTagHandler(deps *Dependencies) fiber.Handler {
	type createRequest struct {
		Name string `json:"name"`
	}

	return func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		tag, err := deps.Tags.Add(c.Context(), req.Name)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				return errConflict(c, err.Error())
			}
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(tag)
	}
}

// DeleteTagHandler removes a tag. Built-in tags are hidden, custom tags
// are deleted.
func DeleteTagHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "tag id is required")
		}
		if err := deps.Tags.Remove(c.Context(), id); err != nil {
			return errNotFound(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// SearchStatsHandler returns search volume over a trailing window.
func SearchStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SearchLog == nil {
			return errInternal(c, "search log not available")
		}

		hours := c.QueryInt("hours", 24)
		if hours <= 0 || hours > 24*30 {
			hours = 24
		}
		since := time.Now().Add(-time.Duration(hours) * time.Hour)

		count, err := deps.SearchLog.CountSince(c.Context(), since)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(fiber.Map{
			"window_hours": hours,
			"searches":     count,
		})
	}
}
