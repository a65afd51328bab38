package domain

import (
	"time"
)

// OpenState is the tri-state result of an availability decision.
type OpenState int

const (
	// StateUnknown means the hours data was absent or could not be interpreted.
	StateUnknown OpenState = iota
	// StateOpen means the place is open at the queried time.
	StateOpen
	// StateClosed means the place is closed at the queried time.
	StateClosed
)

// String returns the lowercase wire name of the state.
func (s OpenState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalJSON serialises the state as its wire name.
func (s OpenState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// WeeklyHours is the free-text weekly schedule attached to a place.
// PerDayText holds one entry per weekday; entries mix English and Japanese
// ("Monday: 9:00 AM – 5:00 PM", "月曜日: 定休日") depending on the venue.
type WeeklyHours struct {
	PerDayText []string `json:"per_day_text"`
}

// Place is a candidate returned by a place-search collaborator.
// Hours and Address are optional enrichments; a nil Hours means the
// availability of the place cannot be decided.
type Place struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location GeoPoint     `json:"location"`
	Address  string       `json:"address,omitempty"`
	Hours    *WeeklyHours `json:"hours,omitempty"`
	Rating   float64      `json:"rating,omitempty"`
	Types    []string     `json:"types,omitempty"`
}

// HasType reports whether the place carries the given category tag.
func (p *Place) HasType(t string) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

// AvailabilityResult is the open/closed decision for a place at a point
// in time. It is derived fresh per query and never stored.
type AvailabilityResult struct {
	State      OpenState `json:"state"`
	StatusText string    `json:"status_text"`
}

// RankedResult wraps a place with its computed distance, relevance rank,
// availability, and travel-time estimates for the rendering consumer.
// Ordering is a stable sort by RelevanceRank, then DistanceMeters.
type RankedResult struct {
	Place          Place              `json:"place"`
	DistanceMeters float64            `json:"distance_meters"`
	RelevanceRank  int                `json:"relevance_rank"`
	Availability   AvailabilityResult `json:"availability"`
	TravelMinutes  map[string]int     `json:"travel_minutes,omitempty"`
}

// SearchEvent is published after every completed search for analytics.
type SearchEvent struct {
	Time           time.Time `json:"time"`
	Query          string    `json:"query,omitempty"`
	Category       string    `json:"category,omitempty"`
	AlternateQuery string    `json:"alternate_query,omitempty"`
	Origin         GeoPoint  `json:"origin"`
	Results        int       `json:"results"`
	Retried        bool      `json:"retried"`
	CacheHit       bool      `json:"cache_hit"`
	OpenOnly       bool      `json:"open_only"`
}
