package usecases

import "time"

// SystemClock reports the current weekday and minutes-since-midnight in a
// fixed location. Venue data is local-time text, so the location must match
// the service's coverage area.
type SystemClock struct {
	Loc *time.Location
}

// Now implements ports.Clock.
func (c SystemClock) Now() (int, int) {
	now := time.Now()
	if c.Loc != nil {
		now = now.In(c.Loc)
	}
	return int(now.Weekday()), now.Hour()*60 + now.Minute()
}
