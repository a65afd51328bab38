package hours

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pointlab/poinavi/internal/core/domain"
)

// PointInTime is a venue-local moment. Weekday follows time.Weekday
// numbering (0 = Sunday .. 6 = Saturday); the caller is responsible for
// timezone normalisation.
type PointInTime struct {
	Weekday             int
	MinutesSinceMidnight int
}

// Config tunes the resolver's heuristics.
type Config struct {
	// TodayOnly24hScan restricts the 24-hour marker scan to today's entry.
	// The default (false) scans the whole week, which matches upstream data
	// that flags 24-hour operation on a single arbitrary day. The whole-week
	// scan can false-positive when only one day truly runs 24 hours.
	TodayOnly24hScan bool
}

// Resolver decides whether a place is open from its free-text weekly hours.
// The zero value uses the default whole-week 24-hour scan.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver with the given config.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

const (
	statusNoInfo  = "営業時間の情報なし"
	status24Hours = "24時間営業"
	statusOpen    = "営業中"
	statusClosed  = "営業時間外"
	statusHoliday = "定休日"
)

var (
	re24Hours     = regexp.MustCompile(`24\s*時間`)
	reClosingAt   = regexp.MustCompile(`営業終了[：:]\s*(\d{1,2}):(\d{2})`)
	reDayPrefixEn = regexp.MustCompile(`(?i)^(sunday|monday|tuesday|wednesday|thursday|friday|saturday)[：:]\s*`)
	reDayPrefixJa = regexp.MustCompile(`^[日月火水木金土]曜日?[：:]\s*`)

	// Time-range patterns, tried in order. A match whose numeric groups fail
	// to parse is treated as a non-match of that pattern.
	reRangeMeridiem = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM|午前|午後)?\s*[–\-~～]\s*(\d{1,2}):(\d{2})\s*(AM|PM|午前|午後)?`)
	reRangePlain    = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[–\-~～]\s*(\d{1,2}):(\d{2})`)
	reRangeJa       = regexp.MustCompile(`(\d{1,2})時(\d{2})分\s*[–\-~～]\s*(\d{1,2})時(\d{2})分`)
	reRangeJaHour   = regexp.MustCompile(`(\d{1,2})時\s*[–\-~～]\s*(\d{1,2})時`)
)

// weekday keyword sets, indexed 0 = Sunday .. 6 = Saturday. Venue data mixes
// full English day names and single-character Japanese markers, so both are
// matched.
var dayKeywords = [7][2]string{
	{"sunday", "日曜"},
	{"monday", "月曜"},
	{"tuesday", "火曜"},
	{"wednesday", "水曜"},
	{"thursday", "木曜"},
	{"friday", "金曜"},
	{"saturday", "土曜"},
}

// Resolve computes the availability of a place at now. It is a pure function
// of (hours, now): absent or unparseable hours yield StateUnknown with the
// raw text surfaced, never an error.
func (r *Resolver) Resolve(wh *domain.WeeklyHours, now PointInTime) domain.AvailabilityResult {
	if wh == nil || len(wh.PerDayText) == 0 {
		return domain.AvailabilityResult{State: domain.StateUnknown, StatusText: statusNoInfo}
	}

	todayText, todayFound := findTodayEntry(wh.PerDayText, now.Weekday)

	// 24-hour detection. Whole-week scan by default; strict mode looks at
	// today's entry only.
	scanText := strings.ToLower(strings.Join(wh.PerDayText, " "))
	if r.cfg.TodayOnly24hScan {
		scanText = strings.ToLower(todayText)
	}
	if is24Hours(scanText) {
		return domain.AvailabilityResult{State: domain.StateOpen, StatusText: status24Hours}
	}

	// Explicit "currently open" phrase anywhere in the week, unless the text
	// also carries a closing qualifier that needs today's entry to interpret.
	if strings.Contains(scanText, statusOpen) && !strings.Contains(scanText, "営業終了") {
		return domain.AvailabilityResult{State: domain.StateOpen, StatusText: statusOpen}
	}

	if !todayFound {
		return domain.AvailabilityResult{
			State:      domain.StateUnknown,
			StatusText: truncateRunes(strings.Join(wh.PerDayText, " / "), 50),
		}
	}

	// "営業中 · 営業終了: HH:MM" — compare now against the closing time.
	if strings.Contains(todayText, statusOpen) {
		if m := reClosingAt.FindStringSubmatch(todayText); m != nil {
			closeH, err1 := strconv.Atoi(m[1])
			closeM, err2 := strconv.Atoi(m[2])
			if err1 == nil && err2 == nil {
				if now.MinutesSinceMidnight < closeH*60+closeM {
					return domain.AvailabilityResult{
						State:      domain.StateOpen,
						StatusText: fmt.Sprintf("営業中（終了: %d:%02d）", closeH, closeM),
					}
				}
				return domain.AvailabilityResult{State: domain.StateClosed, StatusText: statusClosed}
			}
		}
		return domain.AvailabilityResult{State: domain.StateOpen, StatusText: statusOpen}
	}

	lowerToday := strings.ToLower(todayText)
	if strings.Contains(lowerToday, "closed") || strings.Contains(todayText, "閉店") || strings.Contains(todayText, "定休") {
		return domain.AvailabilityResult{State: domain.StateClosed, StatusText: statusHoliday}
	}

	rng, ok := parseTimeRange(todayText)
	if !ok {
		raw := truncateRunes(stripDayPrefix(todayText), 30)
		if raw == "" {
			raw = truncateRunes(strings.Join(wh.PerDayText, " / "), 50)
		}
		return domain.AvailabilityResult{State: domain.StateUnknown, StatusText: raw}
	}

	if rng.contains(now.MinutesSinceMidnight) {
		return domain.AvailabilityResult{
			State:      domain.StateOpen,
			StatusText: fmt.Sprintf("営業中（終了: %d:%02d）", rng.close/60, rng.close%60),
		}
	}
	return domain.AvailabilityResult{State: domain.StateClosed, StatusText: statusClosed}
}

// timeRange holds open/close times in minutes since midnight.
type timeRange struct {
	open  int
	close int
}

// contains reports whether t falls inside the range. A close earlier than
// open means the range crosses midnight. Boundary is inclusive at open,
// exclusive at close.
func (r timeRange) contains(t int) bool {
	if r.close < r.open {
		return t >= r.open || t < r.close
	}
	return t >= r.open && t < r.close
}

func is24Hours(lowerText string) bool {
	return strings.Contains(lowerText, "24 hours") ||
		strings.Contains(lowerText, "24時間") ||
		re24Hours.MatchString(lowerText)
}

// findTodayEntry locates the entry for the given weekday by keyword match.
func findTodayEntry(perDay []string, weekday int) (string, bool) {
	if weekday < 0 || weekday > 6 {
		return "", false
	}
	kw := dayKeywords[weekday]
	for _, text := range perDay {
		lower := strings.ToLower(text)
		if strings.Contains(lower, kw[0]) || strings.Contains(text, kw[1]) {
			return text, true
		}
	}
	return "", false
}

// parseTimeRange tries the four supported textual patterns in order and
// returns the first that parses cleanly.
func parseTimeRange(text string) (timeRange, bool) {
	if m := reRangeMeridiem.FindStringSubmatch(text); m != nil {
		if rng, ok := buildRange(m[1], m[2], m[3], m[4], m[5], m[6]); ok {
			return rng, true
		}
	}
	if m := reRangePlain.FindStringSubmatch(text); m != nil {
		if rng, ok := buildRange(m[1], m[2], "", m[3], m[4], ""); ok {
			return rng, true
		}
	}
	if m := reRangeJa.FindStringSubmatch(text); m != nil {
		if rng, ok := buildRange(m[1], m[2], "", m[3], m[4], ""); ok {
			return rng, true
		}
	}
	if m := reRangeJaHour.FindStringSubmatch(text); m != nil {
		if rng, ok := buildRange(m[1], "0", "", m[2], "0", ""); ok {
			return rng, true
		}
	}
	return timeRange{}, false
}

func buildRange(openH, openM, openMer, closeH, closeM, closeMer string) (timeRange, bool) {
	oh, err := strconv.Atoi(openH)
	if err != nil {
		return timeRange{}, false
	}
	om, err := strconv.Atoi(openM)
	if err != nil {
		return timeRange{}, false
	}
	ch, err := strconv.Atoi(closeH)
	if err != nil {
		return timeRange{}, false
	}
	cm, err := strconv.Atoi(closeM)
	if err != nil {
		return timeRange{}, false
	}
	oh = applyMeridiem(oh, openMer)
	ch = applyMeridiem(ch, closeMer)
	return timeRange{open: oh*60 + om, close: ch*60 + cm}, true
}

// applyMeridiem converts a 12-hour clock hour to 24-hour form. PM (午後)
// adds 12 unless the hour is already 12; AM (午前) maps 12 to 0.
func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToUpper(meridiem) {
	case "PM", "午後":
		if hour != 12 {
			return hour + 12
		}
	case "AM", "午前":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// stripDayPrefix removes a leading weekday label ("Monday: ", "月曜日: ").
func stripDayPrefix(text string) string {
	text = reDayPrefixEn.ReplaceAllString(text, "")
	text = reDayPrefixJa.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// truncateRunes bounds a display string to max runes, appending an ellipsis.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
