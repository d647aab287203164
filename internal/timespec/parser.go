package timespec

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used by record date fields.
const DateLayout = "2006-01-02"

// ParseDate parses a record date into local midnight of that calendar day.
// Supports three formats:
//   - Calendar dates: "2026-10-18"
//   - RFC3339 timestamps: "2026-10-18T13:00:00Z" (converted to loc, then truncated)
//   - Zone-less timestamps: "2026-10-18T13:00:00" (read in loc, then truncated)
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t.In(loc)), nil
	}

	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return Day(t), nil
	}

	return time.Time{}, fmt.Errorf("invalid date: %q (use YYYY-MM-DD or RFC3339)", s)
}

// Parse parses a point-in-time specification for the --as-of flag.
// Supports the ParseDate formats plus Go durations ("72h", "-24h"), which
// are subtracted from now: "24h" means one day ago, "-24h" one day ahead.
func Parse(spec string, now time.Time) (time.Time, error) {
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty time specification")
	}

	if t, err := ParseDate(spec, now.Location()); err == nil {
		return t, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time specification: %s (use a date like '2026-10-18', RFC3339, or a duration like '72h')", spec)
}

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthBounds returns the first and last calendar day of the month containing t.
func MonthBounds(t time.Time) (first, last time.Time) {
	first = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last = first.AddDate(0, 1, -1)
	return first, last
}

// DaysBetween returns the number of whole calendar days from a to b.
// Days are counted on the calendar, so DST transitions do not add or lose a day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
