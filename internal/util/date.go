package util

import "time"

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DayBoundaries returns the start of the day containing t and the start of the next day, in loc.
// A nil loc means UTC.
func DayBoundaries(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc; an empty string means today in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if s == "" {
		start, _ := DayBoundaries(time.Now(), loc)
		return start, nil
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
