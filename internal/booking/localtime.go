// internal/booking/localtime.go
package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Region is the fixed operating timezone. Every day/week boundary and every
// wall-clock slot is anchored here, never to the server's local zone, so the
// availability engine and the limit policy can't drift apart.
type Region struct {
	loc *time.Location
}

func NewRegion(name string) (Region, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Region{}, fmt.Errorf("load region timezone: %w", err)
	}
	return Region{loc: loc}, nil
}

func (r Region) Location() *time.Location {
	return r.loc
}

// DayWindow returns [midnight, next midnight) around t in the region.
func (r Region) DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}

// WeekWindow returns [Monday midnight, next Monday midnight) around t in the
// region.
func (r Region) WeekWindow(t time.Time) (time.Time, time.Time) {
	dayStart, _ := r.DayWindow(t)
	// time.Weekday counts Sunday as 0; shift so Monday is the anchor.
	offset := (int(dayStart.Weekday()) + 6) % 7
	start := dayStart.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// SameDay reports whether a and b fall on the same calendar date in the region.
func (r Region) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(r.loc).Date()
	by, bm, bd := b.In(r.loc).Date()
	return ay == by && am == bm && ad == bd
}

// At returns the absolute instant for the given wall clock on t's date in the
// region.
func (r Region) At(t time.Time, hour, minute int) time.Time {
	local := t.In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, r.loc)
}

// DateString formats t's calendar date in the region as YYYY-MM-DD.
func (r Region) DateString(t time.Time) string {
	return t.In(r.loc).Format("2006-01-02")
}

// ParseClock parses a "15:04" time-of-day string.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	return hour, minute, nil
}
