// internal/booking/availability.go
package booking

import (
	"fmt"
	"time"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// AvailabilityQuery describes one court's free-hour computation for one date.
type AvailabilityQuery struct {
	// OpenTime and CloseTime are "15:04" time-of-day strings. Both are
	// required; callers substitute the configured defaults when the
	// facility leaves its hours unset.
	OpenTime  string
	CloseTime string
	// Date is any instant on the target calendar date in the region.
	Date time.Time
	// Bookings are the court's existing active bookings as absolute instants.
	Bookings []Interval
	Now      time.Time
	Duration time.Duration
}

// FreeHours returns the ordered hourly start times ("15:04" strings) on the
// query date at which a booking of the given duration fits: it ends by close,
// starts strictly after now when the date is today, and overlaps no existing
// booking. The result is recomputed from scratch on every call.
func FreeHours(region Region, q AvailabilityQuery) ([]string, error) {
	if q.Duration != time.Hour && q.Duration != 2*time.Hour {
		return nil, fmt.Errorf("duration must be 1 or 2 hours, got %s", q.Duration)
	}

	openHour, openMinute, err := ParseClock(q.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}
	closeHour, closeMinute, err := ParseClock(q.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("close time: %w", err)
	}

	open := region.At(q.Date, openHour, openMinute)
	close := region.At(q.Date, closeHour, closeMinute)
	if !close.After(open) {
		return nil, fmt.Errorf("close time %s is not after open time %s", q.CloseTime, q.OpenTime)
	}

	// Candidates sit on the hourly grid; an open time of 08:30 yields a
	// first candidate of 09:00.
	firstHour := openHour
	if openMinute > 0 {
		firstHour++
	}

	today := region.SameDay(q.Date, q.Now)

	var free []string
	for hour := firstHour; hour <= 23; hour++ {
		start := region.At(q.Date, hour, 0)
		end := start.Add(q.Duration)
		// A slot ending exactly at close is allowed.
		if end.After(close) {
			break
		}
		if today && !start.After(q.Now) {
			continue
		}
		if overlapsAny(Interval{Start: start, End: end}, q.Bookings) {
			continue
		}
		free = append(free, fmt.Sprintf("%02d:00", hour))
	}
	return free, nil
}

func overlapsAny(candidate Interval, bookings []Interval) bool {
	for _, b := range bookings {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
