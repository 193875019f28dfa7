// internal/booking/limits.go
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/courtsidehq/courtside/internal/db"
)

// LimitPolicy enforces the per-user daily and weekly booking quotas. Both
// windows are computed in the region's calendar; the checks are independent
// and both must pass.
type LimitPolicy struct {
	MaxPerDay  int
	MaxPerWeek int
	Region     Region
}

// Check rejects with ErrBookingLimitReached when the user is already at
// either limit before the candidate booking would be added.
func (p LimitPolicy) Check(ctx context.Context, q *db.Queries, userID int64, start time.Time) error {
	dayStart, dayEnd := p.Region.DayWindow(start)
	dayCount, err := q.CountUserBookingsStartingBetween(ctx, db.CountUserBookingsStartingBetweenParams{
		UserID:    userID,
		StartTime: dayStart.UTC(),
		EndTime:   dayEnd.UTC(),
	})
	if err != nil {
		return fmt.Errorf("count daily bookings: %w", err)
	}
	if dayCount >= int64(p.MaxPerDay) {
		return fmt.Errorf("%w: at most %d bookings per day", ErrBookingLimitReached, p.MaxPerDay)
	}

	weekStart, weekEnd := p.Region.WeekWindow(start)
	weekCount, err := q.CountUserBookingsStartingBetween(ctx, db.CountUserBookingsStartingBetweenParams{
		UserID:    userID,
		StartTime: weekStart.UTC(),
		EndTime:   weekEnd.UTC(),
	})
	if err != nil {
		return fmt.Errorf("count weekly bookings: %w", err)
	}
	if weekCount >= int64(p.MaxPerWeek) {
		return fmt.Errorf("%w: at most %d bookings per week", ErrBookingLimitReached, p.MaxPerWeek)
	}

	return nil
}
