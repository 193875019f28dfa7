// internal/db/bookings.go
package db

import (
	"context"
	"time"
)

const bookingColumns = "id, user_id, facility_id, court_id, start_time, end_time, status, created_at, updated_at"

// Active bookings are the ones that count toward conflicts and quotas.
const activeStatuses = "('confirmed', 'rescheduled')"

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.FacilityID, &b.CourtID,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

type CreateBookingParams struct {
	UserID     int64
	FacilityID int64
	CourtID    int64
	StartTime  time.Time
	EndTime    time.Time
	Status     string
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, facility_id, court_id, start_time, end_time, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+bookingColumns,
		arg.UserID, arg.FacilityID, arg.CourtID, arg.StartTime, arg.EndTime, arg.Status,
	)
	return scanBooking(row)
}

func (q *Queries) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	return scanBooking(row)
}

type UpdateBookingStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		RETURNING `+bookingColumns,
		arg.Status, arg.ID,
	)
	return scanBooking(row)
}

type ShiftBookingParams struct {
	ID        int64
	StartTime time.Time
	EndTime   time.Time
}

// ShiftBooking moves a booking to a new interval and marks it rescheduled.
func (q *Queries) ShiftBooking(ctx context.Context, arg ShiftBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE bookings
		SET start_time = ?, end_time = ?, status = 'rescheduled', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING `+bookingColumns,
		arg.StartTime, arg.EndTime, arg.ID,
	)
	return scanBooking(row)
}

type CountActiveOverlapsParams struct {
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	// ExcludeBookingID lets a reschedule ignore the booking's own row.
	ExcludeBookingID int64
}

// CountActiveOverlaps counts active bookings on a court whose [start, end)
// interval overlaps the given one, using the half-open test
// aStart < bEnd AND aEnd > bStart.
func (q *Queries) CountActiveOverlaps(ctx context.Context, arg CountActiveOverlapsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE court_id = ?
		  AND status IN `+activeStatuses+`
		  AND start_time < ?
		  AND end_time > ?
		  AND id != ?`,
		arg.CourtID, arg.EndTime, arg.StartTime, arg.ExcludeBookingID,
	).Scan(&count)
	return count, err
}

type ListActiveBookingsForCourtParams struct {
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
}

// ListActiveBookingsForCourt returns active bookings on a court overlapping
// the given window, ordered by start time.
func (q *Queries) ListActiveBookingsForCourt(ctx context.Context, arg ListActiveBookingsForCourtParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE court_id = ?
		  AND status IN `+activeStatuses+`
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time ASC`,
		arg.CourtID, arg.EndTime, arg.StartTime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

type CountUserBookingsStartingBetweenParams struct {
	UserID    int64
	StartTime time.Time
	EndTime   time.Time
}

// CountUserBookingsStartingBetween counts a user's active bookings whose
// start falls inside [StartTime, EndTime). Used for the quota windows.
func (q *Queries) CountUserBookingsStartingBetween(ctx context.Context, arg CountUserBookingsStartingBetweenParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE user_id = ?
		  AND status IN `+activeStatuses+`
		  AND start_time >= ?
		  AND start_time < ?`,
		arg.UserID, arg.StartTime, arg.EndTime,
	).Scan(&count)
	return count, err
}

func (q *Queries) ListBookingsForUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = ?
		ORDER BY start_time DESC
		LIMIT 100`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

type ListBookingsByFacilityBetweenParams struct {
	FacilityID int64
	StartTime  time.Time
	EndTime    time.Time
}

func (q *Queries) ListBookingsByFacilityBetween(ctx context.Context, arg ListBookingsByFacilityBetweenParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE facility_id = ?
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time ASC`,
		arg.FacilityID, arg.EndTime, arg.StartTime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

type ListActiveBookingsByFacilityBetweenParams struct {
	FacilityID int64
	StartTime  time.Time
	EndTime    time.Time
}

// ListActiveBookingsByFacilityBetween returns active bookings starting inside
// the window. The weather sweep uses it to find who to warn.
func (q *Queries) ListActiveBookingsByFacilityBetween(ctx context.Context, arg ListActiveBookingsByFacilityBetweenParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE facility_id = ?
		  AND status IN `+activeStatuses+`
		  AND start_time >= ?
		  AND start_time < ?
		ORDER BY start_time ASC`,
		arg.FacilityID, arg.StartTime, arg.EndTime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CompleteExpiredBookings flips confirmed/rescheduled bookings whose end has
// passed to completed. Returns the number of rows changed.
func (q *Queries) CompleteExpiredBookings(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'completed', updated_at = CURRENT_TIMESTAMP
		WHERE status IN `+activeStatuses+`
		  AND end_time <= ?`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func collectBookings(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
