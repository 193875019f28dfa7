// internal/db/events.go
package db

import (
	"context"
	"time"
)

const bookingEventColumns = "id, booking_id, event_type, facility_id, court_id, start_time, end_time, created_at, dispatched_at"

func scanBookingEvent(row interface{ Scan(...any) error }) (BookingEvent, error) {
	var e BookingEvent
	err := row.Scan(&e.ID, &e.BookingID, &e.EventType, &e.FacilityID, &e.CourtID,
		&e.StartTime, &e.EndTime, &e.CreatedAt, &e.DispatchedAt)
	return e, err
}

type InsertBookingEventParams struct {
	ID         string
	BookingID  int64
	EventType  string
	FacilityID int64
	CourtID    int64
	StartTime  time.Time
	EndTime    time.Time
}

func (q *Queries) InsertBookingEvent(ctx context.Context, arg InsertBookingEventParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO booking_events (id, booking_id, event_type, facility_id, court_id, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.BookingID, arg.EventType, arg.FacilityID, arg.CourtID, arg.StartTime, arg.EndTime,
	)
	return err
}

// ListPendingBookingEvents returns undispatched events oldest first, capped at
// limit, for the dispatcher's poll-batch-send sweep.
func (q *Queries) ListPendingBookingEvents(ctx context.Context, limit int64) ([]BookingEvent, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingEventColumns+` FROM booking_events
		WHERE dispatched_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []BookingEvent
	for rows.Next() {
		e, err := scanBookingEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (q *Queries) MarkBookingEventDispatched(ctx context.Context, id string, dispatchedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE booking_events SET dispatched_at = ? WHERE id = ?`,
		dispatchedAt, id,
	)
	return err
}

type UpsertWeatherAlertParams struct {
	FacilityID      int64
	AlertDate       string
	RainProbability float64
	Message         string
}

func (q *Queries) UpsertWeatherAlert(ctx context.Context, arg UpsertWeatherAlertParams) (WeatherAlert, error) {
	var alert WeatherAlert
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO weather_alerts (facility_id, alert_date, rain_probability, message)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (facility_id, alert_date)
		DO UPDATE SET rain_probability = excluded.rain_probability, message = excluded.message
		RETURNING id, facility_id, alert_date, rain_probability, message, created_at`,
		arg.FacilityID, arg.AlertDate, arg.RainProbability, arg.Message,
	).Scan(&alert.ID, &alert.FacilityID, &alert.AlertDate, &alert.RainProbability, &alert.Message, &alert.CreatedAt)
	return alert, err
}

func (q *Queries) ListWeatherAlertsForDate(ctx context.Context, alertDate string) ([]WeatherAlert, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, facility_id, alert_date, rain_probability, message, created_at
		FROM weather_alerts
		WHERE alert_date = ?
		ORDER BY facility_id ASC`,
		alertDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []WeatherAlert
	for rows.Next() {
		var a WeatherAlert
		if err := rows.Scan(&a.ID, &a.FacilityID, &a.AlertDate, &a.RainProbability, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
