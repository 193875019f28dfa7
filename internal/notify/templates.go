package notify

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type BookingDetails struct {
	FacilityName string
	CourtName    string
	Date         string
	TimeRange    string
}

// FormatDateTimeRange renders a booking interval as a date line and a time
// range line, both in the given location.
func FormatDateTimeRange(start, end time.Time, loc *time.Location) (string, string) {
	localStart := start.In(loc)
	localEnd := end.In(loc)
	date := localStart.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", localStart.Format("3:04 PM"), localEnd.Format("3:04 PM"), localStart.Format("MST"))
	return date, timeRange
}

func BuildBookingConfirmation(details BookingDetails) Message {
	return buildBookingMessage("Booking Confirmed", "Your court booking is confirmed.", details)
}

func BuildBookingCancellation(details BookingDetails) Message {
	return buildBookingMessage("Booking Cancelled", "Your court booking has been cancelled.", details)
}

func BuildBookingReschedule(details BookingDetails) Message {
	return buildBookingMessage("Booking Rescheduled", "Your court booking has been moved.", details)
}

type WeatherAlertDetails struct {
	FacilityName    string
	Date            string
	TimeRange       string
	RainProbability float64
}

func BuildWeatherAlert(details WeatherAlertDetails) Message {
	facilityName := strings.TrimSpace(details.FacilityName)
	if facilityName == "" {
		facilityName = "your facility"
	}

	subject := fmt.Sprintf("Rain Expected - %s", facilityName)
	lines := []string{
		fmt.Sprintf("Rain is likely (%d%% chance) during your outdoor booking.", int(details.RainProbability)),
		"",
		fmt.Sprintf("Facility: %s", facilityName),
		fmt.Sprintf("Date: %s", details.Date),
		fmt.Sprintf("Time: %s", details.TimeRange),
		"",
		"You can reschedule or cancel the booking free of charge.",
	}

	return Message{Subject: subject, Body: strings.Join(lines, "\n")}
}

func buildBookingMessage(subjectPrefix, lead string, details BookingDetails) Message {
	facilityName := strings.TrimSpace(details.FacilityName)
	if facilityName == "" {
		facilityName = "your facility"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "TBD"
	}

	subject := fmt.Sprintf("%s - %s", subjectPrefix, facilityName)
	lines := []string{
		lead,
		"",
		fmt.Sprintf("Facility: %s", facilityName),
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
	}

	return Message{Subject: subject, Body: strings.Join(lines, "\n")}
}
