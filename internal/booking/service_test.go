package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()

	database := testutil.NewTestDB(t)
	svc, err := NewService(database, config.BookingConfig{
		Timezone:         "Asia/Bangkok",
		MaxPerDay:        2,
		MaxPerWeek:       7,
		DefaultOpenTime:  "08:00",
		DefaultCloseTime: "22:00",
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc, database
}

func seedUser(t *testing.T, database *db.DB, email string) int64 {
	t.Helper()
	user, err := database.Queries.CreateUser(context.Background(), db.CreateUserParams{
		Email: email,
		Name:  "Test User",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedFacility(t *testing.T, database *db.DB, name string, courtNames ...string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()
	facility, err := database.Queries.CreateFacility(ctx, db.CreateFacilityParams{
		Name:  name,
		Sport: "badminton",
	})
	if err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	var courtIDs []int64
	for _, courtName := range courtNames {
		court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
			FacilityID: facility.ID,
			Name:       courtName,
		})
		if err != nil {
			t.Fatalf("seed court: %v", err)
		}
		courtIDs = append(courtIDs, court.ID)
	}
	return facility.ID, courtIDs
}

func TestCreateBooking_Unauthorized(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{},
		FacilityID: 1,
		StartTime:  time.Now(),
		EndTime:    time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateBooking_SpecificCourt(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1", "Court 2")

	start := bkk(t, 2026, time.March, 14, 14, 0)
	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if booking.CourtID != courtIDs[0] {
		t.Fatalf("court: got %d, want %d", booking.CourtID, courtIDs[0])
	}
	if booking.Status != StatusConfirmed {
		t.Fatalf("status: %s", booking.Status)
	}

	// The exact interval is now taken on that court.
	_, err = svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: seedUser(t, database, "other@example.com")},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrNoCourtAvailable) {
		t.Fatalf("expected ErrNoCourtAvailable, got %v", err)
	}
}

func TestCreateBooking_AnyCourtScansByName(t *testing.T) {
	svc, database := newTestService(t)
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court B", "Court A")

	start := bkk(t, 2026, time.March, 14, 10, 0)

	first, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: seedUser(t, database, "one@example.com")},
		FacilityID: facilityID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	// "Court A" sorts first even though it was created second.
	if first.CourtID != courtIDs[1] {
		t.Fatalf("court: got %d, want %d (Court A)", first.CourtID, courtIDs[1])
	}

	second, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: seedUser(t, database, "two@example.com")},
		FacilityID: facilityID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if second.CourtID != courtIDs[0] {
		t.Fatalf("court: got %d, want %d (Court B)", second.CourtID, courtIDs[0])
	}

	_, err = svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: seedUser(t, database, "three@example.com")},
		FacilityID: facilityID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrNoCourtAvailable) {
		t.Fatalf("expected ErrNoCourtAvailable, got %v", err)
	}
}

func TestCreateBooking_CourtFromAnotherFacility(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityA, _ := seedFacility(t, database, "Facility A", "Court 1")
	_, courtsB := seedFacility(t, database, "Facility B", "Court 1")

	start := bkk(t, 2026, time.March, 14, 10, 0)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityA,
		CourtID:    courtsB[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidCourt) {
		t.Fatalf("expected ErrInvalidCourt, got %v", err)
	}

	bookings, err := database.Queries.ListBookingsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 0 {
		t.Fatalf("expected no rows written, got %d", len(bookings))
	}
}

func TestCreateBooking_InactiveCourt(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	if _, err := database.Queries.UpdateCourt(context.Background(), db.UpdateCourtParams{
		ID:       courtIDs[0],
		Name:     "Court 1",
		IsActive: false,
	}); err != nil {
		t.Fatalf("deactivate court: %v", err)
	}

	start := bkk(t, 2026, time.March, 14, 10, 0)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidCourt) {
		t.Fatalf("expected ErrInvalidCourt, got %v", err)
	}
}

func TestCreateBooking_DailyLimit(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1", "Court 2", "Court 3")

	ctx := context.Background()
	for hour := 10; hour <= 11; hour++ {
		start := bkk(t, 2026, time.March, 14, hour, 0)
		if _, err := svc.CreateBooking(ctx, CreateBookingParams{
			Actor:      Actor{UserID: userID},
			FacilityID: facilityID,
			CourtID:    courtIDs[0],
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
		}); err != nil {
			t.Fatalf("create booking %d: %v", hour, err)
		}
	}

	// Third booking on the same local day is rejected no matter the court.
	start := bkk(t, 2026, time.March, 14, 18, 0)
	_, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[2],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrBookingLimitReached) {
		t.Fatalf("expected ErrBookingLimitReached, got %v", err)
	}

	// The next local day is fine again.
	start = bkk(t, 2026, time.March, 15, 10, 0)
	if _, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create booking next day: %v", err)
	}
}

func TestCreateBooking_WeeklyLimit(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	// 2026-03-09 is a Monday. Two bookings a day for three days, then one
	// more on Thursday, reaches the weekly limit of 7.
	created := 0
	for day := 9; day <= 12 && created < 7; day++ {
		for _, hour := range []int{10, 14} {
			if created == 7 {
				break
			}
			start := bkk(t, 2026, time.March, day, hour, 0)
			if _, err := svc.CreateBooking(ctx, CreateBookingParams{
				Actor:      Actor{UserID: userID},
				FacilityID: facilityID,
				CourtID:    courtIDs[0],
				StartTime:  start,
				EndTime:    start.Add(time.Hour),
			}); err != nil {
				t.Fatalf("create booking day %d hour %d: %v", day, hour, err)
			}
			created++
		}
	}

	start := bkk(t, 2026, time.March, 13, 10, 0)
	_, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if !errors.Is(err, ErrBookingLimitReached) {
		t.Fatalf("expected ErrBookingLimitReached, got %v", err)
	}

	// The following Monday opens a fresh week window.
	start = bkk(t, 2026, time.March, 16, 10, 0)
	if _, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create booking next week: %v", err)
	}
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	svc, database := newTestService(t)
	facilityID, _ := seedFacility(t, database, "Riverside Arena", "Court 1")
	userA := seedUser(t, database, "a@example.com")
	userB := seedUser(t, database, "b@example.com")

	start := bkk(t, 2026, time.March, 14, 10, 0)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, userID := range []int64{userA, userB} {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, results[i] = svc.CreateBooking(context.Background(), CreateBookingParams{
				Actor:      Actor{UserID: userID},
				FacilityID: facilityID,
				StartTime:  start,
				EndTime:    start.Add(time.Hour),
			})
		}(i, userID)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrNoCourtAvailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
	}

	assertNoActiveOverlaps(t, database)
}

func TestCreateBooking_EquipmentRequest(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	racket, err := database.Queries.CreateEquipment(ctx, db.CreateEquipmentParams{
		FacilityID:        facilityID,
		Name:              "Racket",
		TotalQuantity:     10,
		AvailableQuantity: 10,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}

	start := bkk(t, 2026, time.March, 14, 10, 0)
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:        Actor{UserID: userID},
		FacilityID:   facilityID,
		CourtID:      courtIDs[0],
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		EquipmentIDs: []int64{racket.ID, racket.ID},
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	request, err := database.Queries.GetEquipmentRequestForBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("load equipment request: %v", err)
	}
	if request.Status != "pending" {
		t.Fatalf("request status: %s", request.Status)
	}

	items, err := database.Queries.ListEquipmentRequestItems(ctx, request.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected duplicate ids collapsed to 1 item, got %d", len(items))
	}
	if items[0].Quantity != 1 {
		t.Fatalf("quantity: %d", items[0].Quantity)
	}
}

func TestCreateBooking_EquipmentFromAnotherFacilityRollsBack(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityA, courtsA := seedFacility(t, database, "Facility A", "Court 1")
	facilityB, _ := seedFacility(t, database, "Facility B", "Court 1")

	ctx := context.Background()
	foreign, err := database.Queries.CreateEquipment(ctx, db.CreateEquipmentParams{
		FacilityID:        facilityB,
		Name:              "Shuttlecock",
		TotalQuantity:     5,
		AvailableQuantity: 5,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}

	start := bkk(t, 2026, time.March, 14, 10, 0)
	_, err = svc.CreateBooking(ctx, CreateBookingParams{
		Actor:        Actor{UserID: userID},
		FacilityID:   facilityA,
		CourtID:      courtsA[0],
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		EquipmentIDs: []int64{foreign.ID},
	})
	if !errors.Is(err, ErrInvalidEquipment) {
		t.Fatalf("expected ErrInvalidEquipment, got %v", err)
	}

	bookings, err := database.Queries.ListBookingsForUser(ctx, userID)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 0 {
		t.Fatalf("expected rollback, found %d bookings", len(bookings))
	}
}

func TestCancelBooking_FreesSlot(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	start := bkk(t, 2026, time.March, 14, 10, 0)
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	cancelled, err := svc.CancelBooking(ctx, Actor{UserID: userID}, booking.ID)
	if err != nil {
		t.Fatalf("cancel booking: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status: %s", cancelled.Status)
	}

	// The slot is bookable again; cancelled rows do not count.
	otherID := seedUser(t, database, "other@example.com")
	if _, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: otherID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("rebook cancelled slot: %v", err)
	}
}

func TestCancelBooking_OnlyOwnerOrAdmin(t *testing.T) {
	svc, database := newTestService(t)
	ownerID := seedUser(t, database, "owner@example.com")
	strangerID := seedUser(t, database, "stranger@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	start := bkk(t, 2026, time.March, 14, 10, 0)
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: ownerID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if _, err := svc.CancelBooking(ctx, Actor{UserID: strangerID}, booking.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.CancelBooking(ctx, Actor{UserID: strangerID, IsAdmin: true}, booking.ID); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestRescheduleBooking(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	otherID := seedUser(t, database, "other@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	start := bkk(t, 2026, time.March, 14, 10, 0)
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	blocker := bkk(t, 2026, time.March, 14, 15, 0)
	if _, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: otherID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  blocker,
		EndTime:    blocker.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	// Moving onto the blocker conflicts.
	if _, err := svc.RescheduleBooking(ctx, Actor{UserID: userID}, booking.ID, blocker, blocker.Add(time.Hour)); !errors.Is(err, ErrNoCourtAvailable) {
		t.Fatalf("expected ErrNoCourtAvailable, got %v", err)
	}

	// Shifting within the same hour succeeds: the booking's own row is
	// excluded from the overlap check.
	shifted, err := svc.RescheduleBooking(ctx, Actor{UserID: userID}, booking.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if shifted.Status != StatusRescheduled {
		t.Fatalf("status: %s", shifted.Status)
	}

	assertNoActiveOverlaps(t, database)
}

func TestFacilityAvailability(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1", "Court 2")

	ctx := context.Background()
	start := bkk(t, 2026, time.March, 14, 14, 0)
	if _, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	now := bkk(t, 2026, time.March, 13, 9, 0)
	availability, err := svc.FacilityAvailability(ctx, facilityID, bkk(t, 2026, time.March, 14, 0, 0), time.Hour, now)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(availability) != 2 {
		t.Fatalf("expected 2 courts, got %d", len(availability))
	}

	byName := map[string][]string{}
	for _, court := range availability {
		byName[court.CourtName] = court.FreeHours
	}
	if contains(byName["Court 1"], "14:00") {
		t.Fatalf("Court 1 should not offer 14:00: %v", byName["Court 1"])
	}
	if !contains(byName["Court 2"], "14:00") {
		t.Fatalf("Court 2 should offer 14:00: %v", byName["Court 2"])
	}
}

func TestCreateBooking_EnqueuesOutboxEvent(t *testing.T) {
	svc, database := newTestService(t)
	userID := seedUser(t, database, "player@example.com")
	facilityID, courtIDs := seedFacility(t, database, "Riverside Arena", "Court 1")

	ctx := context.Background()
	start := bkk(t, 2026, time.March, 14, 10, 0)
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{
		Actor:      Actor{UserID: userID},
		FacilityID: facilityID,
		CourtID:    courtIDs[0],
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	events, err := database.Queries.ListPendingBookingEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(events))
	}
	if events[0].BookingID != booking.ID || events[0].EventType != EventCreated {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

// assertNoActiveOverlaps checks the ledger invariant directly: no two active
// bookings on the same court may overlap.
func assertNoActiveOverlaps(t *testing.T, database *db.DB) {
	t.Helper()

	var count int64
	err := database.QueryRowContext(context.Background(), `
		SELECT COUNT(*)
		FROM bookings a
		JOIN bookings b ON a.court_id = b.court_id AND a.id < b.id
		WHERE a.status IN ('confirmed', 'rescheduled')
		  AND b.status IN ('confirmed', 'rescheduled')
		  AND a.start_time < b.end_time
		  AND a.end_time > b.start_time`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("overlap query: %v", err)
	}
	if count != 0 {
		t.Fatalf("found %d overlapping active booking pairs", count)
	}
}
