package chat

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func newTestAssistant(t *testing.T) (*Assistant, *db.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	assistant := NewAssistant(database.Queries, config.BookingConfig{
		Timezone:         "Asia/Bangkok",
		MaxPerDay:        2,
		MaxPerWeek:       7,
		DefaultOpenTime:  "08:00",
		DefaultCloseTime: "22:00",
	})
	return assistant, database
}

func TestAnswer_BookingLimits(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	reply, err := assistant.Answer(context.Background(), "how many bookings can I make per week?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(reply, "2 bookings per day") || !strings.Contains(reply, "7 per week") {
		t.Fatalf("reply: %s", reply)
	}
}

func TestAnswer_TypoStillMatches(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	reply, err := assistant.Answer(context.Background(), "what is your cancelation policy")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(reply, "cancel") {
		t.Fatalf("reply: %s", reply)
	}
}

func TestAnswer_FacilityByName(t *testing.T) {
	assistant, database := newTestAssistant(t)
	ctx := context.Background()

	facility, err := database.Queries.CreateFacility(ctx, db.CreateFacilityParams{
		Name:      "Riverside Arena",
		Sport:     "badminton",
		IsIndoor:  true,
		OpenTime:  sql.NullString{String: "09:00", Valid: true},
		CloseTime: sql.NullString{String: "21:00", Valid: true},
	})
	if err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	for _, name := range []string{"Court 1", "Court 2"} {
		if _, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
			FacilityID: facility.ID,
			Name:       name,
		}); err != nil {
			t.Fatalf("seed court: %v", err)
		}
	}

	reply, err := assistant.Answer(ctx, "when is riverside arena open?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(reply, "Riverside Arena") || !strings.Contains(reply, "09:00 to 21:00") {
		t.Fatalf("reply: %s", reply)
	}
	if !strings.Contains(reply, "2 indoor") {
		t.Fatalf("reply: %s", reply)
	}
}

func TestAnswer_Fallback(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	reply, err := assistant.Answer(context.Background(), "zzzzzz qqqq")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if reply != fallbackReply {
		t.Fatalf("reply: %s", reply)
	}

	empty, err := assistant.Answer(context.Background(), "   ")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if empty != fallbackReply {
		t.Fatalf("reply: %s", empty)
	}
}
