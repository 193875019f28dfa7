// Package chat answers common booking questions with fuzzy intent matching.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
)

// matchThreshold is the maximum Levenshtein rank accepted for a fuzzy hit;
// higher ranks are noise.
const matchThreshold = 12

type Assistant struct {
	queries *db.Queries
	booking config.BookingConfig
}

func NewAssistant(q *db.Queries, cfg config.BookingConfig) *Assistant {
	return &Assistant{queries: q, booking: cfg}
}

type intent struct {
	keywords []string
	answer   func(a *Assistant) string
}

var intents = []intent{
	{
		keywords: []string{"limit", "quota", "how many bookings", "maximum"},
		answer: func(a *Assistant) string {
			return fmt.Sprintf(
				"You can hold up to %d bookings per day and %d per week. Days and weeks follow the %s calendar, with weeks starting on Monday.",
				a.booking.MaxPerDay, a.booking.MaxPerWeek, a.booking.Timezone)
		},
	},
	{
		keywords: []string{"cancel", "cancellation", "refund"},
		answer: func(a *Assistant) string {
			return "You can cancel any upcoming booking from your bookings list. The slot opens up for other players immediately."
		},
	},
	{
		keywords: []string{"reschedule", "move", "change time"},
		answer: func(a *Assistant) string {
			return "You can reschedule an upcoming booking to any free slot on the same court. Rescheduling does not count against your booking quota."
		},
	},
	{
		keywords: []string{"hours", "open", "close", "opening"},
		answer: func(a *Assistant) string {
			return fmt.Sprintf("Facilities are open from %s to %s unless they set their own hours. Ask about a facility by name for its exact hours.",
				a.booking.DefaultOpenTime, a.booking.DefaultCloseTime)
		},
	},
	{
		keywords: []string{"equipment", "racket", "rental", "borrow"},
		answer: func(a *Assistant) string {
			return "You can request equipment when you create a booking. Requests are confirmed by facility staff before your session."
		},
	},
	{
		keywords: []string{"rain", "weather", "forecast"},
		answer: func(a *Assistant) string {
			return "We watch the forecast for outdoor facilities. If heavy rain is likely during your booking you get an alert and can reschedule or cancel for free."
		},
	},
}

// Answer matches the question to an intent or a facility name and returns a
// reply. The fallback reply lists what the assistant can help with.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return fallbackReply, nil
	}

	if reply, ok, err := a.facilityReply(ctx, normalized); err != nil {
		return "", err
	} else if ok {
		return reply, nil
	}

	if best := bestIntent(normalized); best != nil {
		return best.answer(a), nil
	}

	return fallbackReply, nil
}

const fallbackReply = "I can help with booking limits, cancellations, rescheduling, opening hours, equipment rentals, and weather alerts. You can also ask about a facility by name."

func bestIntent(question string) *intent {
	bestRank := matchThreshold + 1
	var best *intent
	for i := range intents {
		for _, keyword := range intents[i].keywords {
			rank := keywordRank(question, keyword)
			if rank >= 0 && rank < bestRank {
				bestRank = rank
				best = &intents[i]
			}
		}
	}
	return best
}

// keywordRank scores keyword against the question's words so a typo like
// "cancelation" still hits the cancellation intent.
func keywordRank(question, keyword string) int {
	if strings.Contains(question, keyword) {
		return 0
	}
	best := -1
	for _, word := range strings.Fields(question) {
		rank := fuzzy.RankMatchNormalizedFold(keyword, word)
		if rank >= 0 && rank <= matchThreshold && (best < 0 || rank < best) {
			best = rank
		}
	}
	return best
}

func (a *Assistant) facilityReply(ctx context.Context, question string) (string, bool, error) {
	facilities, err := a.queries.ListFacilities(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list facilities: %w", err)
	}

	names := make([]string, len(facilities))
	for i, facility := range facilities {
		names[i] = strings.ToLower(facility.Name)
	}

	bestRank := matchThreshold + 1
	bestIdx := -1
	for i, name := range names {
		if strings.Contains(question, name) {
			bestIdx = i
			break
		}
		rank := fuzzy.RankMatchNormalizedFold(name, question)
		if rank >= 0 && rank < bestRank {
			bestRank = rank
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return "", false, nil
	}

	facility := facilities[bestIdx]
	if !facility.IsActive {
		return fmt.Sprintf("%s is currently closed for bookings.", facility.Name), true, nil
	}

	openTime := a.booking.DefaultOpenTime
	if facility.OpenTime.Valid {
		openTime = facility.OpenTime.String
	}
	closeTime := a.booking.DefaultCloseTime
	if facility.CloseTime.Valid {
		closeTime = facility.CloseTime.String
	}

	courts, err := a.queries.ListActiveCourts(ctx, facility.ID)
	if err != nil {
		return "", false, fmt.Errorf("list courts: %w", err)
	}

	setting := "indoor"
	if !facility.IsIndoor {
		setting = "outdoor"
	}
	return fmt.Sprintf("%s has %d %s %s court(s), open %s to %s. Check the availability page for free slots.",
		facility.Name, len(courts), setting, facility.Sport, openTime, closeTime), true, nil
}
