package rounds

import (
	"fmt"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/ranking"
)

// Rounds run on a fixed two-week cadence starting Monday 08:00 local time,
// anchored at the first Monday of the calendar year.
const (
	Cadence   = 14 * 24 * time.Hour
	StartHour = 8
)

// NotificationWindow classifies which batch notification a date falls in.
type NotificationWindow string

const (
	WindowRoundStart NotificationWindow = "round_start"
	WindowMidRound   NotificationWindow = "mid_round_reminder"
	WindowNone       NotificationWindow = "none"
)

// anchor returns the first Monday of the year at 08:00 in t's location.
func anchor(year int, loc *time.Location) time.Time {
	t := time.Date(year, time.January, 1, StartHour, 0, 0, 0, loc)
	offset := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

// Start returns the start of the round containing t.
func Start(t time.Time) time.Time {
	a := anchor(t.Year(), t.Location())
	if t.Before(a) {
		a = anchor(t.Year()-1, t.Location())
	}
	rounds := t.Sub(a) / Cadence
	return a.Add(rounds * Cadence)
}

// Window returns the start and end of the round containing t.
func Window(t time.Time) (time.Time, time.Time) {
	start := Start(t)
	return start, start.Add(Cadence)
}

// Label returns the round label for t, e.g. "2026-R6". The sequence counts
// two-week periods from the year's anchor, starting at 1. Labels are for
// display and grouping; chronological ordering uses the round start date.
func Label(t time.Time) string {
	start := Start(t)
	a := anchor(start.Year(), t.Location())
	seq := int(start.Sub(a)/Cadence) + 1
	return fmt.Sprintf("%d-R%d", start.Year(), seq)
}

// Next returns the start of the round after the one containing t.
func Next(t time.Time) time.Time {
	return Start(t).Add(Cadence)
}

// ClassifyNotificationWindow decides which batch applies on a given day:
// round_start on the round's start date, mid_round_reminder on the second
// Friday after the start (first Friday on/after the start, plus seven days),
// none otherwise. Comparison is by calendar date so the batch can run at any
// hour.
func ClassifyNotificationWindow(roundStart, today time.Time) NotificationWindow {
	if sameDate(roundStart, today) {
		return WindowRoundStart
	}
	if sameDate(midRoundReminderDate(roundStart), today) {
		return WindowMidRound
	}
	return WindowNone
}

func midRoundReminderDate(roundStart time.Time) time.Time {
	daysToFriday := (int(time.Friday) - int(roundStart.Weekday()) + 7) % 7
	firstFriday := roundStart.AddDate(0, 0, daysToFriday)
	return firstFriday.AddDate(0, 0, 7)
}

func sameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// RecipientsFor expands both sides of a match into their full teams via the
// partner map and returns the ids that have a known email, de-duplicated.
func RecipientsFor(m *club.Match, lookups ranking.Lookups, playersByID map[string]club.Player) []string {
	seen := make(map[string]bool)
	var recipients []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		if p, ok := playersByID[id]; ok && p.Email != "" {
			recipients = append(recipients, id)
		}
	}

	for _, side := range []string{m.ChallengerID, m.ChallengedID} {
		add(side)
		if partner, ok := lookups.PartnerByPlayer[side]; ok {
			add(partner)
		}
	}
	return recipients
}
