package rounds_test

import (
	"testing"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/ranking"
	"github.com/clubkit/ladderd/internal/rounds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartAndLabel(t *testing.T) {
	// First Monday of 2026 is January 5th.
	firstMonday := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	t.Run("anchor week starts round one", func(t *testing.T) {
		start := rounds.Start(time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, firstMonday, start)
		assert.Equal(t, "2026-R1", rounds.Label(start))
	})

	t.Run("rounds advance every two weeks", func(t *testing.T) {
		inRoundThree := time.Date(2026, 2, 3, 19, 0, 0, 0, time.UTC)
		start := rounds.Start(inRoundThree)
		assert.Equal(t, firstMonday.AddDate(0, 0, 28), start)
		assert.Equal(t, "2026-R3", rounds.Label(inRoundThree))
	})

	t.Run("window spans fourteen days", func(t *testing.T) {
		start, end := rounds.Window(time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, 14*24*time.Hour, end.Sub(start))
	})

	t.Run("days before the anchor belong to the previous year", func(t *testing.T) {
		newYear := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
		start := rounds.Start(newYear)
		assert.Equal(t, 2025, start.Year())
		assert.True(t, start.Before(newYear))
	})

	t.Run("next is the following round start", func(t *testing.T) {
		inRoundOne := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, firstMonday.AddDate(0, 0, 14), rounds.Next(inRoundOne))
	})
}

func TestClassifyNotificationWindow(t *testing.T) {
	roundStart := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC) // a Monday

	t.Run("round start fires on the start date", func(t *testing.T) {
		got := rounds.ClassifyNotificationWindow(roundStart, date(2026, 2, 2))
		assert.Equal(t, rounds.WindowRoundStart, got)
	})

	t.Run("mid round reminder fires on the second Friday", func(t *testing.T) {
		// First Friday on/after Monday 2026-02-02 is 2026-02-06; +7 = 2026-02-13.
		got := rounds.ClassifyNotificationWindow(roundStart, date(2026, 2, 13))
		assert.Equal(t, rounds.WindowMidRound, got)
	})

	t.Run("every other day is none", func(t *testing.T) {
		for d := 3; d <= 15; d++ {
			if d == 13 {
				continue
			}
			got := rounds.ClassifyNotificationWindow(roundStart, date(2026, 2, d))
			assert.Equal(t, rounds.WindowNone, got, "day %d", d)
		}
	})

	t.Run("a round starting on a Friday counts itself as first Friday", func(t *testing.T) {
		fridayStart := time.Date(2026, 2, 6, 8, 0, 0, 0, time.UTC)
		got := rounds.ClassifyNotificationWindow(fridayStart, date(2026, 2, 13))
		assert.Equal(t, rounds.WindowMidRound, got)
	})
}

func TestRecipientsFor(t *testing.T) {
	players := map[string]club.Player{
		"A": {ID: "A", Email: "a@club.example"},
		"B": {ID: "B", Email: "b@club.example"},
		"C": {ID: "C", Email: "c@club.example"},
		"D": {ID: "D"}, // no email
	}
	m := &club.Match{ChallengerID: "A", ChallengedID: "C"}

	t.Run("singles match notifies both sides", func(t *testing.T) {
		got := rounds.RecipientsFor(m, ranking.Resolve(nil, nil), players)
		assert.ElementsMatch(t, []string{"A", "C"}, got)
	})

	t.Run("doubles expands partners and drops unknown emails", func(t *testing.T) {
		partnerB := "B"
		partnerD := "D"
		lookups := ranking.Resolve([]club.Membership{
			{ID: "m1", PlayerID: "A", PartnerID: &partnerB, Rank: 1},
			{ID: "m2", PlayerID: "C", PartnerID: &partnerD, Rank: 2},
		}, nil)

		got := rounds.RecipientsFor(m, lookups, players)
		require.ElementsMatch(t, []string{"A", "B", "C"}, got, "D has no email and is skipped")
	})
}
