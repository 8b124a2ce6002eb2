package ranking

import (
	"math"

	"github.com/clubkit/ladderd/internal/club"
)

// Predict computes a projected post-round rank for the player from the
// round's completed matches. It is a display heuristic only and never writes
// to the rank table.
//
// Wins against better-ranked opponents (lower rank number) collect that
// opponent's rank as upset evidence; losses against worse-ranked opponents
// collect downset evidence. All-won rounds project to the best upset rank,
// all-lost rounds to the worst downset rank, mixed rounds to the rounded
// midpoint of the two averages. Without qualifying evidence the rank is
// unchanged; without matches there is no prediction.
func Predict(playerID string, currentRank int, roundMatches []*club.Match, lookups Lookups) (int, bool) {
	var (
		wins, losses int
		higherBeaten []int
		lowerLost    []int
	)

	for _, m := range roundMatches {
		if m.Status != club.StatusCompleted || !m.IsParticipant(playerID) {
			continue
		}
		if m.WinnerID == nil {
			// Draws carry no movement evidence.
			continue
		}

		opponentID := m.ChallengerID
		if opponentID == playerID {
			opponentID = m.ChallengedID
		}
		opponentRank, known := lookups.RankByPlayer[opponentID]
		won := *m.WinnerID == playerID

		if won {
			wins++
			if known && opponentRank < currentRank {
				higherBeaten = append(higherBeaten, opponentRank)
			}
		} else {
			losses++
			if known && opponentRank > currentRank {
				lowerLost = append(lowerLost, opponentRank)
			}
		}
	}

	if wins == 0 && losses == 0 {
		return 0, false
	}

	switch {
	case losses == 0:
		if len(higherBeaten) > 0 {
			return minInt(higherBeaten), true
		}
		return currentRank, true
	case wins == 0:
		if len(lowerLost) > 0 {
			return maxInt(lowerLost), true
		}
		return currentRank, true
	default:
		if len(higherBeaten) > 0 && len(lowerLost) > 0 {
			mid := (avg(higherBeaten) + avg(lowerLost)) / 2
			return int(math.Round(mid)), true
		}
		return currentRank, true
	}
}

func minInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func avg(xs []int) float64 {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
