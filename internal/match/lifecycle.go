package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
)

var (
	// ErrInvalidScore is returned for negative score input.
	ErrInvalidScore = errors.New("scores must be non-negative integers")
	// ErrForbidden is returned when a non-participant, non-admin actor
	// attempts a participant-only action.
	ErrForbidden = errors.New("forbidden")
	// ErrBadTransition is returned for a status change the lifecycle does
	// not allow.
	ErrBadTransition = errors.New("invalid status transition")
)

// transitions is the allowed status graph. Completed is terminal apart from
// the same-month score correction window; cancelled is terminal outright.
var transitions = map[club.MatchStatus][]club.MatchStatus{
	club.StatusPending:   {club.StatusScheduled, club.StatusCompleted, club.StatusCancelled},
	club.StatusAccepted:  {club.StatusScheduled, club.StatusCompleted, club.StatusCancelled},
	club.StatusScheduled: {club.StatusScheduled, club.StatusCompleted, club.StatusCancelled},
	club.StatusCompleted: {},
	club.StatusCancelled: {},
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another.
func CanTransition(from, to club.MatchStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Result is the outcome of a score submission.
type Result struct {
	WinnerID *string
	Status   club.MatchStatus
	Score    string
}

// SubmitScore validates and settles a score. Equal scores record a draw
// (nil winner); otherwise the higher score's side wins. Only a participant
// or an admin may submit. The match itself is not mutated; the caller
// persists the result.
func SubmitScore(actor identity.Actor, m *club.Match, score1, score2 int) (Result, error) {
	if score1 < 0 || score2 < 0 {
		return Result{}, ErrInvalidScore
	}
	if !m.IsParticipant(actor.PlayerID) && !actor.Elevated() {
		return Result{}, fmt.Errorf("%w: %s is not a participant of match %s", ErrForbidden, actor.PlayerID, m.ID)
	}
	if m.Status == club.StatusCancelled {
		return Result{}, fmt.Errorf("%w: match %s is cancelled", ErrBadTransition, m.ID)
	}

	res := Result{
		Status: club.StatusCompleted,
		Score:  fmt.Sprintf("%d-%d", score1, score2),
	}
	switch {
	case score1 > score2:
		res.WinnerID = &m.ChallengerID
	case score2 > score1:
		res.WinnerID = &m.ChallengedID
	}
	return res, nil
}

// ApplyRankMovement returns the post-match ranks for the challenger and the
// challenged. Ranks swap only on an upset: the challenger won from a
// numerically higher (worse) rank. Any other result, including a draw,
// leaves both ranks alone.
func ApplyRankMovement(challengerRank, challengedRank int, winnerID *string, challengerID string) (int, int, bool) {
	if winnerID == nil {
		return challengerRank, challengedRank, false
	}
	if *winnerID == challengerID && challengerRank > challengedRank {
		return challengedRank, challengerRank, true
	}
	return challengerRank, challengedRank, false
}

// ScheduleTime normalizes a proposed match time: seconds and below are
// dropped, the local offset is kept.
func ScheduleTime(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// CanSchedule reports whether the match may be (re)scheduled.
func CanSchedule(m *club.Match) bool {
	return CanTransition(m.Status, club.StatusScheduled)
}

// CanEditScore implements the same-calendar-month correction window for
// completed matches: the score may be resubmitted while now is in the same
// month as the match's last activity. The reference time is the first
// non-nil of updated, scheduled and created.
func CanEditScore(m *club.Match, now time.Time) bool {
	if m.Status != club.StatusCompleted {
		return true
	}
	ref := m.CreatedAt
	if m.UpdatedAt != 0 {
		ref = m.UpdatedAt
	} else if m.ScheduledAt != nil {
		ref = *m.ScheduledAt
	}
	refTime := time.Unix(ref, 0).In(now.Location())
	return refTime.Year() == now.Year() && refTime.Month() == now.Month()
}
