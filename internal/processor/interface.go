package processor

import (
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
)

// MatchProcessor defines the workflows the transport layer drives.
type MatchProcessor interface {
	CompleteMatch(actor identity.Actor, matchID string, score1, score2 int, dryRun bool) (*club.Match, error)
	ScheduleMatch(actor identity.Actor, matchID string, at time.Time, dryRun bool) (*club.Match, error)
	ReorderLadder(actor identity.Actor, ladderID, membershipID string, newRank int, dryRun bool) error
	ReconcileLadder(ladderID string, dryRun bool) (int, error)
	NotifyRoundWindow(today time.Time, dryRun bool) (int, error)
}
