package notifier

import (
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/rounds"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific delivery channel (email, Slack).
type Notifier interface {
	// SendMatchScheduled notifies the match's own participants right after
	// a schedule or reschedule.
	SendMatchScheduled(m *club.Match, recipients []club.Player, dryRun bool) error
	// SendMatchResult notifies participants that a score was recorded.
	SendMatchResult(m *club.Match, recipients []club.Player, dryRun bool) error
	// SendRoundDigest sends one aggregated email per recipient per batch
	// run, listing all their pending and overdue matches. The players map
	// resolves the listed participants to their display names.
	SendRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error
}
