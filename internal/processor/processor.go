package processor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
	"github.com/clubkit/ladderd/internal/match"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/pubsub"
	"github.com/clubkit/ladderd/internal/ranking"
	"github.com/clubkit/ladderd/internal/rounds"
	"golang.org/x/time/rate"
)

// The email provider caps us at 2 requests per second; pacing digest sends
// at one per 550ms keeps batch runs comfortably under the limit.
const digestSendInterval = 550 * time.Millisecond

var _ MatchProcessor = (*Processor)(nil)

// New creates a new Processor.
func New(store club.ClubStore, notifier notifier.Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		store:    store,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
		limiter:  rate.NewLimiter(rate.Every(digestSendInterval), 1),
	}
}

// CompleteMatch settles a score, persists the result, applies the rank swap
// on an upset and notifies the participants. Notification failures are
// logged, never surfaced; the result is already persisted at that point.
func (p *Processor) CompleteMatch(actor identity.Actor, matchID string, score1, score2 int, dryRun bool) (*club.Match, error) {
	startTime := time.Now()

	m, err := p.store.GetMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if !match.CanEditScore(m, time.Now()) {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrEditWindowClosed)
	}

	res, err := match.SubmitScore(actor, m, score1, score2)
	if err != nil {
		return nil, err
	}

	if dryRun {
		log.Info("[Dry Run] Would complete match", "matchID", matchID, "score", res.Score, "winnerID", res.WinnerID)
		return m, nil
	}

	if err := p.store.CompleteMatch(matchID, res.WinnerID, res.Score, score1, score2); err != nil {
		return nil, fmt.Errorf("failed to persist match result: %w", err)
	}
	m.Status = res.Status
	m.WinnerID = res.WinnerID
	m.Score = &res.Score
	m.Score1 = &score1
	m.Score2 = &score2
	p.metrics.IncMatchesCompleted()
	log.Info("Match completed", "matchID", matchID, "score", res.Score)

	memberships, err := p.store.GetMemberships(m.LadderID)
	if err != nil {
		log.Error("Failed to load memberships for rank movement", "error", err, "ladderID", m.LadderID)
		memberships = nil
	}
	lookups := ranking.Resolve(memberships, nil)
	p.applyRankMovement(m, res.WinnerID, lookups)

	if err := p.pubsub.SendMessage(string(pubsub.EventMatchCompleted), m); err != nil {
		log.Error("Failed to publish match completed event", "error", err, "matchID", matchID)
	}
	if err := p.notifier.SendMatchResult(m, p.matchPlayers(m, lookups), dryRun); err != nil {
		log.Error("Failed to send result notification", "error", err, "matchID", matchID)
	}

	p.metrics.ObserveProcessingDuration(time.Since(startTime).Seconds())
	return m, nil
}

// applyRankMovement swaps the two sides' ranks when the challenger won from
// below. Both writes land in one transaction via ApplyRanks.
func (p *Processor) applyRankMovement(m *club.Match, winnerID *string, lookups ranking.Lookups) {
	challengerRank, okC := lookups.RankByPlayer[m.ChallengerID]
	challengedRank, okD := lookups.RankByPlayer[m.ChallengedID]
	if !okC || !okD {
		log.Warn("Skipping rank movement, one side has no membership", "matchID", m.ID, "ladderID", m.LadderID)
		return
	}

	newChallenger, newChallenged, swapped := match.ApplyRankMovement(challengerRank, challengedRank, winnerID, m.ChallengerID)
	if !swapped {
		return
	}

	assignments := []club.RankAssignment{
		{MembershipID: lookups.MembershipIDByPlayer[m.ChallengerID], Rank: newChallenger},
		{MembershipID: lookups.MembershipIDByPlayer[m.ChallengedID], Rank: newChallenged},
	}
	if err := p.store.ApplyRanks(m.LadderID, assignments, "match result"); err != nil {
		log.Error("Failed to apply rank swap", "error", err, "matchID", m.ID)
		return
	}
	p.metrics.IncRankSwaps()
	log.Info("Rank swap applied", "matchID", m.ID, "ladderID", m.LadderID,
		"challengerRank", newChallenger, "challengedRank", newChallenged)

	if err := p.pubsub.SendMessage(string(pubsub.EventRankUpdated), m.LadderID); err != nil {
		log.Error("Failed to publish rank updated event", "error", err, "ladderID", m.LadderID)
	}
}

// ScheduleMatch sets or moves the match time and notifies both sides. The
// schedule is persisted even when notifications fail; that case comes back
// as a PartialNotificationError.
func (p *Processor) ScheduleMatch(actor identity.Actor, matchID string, at time.Time, dryRun bool) (*club.Match, error) {
	m, err := p.store.GetMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if !m.IsParticipant(actor.PlayerID) && !actor.Elevated() {
		return nil, fmt.Errorf("%w: %s is not a participant of match %s", match.ErrForbidden, actor.PlayerID, matchID)
	}
	if !match.CanSchedule(m) {
		return nil, fmt.Errorf("%w: cannot schedule a %s match", match.ErrBadTransition, m.Status)
	}

	scheduledAt := match.ScheduleTime(at).Unix()
	if dryRun {
		log.Info("[Dry Run] Would schedule match", "matchID", matchID, "at", scheduledAt)
	} else if err := p.store.UpdateMatchSchedule(matchID, scheduledAt); err != nil {
		return nil, fmt.Errorf("failed to persist match schedule: %w", err)
	}
	m.Status = club.StatusScheduled
	m.ScheduledAt = &scheduledAt
	log.Info("Match scheduled", "matchID", matchID, "at", scheduledAt)

	if err := p.pubsub.SendMessage(string(pubsub.EventMatchScheduled), m); err != nil {
		log.Error("Failed to publish match scheduled event", "error", err, "matchID", matchID)
	}

	memberships, err := p.store.GetMemberships(m.LadderID)
	if err != nil {
		log.Error("Failed to load memberships for schedule notification", "error", err, "ladderID", m.LadderID)
		memberships = nil
	}
	lookups := ranking.Resolve(memberships, nil)
	if err := p.notifier.SendMatchScheduled(m, p.matchPlayers(m, lookups), dryRun); err != nil {
		return m, &PartialNotificationError{Errs: []error{err}}
	}
	return m, nil
}

// ReorderLadder moves one membership to a new rank and renumbers the ladder.
// Admin only.
func (p *Processor) ReorderLadder(actor identity.Actor, ladderID, membershipID string, newRank int, dryRun bool) error {
	if !actor.Elevated() {
		return fmt.Errorf("%w: reordering requires admin rights", match.ErrForbidden)
	}

	memberships, err := p.store.GetMemberships(ladderID)
	if err != nil {
		return fmt.Errorf("failed to load memberships for ladder %s: %w", ladderID, err)
	}
	ordered, err := ranking.Reorder(memberships, membershipID, newRank)
	if err != nil {
		return err
	}

	if dryRun {
		log.Info("[Dry Run] Would reorder ladder", "ladderID", ladderID, "membershipID", membershipID, "newRank", newRank)
		return nil
	}
	if err := p.store.ApplyRanks(ladderID, ranking.Assignments(ordered), "manual reorder"); err != nil {
		return fmt.Errorf("failed to apply reorder: %w", err)
	}
	p.metrics.IncReorders()
	log.Info("Ladder reordered", "ladderID", ladderID, "membershipID", membershipID, "newRank", newRank)

	if err := p.pubsub.SendMessage(string(pubsub.EventRankUpdated), ladderID); err != nil {
		log.Error("Failed to publish rank updated event", "error", err, "ladderID", ladderID)
	}
	return nil
}

// ReconcileLadder repairs a rank set that stopped being a permutation of
// 1..N. Returns the number of corrected rows.
func (p *Processor) ReconcileLadder(ladderID string, dryRun bool) (int, error) {
	memberships, err := p.store.GetMemberships(ladderID)
	if err != nil {
		return 0, fmt.Errorf("failed to load memberships for ladder %s: %w", ladderID, err)
	}

	changed := ranking.Normalize(memberships)
	if len(changed) == 0 {
		log.Debug("Ladder ranks already consistent", "ladderID", ladderID)
		return 0, nil
	}

	if dryRun {
		log.Info("[Dry Run] Would reconcile ladder ranks", "ladderID", ladderID, "corrections", len(changed))
		return len(changed), nil
	}
	if err := p.store.ApplyRanks(ladderID, changed, "reconcile"); err != nil {
		return 0, fmt.Errorf("failed to apply reconciliation: %w", err)
	}
	log.Info("Ladder ranks reconciled", "ladderID", ladderID, "corrections", len(changed))
	return len(changed), nil
}

// NotifyRoundWindow runs the batch notification pass for a given day. Every
// open match whose round hits a notification window contributes to one
// aggregated digest per recipient; sends are paced by the rate limiter.
// Returns the number of digests sent.
func (p *Processor) NotifyRoundWindow(today time.Time, dryRun bool) (int, error) {
	p.metrics.IncNotifyBatchRuns()
	log.Info("Starting round notification batch", "date", today.Format("2006-01-02"), "dryRun", dryRun)

	// Cheap existence probe before loading every player and match.
	ladderIDs, err := p.store.GetLaddersWithOpenMatches()
	if err != nil {
		return 0, fmt.Errorf("failed to load ladders with open matches: %w", err)
	}
	if len(ladderIDs) == 0 {
		log.Info("No open matches, nothing to notify")
		return 0, nil
	}

	open, err := p.store.GetOpenMatches()
	if err != nil {
		return 0, fmt.Errorf("failed to load open matches: %w", err)
	}

	players, err := p.store.GetAllPlayers()
	if err != nil {
		return 0, fmt.Errorf("failed to load players: %w", err)
	}
	playersByID := make(map[string]club.Player, len(players))
	for _, pl := range players {
		playersByID[pl.ID] = pl
	}

	byLadder := make(map[string][]*club.Match)
	for _, m := range open {
		byLadder[m.LadderID] = append(byLadder[m.LadderID], m)
	}

	type digest struct {
		window  rounds.NotificationWindow
		matches []*club.Match
	}
	digests := make(map[string]*digest)

	sort.Strings(ladderIDs)
	for _, ladderID := range ladderIDs {
		matches := byLadder[ladderID]
		if len(matches) == 0 {
			continue
		}
		memberships, err := p.store.GetMemberships(ladderID)
		if err != nil {
			log.Error("Failed to load memberships, skipping ladder", "error", err, "ladderID", ladderID)
			continue
		}
		fallback, err := p.store.GatherFallbackPlayerIDs(ladderID)
		if err != nil {
			log.Warn("Failed to gather fallback player ids", "error", err, "ladderID", ladderID)
		}
		lookups := ranking.Resolve(memberships, fallback)

		for _, m := range matches {
			window := rounds.ClassifyNotificationWindow(time.Unix(m.RoundStart, 0).In(today.Location()), today)
			if window == rounds.WindowNone {
				continue
			}
			for _, id := range rounds.RecipientsFor(m, lookups, playersByID) {
				d, ok := digests[id]
				if !ok {
					d = &digest{window: window}
					digests[id] = d
				}
				d.matches = append(d.matches, m)
			}
		}
	}

	if len(digests) == 0 {
		log.Info("No matches in a notification window today")
		return 0, nil
	}

	recipientIDs := make([]string, 0, len(digests))
	for id := range digests {
		recipientIDs = append(recipientIDs, id)
	}
	sort.Strings(recipientIDs)

	ctx := context.Background()
	sent := 0
	var errs []error
	for _, id := range recipientIDs {
		if err := p.limiter.Wait(ctx); err != nil {
			return sent, fmt.Errorf("rate limiter interrupted: %w", err)
		}
		d := digests[id]
		if err := p.notifier.SendRoundDigest(playersByID[id], d.window, d.matches, playersByID, dryRun); err != nil {
			log.Error("Failed to send round digest", "error", err, "playerID", id)
			errs = append(errs, err)
			continue
		}
		sent++
	}

	log.Info("Round notification batch finished", "sent", sent, "failed", len(errs))
	if len(errs) > 0 {
		return sent, &PartialNotificationError{Errs: errs}
	}
	return sent, nil
}

// matchPlayers resolves both match sides, doubles partners included, to
// player records for the notifier.
func (p *Processor) matchPlayers(m *club.Match, lookups ranking.Lookups) []club.Player {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, side := range []string{m.ChallengerID, m.ChallengedID} {
		add(side)
		if partner, ok := lookups.PartnerByPlayer[side]; ok {
			add(partner)
		}
	}

	players, err := p.store.GetPlayers(ids)
	if err != nil {
		log.Error("Failed to load match players", "error", err, "matchID", m.ID)
		return nil
	}
	return players
}
