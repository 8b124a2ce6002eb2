package processor

import (
	"testing"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
	"github.com/clubkit/ladderd/internal/match"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/pubsub"
	"github.com/clubkit/ladderd/internal/rounds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *club.MockStore
	notifier *notifier.MockNotifier
	metrics  *metrics.MockMetrics
	pubsub   *pubsub.MockClient
	proc     *Processor
}

func newFixture() *fixture {
	f := &fixture{
		store:    club.NewMock(),
		notifier: notifier.NewMock(),
		metrics:  metrics.NewMock(),
		pubsub:   pubsub.NewMock("test-project"),
	}
	f.proc = New(f.store, f.notifier, f.metrics, f.pubsub)
	return f
}

func pendingMatch() *club.Match {
	return &club.Match{
		ID:           "m1",
		LadderID:     "l1",
		RoundLabel:   "2026-R3",
		RoundStart:   time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC).Unix(),
		ChallengerID: "p2",
		ChallengedID: "p1",
		Status:       club.StatusPending,
		CreatedAt:    time.Now().Unix(),
	}
}

func singlesLadder() []club.Membership {
	return []club.Membership{
		{ID: "mem1", LadderID: "l1", PlayerID: "p1", Rank: 1},
		{ID: "mem2", LadderID: "l1", PlayerID: "p2", Rank: 2},
	}
}

func TestCompleteMatch_UpsetSwapsRanks(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }
	f.store.GetPlayersFunc = func(playerIDs []string) ([]club.Player, error) {
		return []club.Player{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}}, nil
	}

	// Challenger p2 (rank 2) beats challenged p1 (rank 1).
	m, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "p2"}, "m1", 6, 4, false)
	require.NoError(t, err)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, "p2", *m.WinnerID)
	assert.Equal(t, club.StatusCompleted, m.Status)

	require.Len(t, f.store.CompleteMatchCalls, 1)
	assert.Equal(t, "6-4", f.store.CompleteMatchCalls[0].Score)

	require.Len(t, f.store.ApplyRanksCalls, 1)
	swap := f.store.ApplyRanksCalls[0]
	assert.Equal(t, "l1", swap.LadderID)
	assert.Equal(t, "match result", swap.Reason)
	assert.ElementsMatch(t, []club.RankAssignment{
		{MembershipID: "mem2", Rank: 1},
		{MembershipID: "mem1", Rank: 2},
	}, swap.Assignments)

	assert.Equal(t, 1, f.metrics.MatchesCompletedCount)
	assert.Equal(t, 1, f.metrics.RankSwapsCount)
	assert.Len(t, f.notifier.SendMatchResultCalls, 1)
	assert.Len(t, f.pubsub.SendMessageCalls, 2)
}

func TestCompleteMatch_DefenseHoldsRanks(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }

	// Challenged p1 (rank 1) defends.
	m, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "p1"}, "m1", 4, 6, false)
	require.NoError(t, err)
	assert.Equal(t, "p1", *m.WinnerID)

	assert.Empty(t, f.store.ApplyRanksCalls)
	assert.Equal(t, 0, f.metrics.RankSwapsCount)
	assert.Equal(t, 1, f.metrics.MatchesCompletedCount)
}

func TestCompleteMatch_DrawHoldsRanks(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }

	m, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "p1"}, "m1", 6, 6, false)
	require.NoError(t, err)
	assert.Nil(t, m.WinnerID)
	assert.Empty(t, f.store.ApplyRanksCalls)
}

func TestCompleteMatch_ForbiddenForOutsider(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }

	_, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "stranger"}, "m1", 6, 4, false)
	assert.ErrorIs(t, err, match.ErrForbidden)
	assert.Empty(t, f.store.CompleteMatchCalls)
}

func TestCompleteMatch_EditWindowClosed(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) {
		m := pendingMatch()
		m.Status = club.StatusCompleted
		m.UpdatedAt = time.Now().AddDate(0, -2, 0).Unix()
		return m, nil
	}

	_, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "p1"}, "m1", 2, 6, false)
	assert.ErrorIs(t, err, ErrEditWindowClosed)
}

func TestCompleteMatch_DryRunPersistsNothing(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }

	_, err := f.proc.CompleteMatch(identity.Actor{PlayerID: "p1"}, "m1", 6, 4, true)
	require.NoError(t, err)
	assert.Empty(t, f.store.CompleteMatchCalls)
	assert.Empty(t, f.store.ApplyRanksCalls)
	assert.Equal(t, 0, f.metrics.MatchesCompletedCount)
}

func TestScheduleMatch(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }
	f.store.GetPlayersFunc = func(playerIDs []string) ([]club.Player, error) {
		return []club.Player{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}}, nil
	}

	at := time.Date(2026, 2, 5, 18, 30, 45, 0, time.UTC)
	m, err := f.proc.ScheduleMatch(identity.Actor{PlayerID: "p1"}, "m1", at, false)
	require.NoError(t, err)
	assert.Equal(t, club.StatusScheduled, m.Status)

	require.Len(t, f.store.UpdateMatchScheduleCalls, 1)
	// Seconds are truncated.
	assert.Equal(t, at.Truncate(time.Minute).Unix(), f.store.UpdateMatchScheduleCalls[0].ScheduledAt)
	assert.Len(t, f.notifier.SendMatchScheduledCalls, 1)
}

func TestScheduleMatch_CompletedMatchRejected(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) {
		m := pendingMatch()
		m.Status = club.StatusCompleted
		return m, nil
	}

	_, err := f.proc.ScheduleMatch(identity.Actor{PlayerID: "p1"}, "m1", time.Now(), false)
	assert.ErrorIs(t, err, match.ErrBadTransition)
}

func TestScheduleMatch_NotificationFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.store.GetMatchFunc = func(matchID string) (*club.Match, error) { return pendingMatch(), nil }
	f.notifier.SendMatchScheduledFunc = func(m *club.Match, recipients []club.Player, dryRun bool) error {
		return assert.AnError
	}

	m, err := f.proc.ScheduleMatch(identity.Actor{PlayerID: "p1"}, "m1", time.Now(), false)
	require.NotNil(t, m)
	var partial *PartialNotificationError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Errs, 1)
	// The schedule itself was persisted.
	assert.Len(t, f.store.UpdateMatchScheduleCalls, 1)
}

func TestReorderLadder(t *testing.T) {
	f := newFixture()
	memberships := []club.Membership{
		{ID: "mem1", PlayerID: "p1", Rank: 1},
		{ID: "mem2", PlayerID: "p2", Rank: 2},
		{ID: "mem3", PlayerID: "p3", Rank: 3},
	}
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return memberships, nil }

	err := f.proc.ReorderLadder(identity.Actor{PlayerID: "admin", IsAdmin: true}, "l1", "mem3", 1, false)
	require.NoError(t, err)

	require.Len(t, f.store.ApplyRanksCalls, 1)
	assert.Equal(t, []club.RankAssignment{
		{MembershipID: "mem3", Rank: 1},
		{MembershipID: "mem1", Rank: 2},
		{MembershipID: "mem2", Rank: 3},
	}, f.store.ApplyRanksCalls[0].Assignments)
	assert.Equal(t, 1, f.metrics.ReordersCount)
}

func TestReorderLadder_RequiresAdmin(t *testing.T) {
	f := newFixture()
	err := f.proc.ReorderLadder(identity.Actor{PlayerID: "p1"}, "l1", "mem1", 1, false)
	assert.ErrorIs(t, err, match.ErrForbidden)
}

func TestReconcileLadder(t *testing.T) {
	f := newFixture()
	// Duplicate rank 2 and a gap at 3.
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) {
		return []club.Membership{
			{ID: "mem1", PlayerID: "p1", Rank: 1, CreatedAt: 1},
			{ID: "mem2", PlayerID: "p2", Rank: 2, CreatedAt: 2},
			{ID: "mem3", PlayerID: "p3", Rank: 2, CreatedAt: 3},
			{ID: "mem4", PlayerID: "p4", Rank: 5, CreatedAt: 4},
		}, nil
	}

	corrected, err := f.proc.ReconcileLadder("l1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, corrected)
	require.Len(t, f.store.ApplyRanksCalls, 1)
	assert.Equal(t, "reconcile", f.store.ApplyRanksCalls[0].Reason)
}

func TestReconcileLadder_AlreadyConsistent(t *testing.T) {
	f := newFixture()
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }

	corrected, err := f.proc.ReconcileLadder("l1", false)
	require.NoError(t, err)
	assert.Equal(t, 0, corrected)
	assert.Empty(t, f.store.ApplyRanksCalls)
}

func openLadder(f *fixture, ladderIDs ...string) {
	f.store.GetLaddersWithOpenMatchesFunc = func() ([]string, error) { return ladderIDs, nil }
}

func TestNotifyRoundWindow_RoundStart(t *testing.T) {
	f := newFixture()
	roundStart := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

	m1 := pendingMatch()
	m2 := pendingMatch()
	m2.ID = "m2"
	m2.ChallengerID = "p3"
	m2.ChallengedID = "p1"
	openLadder(f, "l1")
	f.store.GetOpenMatchesFunc = func() ([]*club.Match, error) { return []*club.Match{m1, m2}, nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) {
		return []club.Membership{
			{ID: "mem1", LadderID: "l1", PlayerID: "p1", Rank: 1},
			{ID: "mem2", LadderID: "l1", PlayerID: "p2", Rank: 2},
			{ID: "mem3", LadderID: "l1", PlayerID: "p3", Rank: 3},
		}, nil
	}
	f.store.GetAllPlayersFunc = func() ([]club.Player, error) {
		return []club.Player{
			{ID: "p1", Name: "Alice", Email: "alice@example.com"},
			{ID: "p2", Name: "Bob", Email: "bob@example.com"},
			{ID: "p3", Name: "Cara", Email: "cara@example.com"},
		}, nil
	}

	sent, err := f.proc.NotifyRoundWindow(roundStart, false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, 1, f.metrics.NotifyBatchRunsCount)

	// p1 plays in both matches but gets a single digest listing both.
	require.Len(t, f.notifier.SendRoundDigestCalls, 3)
	for _, call := range f.notifier.SendRoundDigestCalls {
		assert.Equal(t, rounds.WindowRoundStart, call.Window)
		if call.Recipient.ID == "p1" {
			assert.Len(t, call.Matches, 2)
		} else {
			assert.Len(t, call.Matches, 1)
		}
	}
}

func TestNotifyRoundWindow_NoOpenLadders(t *testing.T) {
	f := newFixture()
	openLadder(f)
	f.store.GetAllPlayersFunc = func() ([]club.Player, error) {
		t.Fatal("players must not be loaded when no ladder has open matches")
		return nil, nil
	}

	sent, err := f.proc.NotifyRoundWindow(time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, f.notifier.SendRoundDigestCalls)
}

func TestNotifyRoundWindow_OutsideWindow(t *testing.T) {
	f := newFixture()
	openLadder(f, "l1")
	f.store.GetOpenMatchesFunc = func() ([]*club.Match, error) { return []*club.Match{pendingMatch()}, nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }
	f.store.GetAllPlayersFunc = func() ([]club.Player, error) {
		return []club.Player{{ID: "p1", Email: "a@b.c"}, {ID: "p2", Email: "d@e.f"}}, nil
	}

	// An ordinary Wednesday mid-round.
	sent, err := f.proc.NotifyRoundWindow(time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, f.notifier.SendRoundDigestCalls)
}

func TestNotifyRoundWindow_SkipsPlayersWithoutEmail(t *testing.T) {
	f := newFixture()
	openLadder(f, "l1")
	f.store.GetOpenMatchesFunc = func() ([]*club.Match, error) { return []*club.Match{pendingMatch()}, nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }
	f.store.GetAllPlayersFunc = func() ([]club.Player, error) {
		return []club.Player{
			{ID: "p1", Name: "Alice", Email: "alice@example.com"},
			{ID: "p2", Name: "Bob"},
		}, nil
	}

	sent, err := f.proc.NotifyRoundWindow(time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.SendRoundDigestCalls, 1)
	assert.Equal(t, "p1", f.notifier.SendRoundDigestCalls[0].Recipient.ID)
}

func TestNotifyRoundWindow_PartialFailure(t *testing.T) {
	f := newFixture()
	openLadder(f, "l1")
	f.store.GetOpenMatchesFunc = func() ([]*club.Match, error) { return []*club.Match{pendingMatch()}, nil }
	f.store.GetMembershipsFunc = func(ladderID string) ([]club.Membership, error) { return singlesLadder(), nil }
	f.store.GetAllPlayersFunc = func() ([]club.Player, error) {
		return []club.Player{
			{ID: "p1", Name: "Alice", Email: "alice@example.com"},
			{ID: "p2", Name: "Bob", Email: "bob@example.com"},
		}, nil
	}
	f.notifier.SendRoundDigestFunc = func(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error {
		if recipient.ID == "p1" {
			return assert.AnError
		}
		return nil
	}

	sent, err := f.proc.NotifyRoundWindow(time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC), false)
	var partial *PartialNotificationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, sent)
}
