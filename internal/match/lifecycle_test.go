package match_test

import (
	"testing"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
	"github.com/clubkit/ladderd/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testMatch() *club.Match {
	return &club.Match{
		ID:           "m1",
		ChallengerID: "A",
		ChallengedID: "B",
		Status:       club.StatusScheduled,
	}
}

func TestSubmitScore(t *testing.T) {
	challenger := identity.Actor{PlayerID: "A"}

	t.Run("challenger wins on higher first score", func(t *testing.T) {
		res, err := match.SubmitScore(challenger, testMatch(), 6, 4)
		require.NoError(t, err)
		require.NotNil(t, res.WinnerID)
		assert.Equal(t, "A", *res.WinnerID)
		assert.Equal(t, club.StatusCompleted, res.Status)
		assert.Equal(t, "6-4", res.Score)
	})

	t.Run("challenged wins on higher second score", func(t *testing.T) {
		res, err := match.SubmitScore(challenger, testMatch(), 4, 6)
		require.NoError(t, err)
		require.NotNil(t, res.WinnerID)
		assert.Equal(t, "B", *res.WinnerID)
	})

	t.Run("equal scores record a completed draw", func(t *testing.T) {
		res, err := match.SubmitScore(challenger, testMatch(), 6, 6)
		require.NoError(t, err)
		assert.Nil(t, res.WinnerID)
		assert.Equal(t, club.StatusCompleted, res.Status)
		assert.Equal(t, "6-6", res.Score)
	})

	t.Run("negative scores are rejected", func(t *testing.T) {
		_, err := match.SubmitScore(challenger, testMatch(), -1, 3)
		assert.ErrorIs(t, err, match.ErrInvalidScore)
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		outsider := identity.Actor{PlayerID: "Z"}
		_, err := match.SubmitScore(outsider, testMatch(), 6, 4)
		assert.ErrorIs(t, err, match.ErrForbidden)
	})

	t.Run("admin may submit for others", func(t *testing.T) {
		admin := identity.Actor{PlayerID: "Z", IsAdmin: true}
		res, err := match.SubmitScore(admin, testMatch(), 6, 4)
		require.NoError(t, err)
		assert.Equal(t, "A", *res.WinnerID)
	})

	t.Run("cancelled match cannot be scored", func(t *testing.T) {
		m := testMatch()
		m.Status = club.StatusCancelled
		_, err := match.SubmitScore(challenger, m, 6, 4)
		assert.ErrorIs(t, err, match.ErrBadTransition)
	})
}

func TestApplyRankMovement(t *testing.T) {
	t.Run("upset swaps ranks", func(t *testing.T) {
		challengerRank, challengedRank, moved := match.ApplyRankMovement(5, 2, strPtr("A"), "A")
		assert.True(t, moved)
		assert.Equal(t, 2, challengerRank)
		assert.Equal(t, 5, challengedRank)
	})

	t.Run("win from a better rank changes nothing", func(t *testing.T) {
		challengerRank, challengedRank, moved := match.ApplyRankMovement(2, 5, strPtr("A"), "A")
		assert.False(t, moved)
		assert.Equal(t, 2, challengerRank)
		assert.Equal(t, 5, challengedRank)
	})

	t.Run("defender win changes nothing", func(t *testing.T) {
		_, _, moved := match.ApplyRankMovement(5, 2, strPtr("B"), "A")
		assert.False(t, moved)
	})

	t.Run("draw never moves ranks", func(t *testing.T) {
		_, _, moved := match.ApplyRankMovement(5, 2, nil, "A")
		assert.False(t, moved)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, match.CanTransition(club.StatusPending, club.StatusScheduled))
	assert.True(t, match.CanTransition(club.StatusPending, club.StatusCompleted))
	assert.True(t, match.CanTransition(club.StatusAccepted, club.StatusCompleted))
	assert.True(t, match.CanTransition(club.StatusScheduled, club.StatusScheduled), "reschedule is allowed")
	assert.False(t, match.CanTransition(club.StatusCancelled, club.StatusScheduled))
	assert.False(t, match.CanTransition(club.StatusCompleted, club.StatusScheduled))
}

func TestScheduleTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2026, 2, 10, 18, 30, 45, 12345, loc)
	out := match.ScheduleTime(in)
	assert.Equal(t, time.Date(2026, 2, 10, 18, 30, 0, 0, loc), out)
	assert.Equal(t, loc, out.Location(), "local offset is preserved")
}

func TestCanEditScore(t *testing.T) {
	completedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	m := testMatch()
	m.Status = club.StatusCompleted
	m.UpdatedAt = completedAt.Unix()

	t.Run("same month allows correction", func(t *testing.T) {
		now := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
		assert.True(t, match.CanEditScore(m, now))
	})

	t.Run("next month closes the window", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, match.CanEditScore(m, now))
	})

	t.Run("falls back to scheduled then created timestamps", func(t *testing.T) {
		scheduled := time.Date(2026, 2, 8, 18, 0, 0, 0, time.UTC).Unix()
		noUpdate := &club.Match{
			ID:           "m2",
			ChallengerID: "A",
			ChallengedID: "B",
			Status:       club.StatusCompleted,
			ScheduledAt:  &scheduled,
		}
		assert.True(t, match.CanEditScore(noUpdate, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)))
		assert.False(t, match.CanEditScore(noUpdate, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("uncompleted matches are always editable", func(t *testing.T) {
		open := testMatch()
		assert.True(t, match.CanEditScore(open, time.Now()))
	})
}
