package club

import (
	"fmt"
	"testing"
	"time"

	"github.com/clubkit/ladderd/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) ClubStore {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	return New(db)
}

// seedLadder creates a club, one singles ladder and n players named p1..pn,
// all joined in order so ranks come out 1..n.
func seedLadder(t *testing.T, store ClubStore, n int) {
	t.Helper()

	require.NoError(t, store.UpsertClub(Club{ID: "c1", Name: "Test Club"}))
	require.NoError(t, store.UpsertLadder(Ladder{ID: "l1", ClubID: "c1", Name: "Singles", Type: LadderSingles}))
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		require.NoError(t, store.UpsertPlayer(Player{ID: id, Name: "Player " + id, Email: id + "@test.com"}))
		_, err := store.JoinLadder("l1", id, nil)
		require.NoError(t, err)
	}
}

func TestUpsertAndGetPlayer(t *testing.T) {
	store := setupTestStore(t)

	p := Player{
		ID:      "p1",
		Name:    "Anna",
		Email:   "anna@test.com",
		Gender:  "f",
		IsAdmin: true,
		ClubIDs: []string{"c1", "c2"},
	}
	require.NoError(t, store.UpsertPlayer(p))

	got, err := store.GetPlayer("p1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, []string{"c1", "c2"}, got.ClubIDs)

	// Upsert with the same id updates in place.
	p.Name = "Anna L"
	require.NoError(t, store.UpsertPlayer(p))
	got, err = store.GetPlayer("p1")
	require.NoError(t, err)
	assert.Equal(t, "Anna L", got.Name)

	players, err := store.GetAllPlayers()
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestSetPlayerRole(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.UpsertPlayer(Player{ID: "p1", Name: "Anna", Email: "anna@test.com"}))

	// The upsert never touches role flags on an existing row.
	require.NoError(t, store.UpsertPlayer(Player{ID: "p1", Name: "Anna", Email: "anna@test.com", IsAdmin: true}))
	got, err := store.GetPlayer("p1")
	require.NoError(t, err)
	assert.False(t, got.IsAdmin, "roles are granted through SetPlayerRole, not the upsert")

	require.NoError(t, store.SetPlayerRole("p1", true))
	got, err = store.GetPlayer("p1")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	require.NoError(t, store.SetPlayerRole("p1", false))
	got, err = store.GetPlayer("p1")
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)

	assert.ErrorIs(t, store.SetPlayerRole("ghost", true), ErrNotFound)
}

func TestGetPlayer_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetPlayer("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPlayerByEmail_CaseInsensitive(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.UpsertPlayer(Player{ID: "p1", Name: "Anna", Email: "Anna@Test.com"}))

	got, err := store.GetPlayerByEmail("anna@test.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
}

func TestJoinLadder_AppendsAtBottom(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 3)

	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)
	require.Len(t, memberships, 3)
	for i, m := range memberships {
		assert.Equal(t, i+1, m.Rank)
		assert.Equal(t, fmt.Sprintf("p%d", i+1), m.PlayerID)
	}
}

func TestJoinLadder_DuplicateRejected(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	_, err := store.JoinLadder("l1", "p1", nil)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinLadder_DoublesPartnerLookup(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.UpsertClub(Club{ID: "c1", Name: "Test Club"}))
	require.NoError(t, store.UpsertLadder(Ladder{ID: "d1", ClubID: "c1", Name: "Doubles", Type: LadderDoubles}))
	require.NoError(t, store.UpsertPlayer(Player{ID: "p1", Name: "Anna"}))
	require.NoError(t, store.UpsertPlayer(Player{ID: "p2", Name: "Bo"}))

	partner := "p2"
	m, err := store.JoinLadder("d1", "p1", &partner)
	require.NoError(t, err)
	require.NotNil(t, m.PartnerID)
	assert.Equal(t, "p2", *m.PartnerID)

	// The partner resolves to the same membership as the primary player.
	byPartner, err := store.GetMembership("d1", "p2")
	require.NoError(t, err)
	assert.Equal(t, m.ID, byPartner.ID)

	byID, err := store.GetMembershipByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", byID.PlayerID)
	_, err = store.GetMembershipByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// And a partner already on the ladder cannot join again on a new team.
	require.NoError(t, store.UpsertPlayer(Player{ID: "p3", Name: "Clara"}))
	taken := "p2"
	_, err = store.JoinLadder("d1", "p3", &taken)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestLeaveLadder_RenumbersSurvivors(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 4)

	require.NoError(t, store.LeaveLadder("l1", "p2"))

	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)
	require.Len(t, memberships, 3)
	assert.Equal(t, []string{"p1", "p3", "p4"}, []string{memberships[0].PlayerID, memberships[1].PlayerID, memberships[2].PlayerID})
	for i, m := range memberships {
		assert.Equal(t, i+1, m.Rank)
	}
}

func TestLeaveLadder_NotAMember(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 1)

	err := store.LeaveLadder("l1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyRanks_RecordsHistory(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 3)

	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)

	// Swap ranks 1 and 2; rank 3 is re-asserted unchanged.
	assignments := []RankAssignment{
		{MembershipID: memberships[0].ID, Rank: 2},
		{MembershipID: memberships[1].ID, Rank: 1},
		{MembershipID: memberships[2].ID, Rank: 3},
	}
	require.NoError(t, store.ApplyRanks("l1", assignments, "match result"))

	after, err := store.GetMemberships("l1")
	require.NoError(t, err)
	assert.Equal(t, "p2", after[0].PlayerID)
	assert.Equal(t, "p1", after[1].PlayerID)

	// Only the two changed rows show up in the audit log.
	history, err := store.GetRankHistory("l1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, "match result", h.Reason)
	}
}

func TestApplyRanks_UnknownMembership(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 1)

	err := store.ApplyRanks("l1", []RankAssignment{{MembershipID: "nope", Rank: 1}}, "test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemovePlayer_Cascades(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 3)

	m := &Match{
		ID:           "m1",
		LadderID:     "l1",
		RoundLabel:   "2026-R3",
		RoundStart:   time.Now().Unix(),
		RoundEnd:     time.Now().Add(14 * 24 * time.Hour).Unix(),
		ChallengerID: "p2",
		ChallengedID: "p1",
	}
	require.NoError(t, store.CreateMatch(m))

	require.NoError(t, store.RemovePlayer("p2"))

	_, err := store.GetPlayer("p2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetMatch("m1")
	assert.ErrorIs(t, err, ErrNotFound)

	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, 1, memberships[0].Rank)
	assert.Equal(t, 2, memberships[1].Rank)
}

func TestCreateMatch_DefaultsStatus(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	m := &Match{
		ID:           "m1",
		LadderID:     "l1",
		RoundLabel:   "2026-R3",
		RoundStart:   100,
		RoundEnd:     200,
		ChallengerID: "p2",
		ChallengedID: "p1",
	}
	require.NoError(t, store.CreateMatch(m))

	got, err := store.GetMatch("m1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.NotZero(t, got.CreatedAt)
	assert.Nil(t, got.WinnerID)
}

func TestMatchLifecycle(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	m := &Match{
		ID: "m1", LadderID: "l1", RoundLabel: "2026-R3",
		ChallengerID: "p2", ChallengedID: "p1",
	}
	require.NoError(t, store.CreateMatch(m))

	scheduledAt := time.Now().Add(48 * time.Hour).Unix()
	require.NoError(t, store.UpdateMatchSchedule("m1", scheduledAt))
	got, err := store.GetMatch("m1")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	require.NotNil(t, got.ScheduledAt)
	assert.Equal(t, scheduledAt, *got.ScheduledAt)

	winner := "p2"
	require.NoError(t, store.CompleteMatch("m1", &winner, "6-4", 6, 4))
	got, err = store.GetMatch("m1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, "p2", *got.WinnerID)
	assert.Equal(t, "6-4", *got.Score)
	assert.Equal(t, 6, *got.Score1)
	assert.Equal(t, 4, *got.Score2)
}

func TestCompleteMatch_DrawKeepsNilWinner(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	m := &Match{ID: "m1", LadderID: "l1", RoundLabel: "2026-R3", ChallengerID: "p2", ChallengedID: "p1"}
	require.NoError(t, store.CreateMatch(m))

	require.NoError(t, store.CompleteMatch("m1", nil, "5-5", 5, 5))
	got, err := store.GetMatch("m1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Nil(t, got.WinnerID)
}

func TestGetOpenMatches_SkipsTerminal(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 4)

	for i, status := range []MatchStatus{StatusPending, StatusScheduled, StatusCompleted, StatusCancelled} {
		m := &Match{
			ID: fmt.Sprintf("m%d", i+1), LadderID: "l1", RoundLabel: "2026-R3",
			ChallengerID: "p2", ChallengedID: "p1", Status: status,
		}
		require.NoError(t, store.CreateMatch(m))
	}

	open, err := store.GetOpenMatches()
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, m := range open {
		assert.NotEqual(t, StatusCompleted, m.Status)
		assert.NotEqual(t, StatusCancelled, m.Status)
	}

	ladders, err := store.GetLaddersWithOpenMatches()
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, ladders)
}

func TestGetMatchesInRound(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	for i, round := range []string{"2026-R2", "2026-R3", "2026-R3"} {
		m := &Match{
			ID: fmt.Sprintf("m%d", i+1), LadderID: "l1", RoundLabel: round,
			ChallengerID: "p2", ChallengedID: "p1",
		}
		require.NoError(t, store.CreateMatch(m))
	}

	matches, err := store.GetMatchesInRound("l1", "2026-R3")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestGatherFallbackPlayerIDs(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	// p3 only appears as a match participant, not as a member.
	require.NoError(t, store.UpsertPlayer(Player{ID: "p3", Name: "Clara"}))
	m := &Match{ID: "m1", LadderID: "l1", RoundLabel: "2026-R3", ChallengerID: "p3", ChallengedID: "p1"}
	require.NoError(t, store.CreateMatch(m))

	ids, err := store.GatherFallbackPlayerIDs("l1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, ids)
}

func TestGetLadderMemberIDs(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	require.NoError(t, store.UpsertLadder(Ladder{ID: "d1", ClubID: "c1", Name: "Doubles", Type: LadderDoubles}))
	require.NoError(t, store.UpsertPlayer(Player{ID: "p3", Name: "Clara"}))
	require.NoError(t, store.UpsertPlayer(Player{ID: "p4", Name: "Dag"}))
	partner := "p4"
	_, err := store.JoinLadder("d1", "p3", &partner)
	require.NoError(t, err)

	ids, err := store.GetLadderMemberIDs([]string{"l1", "d1", "empty"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids["l1"])
	assert.ElementsMatch(t, []string{"p3", "p4"}, ids["d1"], "doubles partners are included")
	assert.Empty(t, ids["empty"])
}

func TestSetAvatars(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 1)

	require.NoError(t, store.SetPlayerAvatar("p1", "https://cdn.test/a.png"))
	p, err := store.GetPlayer("p1")
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, "https://cdn.test/a.png", *p.AvatarURL)

	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)
	require.NoError(t, store.SetTeamAvatar(memberships[0].ID, "https://cdn.test/t.png"))
	after, err := store.GetMemberships("l1")
	require.NoError(t, err)
	require.NotNil(t, after[0].TeamAvatarURL)
	assert.Equal(t, "https://cdn.test/t.png", *after[0].TeamAvatarURL)

	assert.ErrorIs(t, store.SetPlayerAvatar("ghost", "x"), ErrNotFound)
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	seedLadder(t, store, 2)

	store.Clear()

	players, err := store.GetAllPlayers()
	require.NoError(t, err)
	assert.Empty(t, players)
	memberships, err := store.GetMemberships("l1")
	require.NoError(t, err)
	assert.Empty(t, memberships)
}
