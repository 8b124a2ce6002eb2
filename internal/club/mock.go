package club

import "sync"

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	UpsertPlayerFunc              func(p Player) error
	GetPlayerFunc                 func(playerID string) (*Player, error)
	GetPlayerByEmailFunc          func(email string) (*Player, error)
	GetPlayersFunc                func(playerIDs []string) ([]Player, error)
	GetAllPlayersFunc             func() ([]Player, error)
	RemovePlayerFunc              func(playerID string) error
	SetPlayerAvatarFunc           func(playerID, url string) error
	SetPlayerRoleFunc             func(playerID string, isAdmin bool) error
	UpsertClubFunc                func(c Club) error
	GetAllClubsFunc               func() ([]Club, error)
	UpsertLadderFunc              func(l Ladder) error
	GetLadderFunc                 func(ladderID string) (*Ladder, error)
	GetLaddersFunc                func(clubID string) ([]Ladder, error)
	JoinLadderFunc                func(ladderID, playerID string, partnerID *string) (*Membership, error)
	LeaveLadderFunc               func(ladderID, playerID string) error
	GetMembershipsFunc            func(ladderID string) ([]Membership, error)
	GetMembershipFunc             func(ladderID, playerID string) (*Membership, error)
	GetMembershipByIDFunc         func(membershipID string) (*Membership, error)
	ApplyRanksFunc                func(ladderID string, assignments []RankAssignment, reason string) error
	SetTeamAvatarFunc             func(membershipID, url string) error
	GetLadderMemberIDsFunc        func(ladderIDs []string) (map[string][]string, error)
	GatherFallbackPlayerIDsFunc   func(ladderID string) ([]string, error)
	GetRankHistoryFunc            func(ladderID string) ([]RankChange, error)
	CreateMatchFunc               func(m *Match) error
	GetMatchFunc                  func(matchID string) (*Match, error)
	UpdateMatchScheduleFunc       func(matchID string, scheduledAt int64) error
	CompleteMatchFunc             func(matchID string, winnerID *string, score string, score1, score2 int) error
	CancelMatchFunc               func(matchID string) error
	GetMatchesByLadderFunc        func(ladderID string) ([]*Match, error)
	GetMatchesInRoundFunc         func(ladderID, roundLabel string) ([]*Match, error)
	GetOpenMatchesFunc            func() ([]*Match, error)
	GetLaddersWithOpenMatchesFunc func() ([]string, error)

	// Call records
	ApplyRanksCalls []struct {
		LadderID    string
		Assignments []RankAssignment
		Reason      string
	}
	CompleteMatchCalls []struct {
		MatchID  string
		WinnerID *string
		Score    string
		Score1   int
		Score2   int
	}
	UpdateMatchScheduleCalls []struct {
		MatchID     string
		ScheduledAt int64
	}
	CreateMatchCalls []*Match
	JoinLadderCalls  []struct {
		LadderID  string
		PlayerID  string
		PartnerID *string
	}
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) UpsertPlayer(p Player) error {
	if m.UpsertPlayerFunc != nil {
		return m.UpsertPlayerFunc(p)
	}
	return nil
}

func (m *MockStore) GetPlayer(playerID string) (*Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(playerID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetPlayerByEmail(email string) (*Player, error) {
	if m.GetPlayerByEmailFunc != nil {
		return m.GetPlayerByEmailFunc(email)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetPlayers(playerIDs []string) ([]Player, error) {
	if m.GetPlayersFunc != nil {
		return m.GetPlayersFunc(playerIDs)
	}
	return nil, nil
}

func (m *MockStore) GetAllPlayers() ([]Player, error) {
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return nil, nil
}

func (m *MockStore) RemovePlayer(playerID string) error {
	if m.RemovePlayerFunc != nil {
		return m.RemovePlayerFunc(playerID)
	}
	return nil
}

func (m *MockStore) SetPlayerAvatar(playerID, url string) error {
	if m.SetPlayerAvatarFunc != nil {
		return m.SetPlayerAvatarFunc(playerID, url)
	}
	return nil
}

func (m *MockStore) SetPlayerRole(playerID string, isAdmin bool) error {
	if m.SetPlayerRoleFunc != nil {
		return m.SetPlayerRoleFunc(playerID, isAdmin)
	}
	return nil
}

func (m *MockStore) UpsertClub(c Club) error {
	if m.UpsertClubFunc != nil {
		return m.UpsertClubFunc(c)
	}
	return nil
}

func (m *MockStore) GetAllClubs() ([]Club, error) {
	if m.GetAllClubsFunc != nil {
		return m.GetAllClubsFunc()
	}
	return nil, nil
}

func (m *MockStore) UpsertLadder(l Ladder) error {
	if m.UpsertLadderFunc != nil {
		return m.UpsertLadderFunc(l)
	}
	return nil
}

func (m *MockStore) GetLadder(ladderID string) (*Ladder, error) {
	if m.GetLadderFunc != nil {
		return m.GetLadderFunc(ladderID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetLadders(clubID string) ([]Ladder, error) {
	if m.GetLaddersFunc != nil {
		return m.GetLaddersFunc(clubID)
	}
	return nil, nil
}

func (m *MockStore) JoinLadder(ladderID, playerID string, partnerID *string) (*Membership, error) {
	m.mu.Lock()
	m.JoinLadderCalls = append(m.JoinLadderCalls, struct {
		LadderID  string
		PlayerID  string
		PartnerID *string
	}{ladderID, playerID, partnerID})
	m.mu.Unlock()
	if m.JoinLadderFunc != nil {
		return m.JoinLadderFunc(ladderID, playerID, partnerID)
	}
	return &Membership{LadderID: ladderID, PlayerID: playerID, PartnerID: partnerID, Rank: 1}, nil
}

func (m *MockStore) LeaveLadder(ladderID, playerID string) error {
	if m.LeaveLadderFunc != nil {
		return m.LeaveLadderFunc(ladderID, playerID)
	}
	return nil
}

func (m *MockStore) GetMemberships(ladderID string) ([]Membership, error) {
	if m.GetMembershipsFunc != nil {
		return m.GetMembershipsFunc(ladderID)
	}
	return nil, nil
}

func (m *MockStore) GetMembership(ladderID, playerID string) (*Membership, error) {
	if m.GetMembershipFunc != nil {
		return m.GetMembershipFunc(ladderID, playerID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetMembershipByID(membershipID string) (*Membership, error) {
	if m.GetMembershipByIDFunc != nil {
		return m.GetMembershipByIDFunc(membershipID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ApplyRanks(ladderID string, assignments []RankAssignment, reason string) error {
	m.mu.Lock()
	m.ApplyRanksCalls = append(m.ApplyRanksCalls, struct {
		LadderID    string
		Assignments []RankAssignment
		Reason      string
	}{ladderID, assignments, reason})
	m.mu.Unlock()
	if m.ApplyRanksFunc != nil {
		return m.ApplyRanksFunc(ladderID, assignments, reason)
	}
	return nil
}

func (m *MockStore) SetTeamAvatar(membershipID, url string) error {
	if m.SetTeamAvatarFunc != nil {
		return m.SetTeamAvatarFunc(membershipID, url)
	}
	return nil
}

func (m *MockStore) GetLadderMemberIDs(ladderIDs []string) (map[string][]string, error) {
	if m.GetLadderMemberIDsFunc != nil {
		return m.GetLadderMemberIDsFunc(ladderIDs)
	}
	return map[string][]string{}, nil
}

func (m *MockStore) GatherFallbackPlayerIDs(ladderID string) ([]string, error) {
	if m.GatherFallbackPlayerIDsFunc != nil {
		return m.GatherFallbackPlayerIDsFunc(ladderID)
	}
	return nil, nil
}

func (m *MockStore) GetRankHistory(ladderID string) ([]RankChange, error) {
	if m.GetRankHistoryFunc != nil {
		return m.GetRankHistoryFunc(ladderID)
	}
	return nil, nil
}

func (m *MockStore) CreateMatch(match *Match) error {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, match)
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(match)
	}
	return nil
}

func (m *MockStore) GetMatch(matchID string) (*Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) UpdateMatchSchedule(matchID string, scheduledAt int64) error {
	m.mu.Lock()
	m.UpdateMatchScheduleCalls = append(m.UpdateMatchScheduleCalls, struct {
		MatchID     string
		ScheduledAt int64
	}{matchID, scheduledAt})
	m.mu.Unlock()
	if m.UpdateMatchScheduleFunc != nil {
		return m.UpdateMatchScheduleFunc(matchID, scheduledAt)
	}
	return nil
}

func (m *MockStore) CompleteMatch(matchID string, winnerID *string, score string, score1, score2 int) error {
	m.mu.Lock()
	m.CompleteMatchCalls = append(m.CompleteMatchCalls, struct {
		MatchID  string
		WinnerID *string
		Score    string
		Score1   int
		Score2   int
	}{matchID, winnerID, score, score1, score2})
	m.mu.Unlock()
	if m.CompleteMatchFunc != nil {
		return m.CompleteMatchFunc(matchID, winnerID, score, score1, score2)
	}
	return nil
}

func (m *MockStore) CancelMatch(matchID string) error {
	if m.CancelMatchFunc != nil {
		return m.CancelMatchFunc(matchID)
	}
	return nil
}

func (m *MockStore) GetMatchesByLadder(ladderID string) ([]*Match, error) {
	if m.GetMatchesByLadderFunc != nil {
		return m.GetMatchesByLadderFunc(ladderID)
	}
	return nil, nil
}

func (m *MockStore) GetMatchesInRound(ladderID, roundLabel string) ([]*Match, error) {
	if m.GetMatchesInRoundFunc != nil {
		return m.GetMatchesInRoundFunc(ladderID, roundLabel)
	}
	return nil, nil
}

func (m *MockStore) GetOpenMatches() ([]*Match, error) {
	if m.GetOpenMatchesFunc != nil {
		return m.GetOpenMatchesFunc()
	}
	return nil, nil
}

func (m *MockStore) GetLaddersWithOpenMatches() ([]string, error) {
	if m.GetLaddersWithOpenMatchesFunc != nil {
		return m.GetLaddersWithOpenMatchesFunc()
	}
	return nil, nil
}

func (m *MockStore) Clear() {}

var _ ClubStore = (*MockStore)(nil)
