package club

// ClubStore defines the interface for interacting with the club's data.
type ClubStore interface {
	UpsertPlayer(p Player) error
	GetPlayer(playerID string) (*Player, error)
	GetPlayerByEmail(email string) (*Player, error)
	GetPlayers(playerIDs []string) ([]Player, error)
	GetAllPlayers() ([]Player, error)
	RemovePlayer(playerID string) error
	SetPlayerAvatar(playerID, url string) error
	SetPlayerRole(playerID string, isAdmin bool) error

	UpsertClub(c Club) error
	GetAllClubs() ([]Club, error)

	UpsertLadder(l Ladder) error
	GetLadder(ladderID string) (*Ladder, error)
	GetLadders(clubID string) ([]Ladder, error)

	JoinLadder(ladderID, playerID string, partnerID *string) (*Membership, error)
	LeaveLadder(ladderID, playerID string) error
	GetMemberships(ladderID string) ([]Membership, error)
	GetMembership(ladderID, playerID string) (*Membership, error)
	GetMembershipByID(membershipID string) (*Membership, error)
	ApplyRanks(ladderID string, assignments []RankAssignment, reason string) error
	SetTeamAvatar(membershipID, url string) error
	GetLadderMemberIDs(ladderIDs []string) (map[string][]string, error)
	GatherFallbackPlayerIDs(ladderID string) ([]string, error)
	GetRankHistory(ladderID string) ([]RankChange, error)

	CreateMatch(m *Match) error
	GetMatch(matchID string) (*Match, error)
	UpdateMatchSchedule(matchID string, scheduledAt int64) error
	CompleteMatch(matchID string, winnerID *string, score string, score1, score2 int) error
	CancelMatch(matchID string) error
	GetMatchesByLadder(ladderID string) ([]*Match, error)
	GetMatchesInRound(ladderID, roundLabel string) ([]*Match, error)
	GetOpenMatches() ([]*Match, error)
	GetLaddersWithOpenMatches() ([]string, error)

	Clear()
}
