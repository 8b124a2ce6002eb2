package club

import (
	"database/sql"
	"sync"
)

// store handles all database operations for the club.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// LadderType distinguishes singles ladders from doubles ladders.
type LadderType string

const (
	LadderSingles LadderType = "singles"
	LadderDoubles LadderType = "doubles"
)

// MatchStatus is the lifecycle status of a challenge match.
type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusAccepted  MatchStatus = "accepted"
	StatusScheduled MatchStatus = "scheduled"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

// Player is a registered club member. Rank is not stored here; per-ladder
// rank lives on the membership.
type Player struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Gender       string   `json:"gender"`
	IsAdmin      bool     `json:"is_admin"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	AvatarURL    *string  `json:"avatar_url,omitempty"`
	ClubIDs      []string `json:"club_ids"`
}

// Club groups ladders under one organisation.
type Club struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	City         string `json:"city"`
	Sport        string `json:"sport"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

// Ladder is a ranked competition within a club.
type Ladder struct {
	ID           string     `json:"id"`
	ClubID       string     `json:"club_id"`
	Name         string     `json:"name"`
	Type         LadderType `json:"type"`
	WarmupRule   *string    `json:"warmup_rule,omitempty"`
	PlaytimeRule *string    `json:"playtime_rule,omitempty"`
}

// Membership is a player's (or doubles team's) ranked slot in one ladder.
// PartnerID is only meaningful on doubles ladders; the primary PlayerID is
// the canonical key for rank lookups.
type Membership struct {
	ID            string  `json:"id"`
	LadderID      string  `json:"ladder_id"`
	PlayerID      string  `json:"player_id"`
	PartnerID     *string `json:"partner_id,omitempty"`
	Rank          int     `json:"rank"`
	TeamAvatarURL *string `json:"team_avatar_url,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

// Match is a challenge between two ranked sides of a ladder. For doubles the
// challenger/challenged ids are the primary ids of each team. A nil WinnerID
// on a completed match records a draw.
type Match struct {
	ID           string      `json:"id"`
	LadderID     string      `json:"ladder_id"`
	RoundLabel   string      `json:"round_label"`
	RoundStart   int64       `json:"round_start"`
	RoundEnd     int64       `json:"round_end"`
	ChallengerID string      `json:"challenger_id"`
	ChallengedID string      `json:"challenged_id"`
	Status       MatchStatus `json:"status"`
	ScheduledAt  *int64      `json:"scheduled_at,omitempty"`
	WinnerID     *string     `json:"winner_id,omitempty"`
	Score        *string     `json:"score,omitempty"`
	Score1       *int        `json:"score1,omitempty"`
	Score2       *int        `json:"score2,omitempty"`
	CreatedAt    int64       `json:"created_at"`
	UpdatedAt    int64       `json:"updated_at"`
}

// IsParticipant reports whether the player is one of the two match sides.
func (m *Match) IsParticipant(playerID string) bool {
	return playerID != "" && (playerID == m.ChallengerID || playerID == m.ChallengedID)
}

// RankAssignment is a single (membership, rank) pair produced by a reorder or
// a swap, persisted as one row update inside the enclosing transaction.
type RankAssignment struct {
	MembershipID string `json:"membership_id"`
	Rank         int    `json:"rank"`
}

// RankChange is an audit row recorded for every rank mutation.
type RankChange struct {
	ID         string `json:"id"`
	LadderID   string `json:"ladder_id"`
	PlayerID   string `json:"player_id"`
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	Reason     string `json:"reason"`
	RecordedAt int64  `json:"recorded_at"`
}
