package ranking

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
)

// ErrInconsistentMembership signals that the fallback chain was exhausted
// with no usable rows. Callers render an empty ranking rather than failing;
// the error exists for the ones that need to tell the difference.
var ErrInconsistentMembership = errors.New("no usable membership data")

// Lookups holds the per-player maps derived from a ladder's membership rows.
// Doubles partners are mirrored onto the primary's rank: a partner is never
// its own ranking unit.
type Lookups struct {
	RankByPlayer         map[string]int
	PartnerByPlayer      map[string]string
	PrimaryByPlayer      map[string]string
	TeamAvatarByPlayer   map[string]string
	MembershipIDByPlayer map[string]string
}

// Resolve builds the ranking lookup maps from membership rows. When no row
// is usable, the fallback player ids (gathered from the member-id lookup,
// match rows and the rank history) are surfaced as rank-less entries so the
// ladder still shows who plays in it. Production membership data can lag
// behind the transactional tables; a reconstructed rank-less list beats an
// error page.
func Resolve(rows []club.Membership, fallbackPlayerIDs []string) Lookups {
	l := Lookups{
		RankByPlayer:         make(map[string]int),
		PartnerByPlayer:      make(map[string]string),
		PrimaryByPlayer:      make(map[string]string),
		TeamAvatarByPlayer:   make(map[string]string),
		MembershipIDByPlayer: make(map[string]string),
	}

	usable := 0
	for _, row := range rows {
		if row.PlayerID == "" {
			log.Warn("Skipping membership row without player id", "membershipID", row.ID)
			continue
		}
		usable++

		l.RankByPlayer[row.PlayerID] = row.Rank
		l.PrimaryByPlayer[row.PlayerID] = row.PlayerID
		l.MembershipIDByPlayer[row.PlayerID] = row.ID
		if row.TeamAvatarURL != nil {
			l.TeamAvatarByPlayer[row.PlayerID] = *row.TeamAvatarURL
		}

		if row.PartnerID != nil && *row.PartnerID != "" {
			partner := *row.PartnerID
			l.RankByPlayer[partner] = row.Rank
			l.PrimaryByPlayer[partner] = row.PlayerID
			l.MembershipIDByPlayer[partner] = row.ID
			l.PartnerByPlayer[partner] = row.PlayerID
			l.PartnerByPlayer[row.PlayerID] = partner
			if row.TeamAvatarURL != nil {
				l.TeamAvatarByPlayer[partner] = *row.TeamAvatarURL
			}
		}
	}

	if usable > 0 {
		return l
	}

	if len(fallbackPlayerIDs) == 0 {
		// Exhausted: the caller shows "no players".
		log.Warn("Membership resolution exhausted all fallback sources")
		return l
	}

	log.Info("Reconstructing member list from fallback sources", "players", len(fallbackPlayerIDs))
	for _, id := range fallbackPlayerIDs {
		if id == "" {
			continue
		}
		// Rank unknown: the player appears in the list without a position.
		l.PrimaryByPlayer[id] = id
	}
	return l
}

// Empty reports whether resolution produced no players at all.
func (l Lookups) Empty() bool {
	return len(l.PrimaryByPlayer) == 0
}
