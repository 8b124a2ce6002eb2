package ranking

import (
	"fmt"
	"sort"

	"github.com/clubkit/ladderd/internal/club"
)

// Reorder moves the target membership to newRank and renumbers every rank
// 1..N so the ladder stays a gapless permutation. newRank is clamped to
// [1, N]. The input slice is not modified; the returned slice is in final
// rank order. Calling it twice with the same target rank is a no-op the
// second time.
func Reorder(memberships []club.Membership, targetMembershipID string, newRank int) ([]club.Membership, error) {
	ordered := make([]club.Membership, len(memberships))
	copy(ordered, memberships)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Rank != ordered[j].Rank {
			return ordered[i].Rank < ordered[j].Rank
		}
		return ordered[i].CreatedAt < ordered[j].CreatedAt
	})

	targetIdx := -1
	for i, m := range ordered {
		if m.ID == targetMembershipID {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return nil, fmt.Errorf("membership %s: %w", targetMembershipID, club.ErrNotFound)
	}

	target := ordered[targetIdx]
	ordered = append(ordered[:targetIdx], ordered[targetIdx+1:]...)

	if newRank < 1 {
		newRank = 1
	}
	if newRank > len(ordered)+1 {
		newRank = len(ordered) + 1
	}

	insertAt := newRank - 1
	ordered = append(ordered, club.Membership{})
	copy(ordered[insertAt+1:], ordered[insertAt:])
	ordered[insertAt] = target

	for i := range ordered {
		ordered[i].Rank = i + 1
	}
	return ordered, nil
}

// Normalize repairs a rank set that is no longer a permutation of 1..N
// (duplicates or gaps left by a crash mid-write). Current rank order wins
// ties by membership age. Returns only the assignments that change a rank,
// ready for ClubStore.ApplyRanks.
func Normalize(memberships []club.Membership) []club.RankAssignment {
	ordered := make([]club.Membership, len(memberships))
	copy(ordered, memberships)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Rank != ordered[j].Rank {
			return ordered[i].Rank < ordered[j].Rank
		}
		return ordered[i].CreatedAt < ordered[j].CreatedAt
	})

	var changed []club.RankAssignment
	for i, m := range ordered {
		if m.Rank != i+1 {
			changed = append(changed, club.RankAssignment{MembershipID: m.ID, Rank: i + 1})
		}
	}
	return changed
}

// Assignments flattens an ordered membership slice into (id, rank) pairs.
func Assignments(ordered []club.Membership) []club.RankAssignment {
	assignments := make([]club.RankAssignment, len(ordered))
	for i, m := range ordered {
		assignments[i] = club.RankAssignment{MembershipID: m.ID, Rank: m.Rank}
	}
	return assignments
}
