package club

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// JoinLadder creates a membership for the player (and optional doubles
// partner), appended at the bottom of the ladder. A player or partner that
// already holds a membership in the ladder cannot join twice.
func (s *store) JoinLadder(ladderID, playerID string, partnerID *string) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM memberships WHERE ladder_id = ? AND (player_id = ? OR partner_id = ?))
	`, ladderID, playerID, playerID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("player %s in ladder %s: %w", playerID, ladderID, ErrAlreadyMember)
	}
	if partnerID != nil {
		err = tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM memberships WHERE ladder_id = ? AND (player_id = ? OR partner_id = ?))
		`, ladderID, *partnerID, *partnerID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check partner membership: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("partner %s in ladder %s: %w", *partnerID, ladderID, ErrAlreadyMember)
		}
	}

	var maxRank sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(rank) FROM memberships WHERE ladder_id = ?", ladderID).Scan(&maxRank); err != nil {
		return nil, fmt.Errorf("failed to find bottom rank: %w", err)
	}

	m := &Membership{
		ID:        uuid.New().String(),
		LadderID:  ladderID,
		PlayerID:  playerID,
		PartnerID: partnerID,
		Rank:      int(maxRank.Int64) + 1,
		CreatedAt: time.Now().Unix(),
	}

	_, err = tx.Exec(`
		INSERT INTO memberships (id, ladder_id, player_id, partner_id, rank, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.LadderID, m.PlayerID, m.PartnerID, m.Rank, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}
	log.Info("Player joined ladder", "ladderID", ladderID, "playerID", playerID, "rank", m.Rank)
	return m, nil
}

// LeaveLadder removes the player's membership and renumbers the survivors so
// ranks stay a gapless 1..N, all in one transaction.
func (s *store) LeaveLadder(ladderID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM memberships WHERE ladder_id = ? AND player_id = ?", ladderID, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("membership of %s in %s: %w", playerID, ladderID, ErrNotFound)
	}

	if err := renumberLadder(tx, ladderID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leave: %w", err)
	}
	log.Info("Player left ladder", "ladderID", ladderID, "playerID", playerID)
	return nil
}

func (s *store) GetMemberships(ladderID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, ladder_id, player_id, partner_id, rank, team_avatar_url, created_at
		FROM memberships WHERE ladder_id = ? ORDER BY rank
	`, ladderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			log.Error("Failed to scan membership row", "error", err)
			continue
		}
		memberships = append(memberships, *m)
	}
	return memberships, nil
}

func (s *store) GetMembership(ladderID, playerID string) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, ladder_id, player_id, partner_id, rank, team_avatar_url, created_at
		FROM memberships WHERE ladder_id = ? AND (player_id = ? OR partner_id = ?)
	`, ladderID, playerID, playerID)
	m, err := scanMembership(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("membership of %s in %s: %w", playerID, ladderID, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (s *store) GetMembershipByID(membershipID string) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, ladder_id, player_id, partner_id, rank, team_avatar_url, created_at
		FROM memberships WHERE id = ?
	`, membershipID)
	m, err := scanMembership(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("membership %s: %w", membershipID, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

// ApplyRanks persists a set of (membership, rank) assignments in one
// transaction and records a rank_history row for every membership whose rank
// actually changed.
func (s *store) ApplyRanks(ladderID string, assignments []RankAssignment, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, a := range assignments {
		var (
			oldRank  int
			playerID string
		)
		err := tx.QueryRow("SELECT rank, player_id FROM memberships WHERE id = ? AND ladder_id = ?", a.MembershipID, ladderID).
			Scan(&oldRank, &playerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("membership %s: %w", a.MembershipID, ErrNotFound)
			}
			return fmt.Errorf("failed to read membership %s: %w", a.MembershipID, err)
		}
		if oldRank == a.Rank {
			continue
		}
		if _, err := tx.Exec("UPDATE memberships SET rank = ? WHERE id = ?", a.Rank, a.MembershipID); err != nil {
			return fmt.Errorf("failed to update rank for %s: %w", a.MembershipID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO rank_history (id, ladder_id, player_id, old_rank, new_rank, reason, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), ladderID, playerID, oldRank, a.Rank, reason, now)
		if err != nil {
			return fmt.Errorf("failed to record rank history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank assignments: %w", err)
	}
	log.Info("Applied rank assignments", "ladderID", ladderID, "count", len(assignments), "reason", reason)
	return nil
}

func (s *store) SetTeamAvatar(membershipID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE memberships SET team_avatar_url = ? WHERE id = ?", url, membershipID)
	if err != nil {
		return fmt.Errorf("failed to set team avatar: %w", err)
	}
	return requireRowAffected(res)
}

// GetLadderMemberIDs returns the primary and partner player ids per ladder.
func (s *store) GetLadderMemberIDs(ladderIDs []string) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ladderMemberIDs(s.db, ladderIDs)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func ladderMemberIDs(q queryer, ladderIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	for _, ladderID := range ladderIDs {
		rows, err := q.Query("SELECT player_id, partner_id FROM memberships WHERE ladder_id = ?", ladderID)
		if err != nil {
			return nil, fmt.Errorf("failed to query member ids: %w", err)
		}
		for rows.Next() {
			var playerID string
			var partnerID sql.NullString
			if err := rows.Scan(&playerID, &partnerID); err != nil {
				log.Error("Failed to scan member id row", "error", err)
				continue
			}
			result[ladderID] = append(result[ladderID], playerID)
			if partnerID.Valid {
				result[ladderID] = append(result[ladderID], partnerID.String)
			}
		}
		rows.Close()
	}
	return result, nil
}

// GatherFallbackPlayerIDs unions every player id the ladder is known to have
// touched: membership rows, match participants and the rank history audit
// log. Used when direct membership data is missing or unusable.
func (s *store) GatherFallbackPlayerIDs(ladderID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	members, err := ladderMemberIDs(s.db, []string{ladderID})
	if err != nil {
		return nil, err
	}
	for _, id := range members[ladderID] {
		add(id)
	}

	matchRows, err := s.db.Query("SELECT challenger_id, challenged_id FROM matches WHERE ladder_id = ?", ladderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	for matchRows.Next() {
		var challengerID, challengedID string
		if err := matchRows.Scan(&challengerID, &challengedID); err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		add(challengerID)
		add(challengedID)
	}
	matchRows.Close()

	historyRows, err := s.db.Query("SELECT DISTINCT player_id FROM rank_history WHERE ladder_id = ?", ladderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rank history: %w", err)
	}
	for historyRows.Next() {
		var playerID string
		if err := historyRows.Scan(&playerID); err != nil {
			log.Error("Failed to scan rank history row", "error", err)
			continue
		}
		add(playerID)
	}
	historyRows.Close()

	return ids, nil
}

func (s *store) GetRankHistory(ladderID string) ([]RankChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, ladder_id, player_id, old_rank, new_rank, reason, recorded_at
		FROM rank_history WHERE ladder_id = ? ORDER BY recorded_at DESC
	`, ladderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rank history: %w", err)
	}
	defer rows.Close()

	var changes []RankChange
	for rows.Next() {
		var c RankChange
		if err := rows.Scan(&c.ID, &c.LadderID, &c.PlayerID, &c.OldRank, &c.NewRank, &c.Reason, &c.RecordedAt); err != nil {
			log.Error("Failed to scan rank history row", "error", err)
			continue
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// renumberLadder rewrites ranks 1..N in current rank order, closing any gaps.
// Must be called inside the caller's transaction.
func renumberLadder(tx *sql.Tx, ladderID string) error {
	rows, err := tx.Query("SELECT id FROM memberships WHERE ladder_id = ? ORDER BY rank, created_at", ladderID)
	if err != nil {
		return fmt.Errorf("failed to query memberships for renumbering: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for i, id := range ids {
		if _, err := tx.Exec("UPDATE memberships SET rank = ? WHERE id = ?", i+1, id); err != nil {
			return fmt.Errorf("failed to renumber membership %s: %w", id, err)
		}
	}
	return nil
}

func scanMembership(scanner rowScanner) (*Membership, error) {
	var (
		m          Membership
		partnerID  sql.NullString
		teamAvatar sql.NullString
	)
	err := scanner.Scan(&m.ID, &m.LadderID, &m.PlayerID, &partnerID, &m.Rank, &teamAvatar, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if partnerID.Valid {
		m.PartnerID = &partnerID.String
	}
	if teamAvatar.Valid {
		m.TeamAvatarURL = &teamAvatar.String
	}
	return &m, nil
}
