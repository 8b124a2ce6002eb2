package club

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// CreateMatch inserts a new challenge. The caller fills in ids, the round
// window and both sides; status defaults to pending if unset.
func (s *store) CreateMatch(m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Status == "" {
		m.Status = StatusPending
	}
	now := time.Now().Unix()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO matches (id, ladder_id, round_label, round_start, round_end, challenger_id, challenged_id,
			status, scheduled_at, winner_id, score, score1, score2, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.LadderID, m.RoundLabel, m.RoundStart, m.RoundEnd, m.ChallengerID, m.ChallengedID,
		string(m.Status), m.ScheduledAt, m.WinnerID, m.Score, m.Score1, m.Score2, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	log.Info("Created match", "matchID", m.ID, "ladderID", m.LadderID, "round", m.RoundLabel)
	return nil
}

func (s *store) GetMatch(matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, ladder_id, round_label, round_start, round_end, challenger_id, challenged_id,
			status, scheduled_at, winner_id, score, score1, score2, created_at, updated_at
		FROM matches WHERE id = ?
	`, matchID)
	m, err := scanMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (s *store) UpdateMatchSchedule(matchID string, scheduledAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET status = ?, scheduled_at = ?, updated_at = ? WHERE id = ?
	`, string(StatusScheduled), scheduledAt, time.Now().Unix(), matchID)
	if err != nil {
		return fmt.Errorf("failed to schedule match: %w", err)
	}
	return requireRowAffected(res)
}

func (s *store) CompleteMatch(matchID string, winnerID *string, score string, score1, score2 int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET status = ?, winner_id = ?, score = ?, score1 = ?, score2 = ?, updated_at = ?
		WHERE id = ?
	`, string(StatusCompleted), winnerID, score, score1, score2, time.Now().Unix(), matchID)
	if err != nil {
		return fmt.Errorf("failed to complete match: %w", err)
	}
	return requireRowAffected(res)
}

func (s *store) CancelMatch(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET status = ?, updated_at = ? WHERE id = ?
	`, string(StatusCancelled), time.Now().Unix(), matchID)
	if err != nil {
		return fmt.Errorf("failed to cancel match: %w", err)
	}
	return requireRowAffected(res)
}

func (s *store) GetMatchesByLadder(ladderID string) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMatches(`
		SELECT id, ladder_id, round_label, round_start, round_end, challenger_id, challenged_id,
			status, scheduled_at, winner_id, score, score1, score2, created_at, updated_at
		FROM matches WHERE ladder_id = ? ORDER BY round_start DESC, created_at DESC
	`, ladderID)
}

func (s *store) GetMatchesInRound(ladderID, roundLabel string) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMatches(`
		SELECT id, ladder_id, round_label, round_start, round_end, challenger_id, challenged_id,
			status, scheduled_at, winner_id, score, score1, score2, created_at, updated_at
		FROM matches WHERE ladder_id = ? AND round_label = ? ORDER BY created_at
	`, ladderID, roundLabel)
}

// GetOpenMatches returns every match that has not reached a terminal status.
// The round notifier batches over these.
func (s *store) GetOpenMatches() ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMatches(`
		SELECT id, ladder_id, round_label, round_start, round_end, challenger_id, challenged_id,
			status, scheduled_at, winner_id, score, score1, score2, created_at, updated_at
		FROM matches WHERE status NOT IN (?, ?) ORDER BY round_start, created_at
	`, string(StatusCompleted), string(StatusCancelled))
}

func (s *store) GetLaddersWithOpenMatches() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT ladder_id FROM matches WHERE status NOT IN (?, ?)
	`, string(StatusCompleted), string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("failed to query ladders with open matches: %w", err)
	}
	defer rows.Close()

	var ladderIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Error("Failed to scan ladder id row", "error", err)
			continue
		}
		ladderIDs = append(ladderIDs, id)
	}
	return ladderIDs, nil
}

func (s *store) queryMatches(query string, args ...any) ([]*Match, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func scanMatch(scanner rowScanner) (*Match, error) {
	var (
		m           Match
		status      string
		scheduledAt sql.NullInt64
		winnerID    sql.NullString
		score       sql.NullString
		score1      sql.NullInt64
		score2      sql.NullInt64
	)
	err := scanner.Scan(&m.ID, &m.LadderID, &m.RoundLabel, &m.RoundStart, &m.RoundEnd,
		&m.ChallengerID, &m.ChallengedID, &status, &scheduledAt, &winnerID, &score, &score1, &score2,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = MatchStatus(status)
	if scheduledAt.Valid {
		m.ScheduledAt = &scheduledAt.Int64
	}
	if winnerID.Valid {
		m.WinnerID = &winnerID.String
	}
	if score.Valid {
		m.Score = &score.String
	}
	if score1.Valid {
		v := int(score1.Int64)
		m.Score1 = &v
	}
	if score2.Valid {
		v := int(score2.Int64)
		m.Score2 = &v
	}
	return &m, nil
}
