package club

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

// UpsertPlayer inserts a new player or updates an existing one.
func (s *store) UpsertPlayer(p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clubIDsJSON, err := json.Marshal(p.ClubIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal club ids: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO players (id, name, email, phone, gender, is_admin, is_super_admin, avatar_url, club_ids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			gender = excluded.gender,
			avatar_url = excluded.avatar_url,
			club_ids_json = excluded.club_ids_json;
	`, p.ID, p.Name, p.Email, p.Phone, p.Gender, p.IsAdmin, p.IsSuperAdmin, p.AvatarURL, string(clubIDsJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}
	return nil
}

func (s *store) GetPlayer(playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, email, phone, gender, is_admin, is_super_admin, avatar_url, club_ids_json
		FROM players WHERE id = ?
	`, playerID)
	return scanPlayer(row)
}

func (s *store) GetPlayerByEmail(email string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, email, phone, gender, is_admin, is_super_admin, avatar_url, club_ids_json
		FROM players WHERE email = ? COLLATE NOCASE LIMIT 1
	`, email)
	return scanPlayer(row)
}

func (s *store) GetPlayers(playerIDs []string) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(playerIDs) == 0 {
		return []Player{}, nil
	}

	placeholders := strings.Repeat("?,", len(playerIDs)-1) + "?"
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, gender, is_admin, is_super_admin, avatar_url, club_ids_json
		FROM players WHERE id IN (%s)
	`, placeholders)

	rows, err := s.db.Query(query, ToAnySlice(playerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()
	return collectPlayers(rows), nil
}

func (s *store) GetAllPlayers() ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, email, phone, gender, is_admin, is_super_admin, avatar_url, club_ids_json
		FROM players ORDER BY name
	`)
	if err != nil {
		log.Error("Failed to query all players", "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectPlayers(rows), nil
}

// RemovePlayer deletes a player and everything that hangs off them:
// memberships (renumbering each affected ladder) and matches they are part
// of. The whole cascade runs in one transaction.
func (s *store) RemovePlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT DISTINCT ladder_id FROM memberships WHERE player_id = ? OR partner_id = ?", playerID, playerID)
	if err != nil {
		return fmt.Errorf("failed to find player ladders: %w", err)
	}
	var ladderIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ladderIDs = append(ladderIDs, id)
	}
	rows.Close()

	if _, err := tx.Exec("DELETE FROM memberships WHERE player_id = ? OR partner_id = ?", playerID, playerID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM matches WHERE challenger_id = ? OR challenged_id = ?", playerID, playerID); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM players WHERE id = ?", playerID); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}

	// Close the rank gaps left behind in each ladder the player was part of.
	for _, ladderID := range ladderIDs {
		if err := renumberLadder(tx, ladderID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit player removal: %w", err)
	}
	log.Info("Removed player and cascaded memberships", "playerID", playerID, "ladders", len(ladderIDs))
	return nil
}

func (s *store) SetPlayerAvatar(playerID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE players SET avatar_url = ? WHERE id = ?", url, playerID)
	if err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	return requireRowAffected(res)
}

func (s *store) SetPlayerRole(playerID string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE players SET is_admin = ? WHERE id = ?", isAdmin, playerID)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return requireRowAffected(res)
}

func (s *store) UpsertClub(c Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO clubs (id, name, city, sport, contact_email, contact_phone)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			sport = excluded.sport,
			contact_email = excluded.contact_email,
			contact_phone = excluded.contact_phone;
	`, c.ID, c.Name, c.City, c.Sport, c.ContactEmail, c.ContactPhone)
	if err != nil {
		return fmt.Errorf("failed to upsert club: %w", err)
	}
	return nil
}

func (s *store) GetAllClubs() ([]Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, name, city, sport, contact_email, contact_phone FROM clubs ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []Club
	for rows.Next() {
		var c Club
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.Sport, &c.ContactEmail, &c.ContactPhone); err != nil {
			log.Error("Failed to scan club row", "error", err)
			continue
		}
		clubs = append(clubs, c)
	}
	return clubs, nil
}

func (s *store) UpsertLadder(l Ladder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO ladders (id, club_id, name, type, warmup_rule, playtime_rule)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			warmup_rule = excluded.warmup_rule,
			playtime_rule = excluded.playtime_rule;
	`, l.ID, l.ClubID, l.Name, string(l.Type), l.WarmupRule, l.PlaytimeRule)
	if err != nil {
		return fmt.Errorf("failed to upsert ladder: %w", err)
	}
	return nil
}

func (s *store) GetLadder(ladderID string) (*Ladder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		l       Ladder
		ltype   string
		warmup  sql.NullString
		playtim sql.NullString
	)
	err := s.db.QueryRow("SELECT id, club_id, name, type, warmup_rule, playtime_rule FROM ladders WHERE id = ?", ladderID).
		Scan(&l.ID, &l.ClubID, &l.Name, &ltype, &warmup, &playtim)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ladder %s: %w", ladderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ladder: %w", err)
	}
	l.Type = LadderType(ltype)
	if warmup.Valid {
		l.WarmupRule = &warmup.String
	}
	if playtim.Valid {
		l.PlaytimeRule = &playtim.String
	}
	return &l, nil
}

func (s *store) GetLadders(clubID string) ([]Ladder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, club_id, name, type, warmup_rule, playtime_rule FROM ladders"
	args := []any{}
	if clubID != "" {
		query += " WHERE club_id = ?"
		args = append(args, clubID)
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ladders []Ladder
	for rows.Next() {
		var (
			l       Ladder
			ltype   string
			warmup  sql.NullString
			playtim sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.ClubID, &l.Name, &ltype, &warmup, &playtim); err != nil {
			log.Error("Failed to scan ladder row", "error", err)
			continue
		}
		l.Type = LadderType(ltype)
		if warmup.Valid {
			l.WarmupRule = &warmup.String
		}
		if playtim.Valid {
			l.PlaytimeRule = &playtim.String
		}
		ladders = append(ladders, l)
	}
	return ladders, nil
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}

	for _, table := range []string{"rank_history", "matches", "memberships", "ladders", "clubs", "players"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

type rowScanner interface{ Scan(...any) error }

func scanPlayer(scanner rowScanner) (*Player, error) {
	var (
		p          Player
		avatarURL  sql.NullString
		clubIDsRaw sql.NullString
	)
	err := scanner.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Gender, &p.IsAdmin, &p.IsSuperAdmin, &avatarURL, &clubIDsRaw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("player: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}
	if clubIDsRaw.Valid && clubIDsRaw.String != "" {
		if err := json.Unmarshal([]byte(clubIDsRaw.String), &p.ClubIDs); err != nil {
			log.Error("Failed to unmarshal club_ids_json", "error", err, "playerID", p.ID)
		}
	}
	return &p, nil
}

func collectPlayers(rows *sql.Rows) []Player {
	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, *p)
	}
	return players
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func ToAnySlice[T any](s []T) []any {
	a := make([]any, len(s))
	for i, v := range s {
		a[i] = v
	}
	return a
}
