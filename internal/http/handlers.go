package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/match"
	"github.com/clubkit/ladderd/internal/processor"
	"github.com/clubkit/ladderd/internal/ranking"
	"github.com/clubkit/ladderd/internal/rounds"
	"github.com/google/uuid"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !actorFromContext(r).IsSuperAdmin {
			http.Error(w, "Super admin rights required", http.StatusForbidden)
			return
		}
		log.Info("Received request to clear entire store")
		s.Store.Clear()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

func (s *Server) PlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			players, err := s.Store.GetAllPlayers()
			if err != nil {
				log.Error("Failed to get players from store", "error", err)
				http.Error(w, "Failed to get players", http.StatusInternalServerError)
				return
			}
			writeJSON(w, players)

		case http.MethodPost:
			if !actorFromContext(r).Elevated() {
				http.Error(w, "Admin rights required", http.StatusForbidden)
				return
			}
			var p club.Player
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if err := s.Store.UpsertPlayer(p); err != nil {
				log.Error("Failed to upsert player", "error", err, "playerID", p.ID)
				http.Error(w, "Failed to save player", http.StatusInternalServerError)
				return
			}
			writeJSON(w, p)

		case http.MethodDelete:
			if !actorFromContext(r).Elevated() {
				http.Error(w, "Admin rights required", http.StatusForbidden)
				return
			}
			playerID := r.URL.Query().Get("playerID")
			if playerID == "" {
				http.Error(w, "playerID is required", http.StatusBadRequest)
				return
			}
			if err := s.Store.RemovePlayer(playerID); err != nil {
				writeError(w, "Failed to remove player", err)
				return
			}
			log.Info("Player removed", "playerID", playerID)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "Removed player %s", playerID)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// PlayerRoleHandler grants or revokes a player's admin flag. Roles never
// travel through the player upsert, so this is the only write path for them.
func (s *Server) PlayerRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !actorFromContext(r).IsSuperAdmin {
			http.Error(w, "Super admin rights required", http.StatusForbidden)
			return
		}
		var req struct {
			PlayerID string `json:"player_id"`
			IsAdmin  bool   `json:"is_admin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.PlayerID == "" {
			http.Error(w, "player_id is required", http.StatusBadRequest)
			return
		}

		if err := s.Store.SetPlayerRole(req.PlayerID, req.IsAdmin); err != nil {
			writeError(w, "Failed to set player role", err)
			return
		}
		log.Info("Player role updated", "playerID", req.PlayerID, "isAdmin", req.IsAdmin)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Role updated")
	}
}

func (s *Server) ClubsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			clubs, err := s.Store.GetAllClubs()
			if err != nil {
				log.Error("Failed to get clubs from store", "error", err)
				http.Error(w, "Failed to get clubs", http.StatusInternalServerError)
				return
			}
			writeJSON(w, clubs)

		case http.MethodPost:
			if !actorFromContext(r).Elevated() {
				http.Error(w, "Admin rights required", http.StatusForbidden)
				return
			}
			var c club.Club
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			if err := s.Store.UpsertClub(c); err != nil {
				log.Error("Failed to upsert club", "error", err, "clubID", c.ID)
				http.Error(w, "Failed to save club", http.StatusInternalServerError)
				return
			}
			writeJSON(w, c)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) LaddersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ladders, err := s.Store.GetLadders(r.URL.Query().Get("clubID"))
			if err != nil {
				log.Error("Failed to get ladders from store", "error", err)
				http.Error(w, "Failed to get ladders", http.StatusInternalServerError)
				return
			}
			writeJSON(w, ladders)

		case http.MethodPost:
			if !actorFromContext(r).Elevated() {
				http.Error(w, "Admin rights required", http.StatusForbidden)
				return
			}
			var l club.Ladder
			if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if l.Type != club.LadderSingles && l.Type != club.LadderDoubles {
				http.Error(w, "Ladder type must be singles or doubles", http.StatusBadRequest)
				return
			}
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
			if err := s.Store.UpsertLadder(l); err != nil {
				log.Error("Failed to upsert ladder", "error", err, "ladderID", l.ID)
				http.Error(w, "Failed to save ladder", http.StatusInternalServerError)
				return
			}
			writeJSON(w, l)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// rankingEntry is one row of the /rankings response. Rank 0 means the player
// was reconstructed from fallback sources and has no stored position.
type rankingEntry struct {
	PlayerID      string `json:"player_id"`
	PartnerID     string `json:"partner_id,omitempty"`
	Rank          int    `json:"rank,omitempty"`
	PredictedRank *int   `json:"predicted_rank,omitempty"`
	TeamAvatarURL string `json:"team_avatar_url,omitempty"`
}

func (s *Server) RankingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ladderID := r.URL.Query().Get("ladderID")
		if ladderID == "" {
			http.Error(w, "ladderID is required", http.StatusBadRequest)
			return
		}

		memberships, err := s.Store.GetMemberships(ladderID)
		if err != nil {
			log.Error("Failed to get memberships", "error", err, "ladderID", ladderID)
			http.Error(w, "Failed to get memberships", http.StatusInternalServerError)
			return
		}
		fallback, err := s.Store.GatherFallbackPlayerIDs(ladderID)
		if err != nil {
			log.Warn("Failed to gather fallback player ids", "error", err, "ladderID", ladderID)
		}
		lookups := ranking.Resolve(memberships, fallback)
		if lookups.Empty() {
			log.Warn("Rendering empty ranking", "ladderID", ladderID, "error", ranking.ErrInconsistentMembership)
			writeJSON(w, []rankingEntry{})
			return
		}

		roundMatches, err := s.Store.GetMatchesInRound(ladderID, rounds.Label(time.Now()))
		if err != nil {
			log.Warn("Failed to load current round matches, skipping predictions", "error", err, "ladderID", ladderID)
		}

		var entries []rankingEntry
		for playerID, primary := range lookups.PrimaryByPlayer {
			if playerID != primary {
				continue // partners are folded into their primary's row
			}
			entry := rankingEntry{
				PlayerID:      playerID,
				PartnerID:     lookups.PartnerByPlayer[playerID],
				Rank:          lookups.RankByPlayer[playerID],
				TeamAvatarURL: lookups.TeamAvatarByPlayer[playerID],
			}
			if rank, ok := lookups.RankByPlayer[playerID]; ok {
				if predicted, ok := ranking.Predict(playerID, rank, roundMatches, lookups); ok {
					entry.PredictedRank = &predicted
				}
			}
			entries = append(entries, entry)
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Rank != entries[j].Rank {
				if entries[i].Rank == 0 {
					return false
				}
				if entries[j].Rank == 0 {
					return true
				}
				return entries[i].Rank < entries[j].Rank
			}
			return entries[i].PlayerID < entries[j].PlayerID
		})

		writeJSON(w, entries)
	}
}

func (s *Server) JoinLadderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LadderID  string  `json:"ladder_id"`
			PlayerID  string  `json:"player_id"`
			PartnerID *string `json:"partner_id,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.LadderID == "" || req.PlayerID == "" {
			http.Error(w, "ladder_id and player_id are required", http.StatusBadRequest)
			return
		}
		actor := actorFromContext(r)
		if !actor.Is(req.PlayerID) && !actor.Elevated() {
			http.Error(w, "You can only join for yourself", http.StatusForbidden)
			return
		}

		ladder, err := s.Store.GetLadder(req.LadderID)
		if err != nil {
			writeError(w, "Failed to load ladder", err)
			return
		}
		if ladder.Type == club.LadderSingles && req.PartnerID != nil {
			http.Error(w, "A singles ladder takes no partner", http.StatusBadRequest)
			return
		}
		if ladder.Type == club.LadderDoubles && (req.PartnerID == nil || *req.PartnerID == "") {
			http.Error(w, "A doubles ladder requires a partner", http.StatusBadRequest)
			return
		}

		membership, err := s.Store.JoinLadder(req.LadderID, req.PlayerID, req.PartnerID)
		if err != nil {
			writeError(w, "Failed to join ladder", err)
			return
		}
		log.Info("Player joined ladder", "ladderID", req.LadderID, "playerID", req.PlayerID, "rank", membership.Rank)
		writeJSON(w, membership)
	}
}

func (s *Server) LeaveLadderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LadderID string `json:"ladder_id"`
			PlayerID string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		actor := actorFromContext(r)
		if !actor.Is(req.PlayerID) && !actor.Elevated() {
			http.Error(w, "You can only leave for yourself", http.StatusForbidden)
			return
		}

		if err := s.Store.LeaveLadder(req.LadderID, req.PlayerID); err != nil {
			writeError(w, "Failed to leave ladder", err)
			return
		}
		log.Info("Player left ladder", "ladderID", req.LadderID, "playerID", req.PlayerID)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Left ladder")
	}
}

func (s *Server) ReorderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LadderID     string `json:"ladder_id"`
			MembershipID string `json:"membership_id"`
			NewRank      int    `json:"new_rank"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		err := s.Processor.ReorderLadder(actorFromContext(r), req.LadderID, req.MembershipID, req.NewRank, isDryRunFromContext(r))
		if err != nil {
			writeError(w, "Failed to reorder ladder", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Ladder reordered")
	}
}

func (s *Server) ChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LadderID     string `json:"ladder_id"`
			ChallengerID string `json:"challenger_id"`
			ChallengedID string `json:"challenged_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.ChallengerID == req.ChallengedID {
			http.Error(w, "You cannot challenge yourself", http.StatusBadRequest)
			return
		}
		actor := actorFromContext(r)
		if !actor.Is(req.ChallengerID) && !actor.Elevated() {
			http.Error(w, "You can only challenge as yourself", http.StatusForbidden)
			return
		}

		// Both sides must hold a membership in the ladder.
		for _, playerID := range []string{req.ChallengerID, req.ChallengedID} {
			if _, err := s.Store.GetMembership(req.LadderID, playerID); err != nil {
				writeError(w, fmt.Sprintf("Player %s is not on this ladder", playerID), err)
				return
			}
		}

		now := time.Now()
		start, end := rounds.Window(now)
		m := &club.Match{
			ID:           uuid.NewString(),
			LadderID:     req.LadderID,
			RoundLabel:   rounds.Label(now),
			RoundStart:   start.Unix(),
			RoundEnd:     end.Unix(),
			ChallengerID: req.ChallengerID,
			ChallengedID: req.ChallengedID,
			Status:       club.StatusPending,
			CreatedAt:    now.Unix(),
		}
		if err := s.Store.CreateMatch(m); err != nil {
			writeError(w, "Failed to create challenge", err)
			return
		}
		log.Info("Challenge created", "matchID", m.ID, "ladderID", m.LadderID, "round", m.RoundLabel)
		writeJSON(w, m)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ladderID := r.URL.Query().Get("ladderID")
		if ladderID == "" {
			http.Error(w, "ladderID is required", http.StatusBadRequest)
			return
		}

		var matches []*club.Match
		var err error
		if round := r.URL.Query().Get("round"); round != "" {
			matches, err = s.Store.GetMatchesInRound(ladderID, round)
		} else {
			matches, err = s.Store.GetMatchesByLadder(ladderID)
		}
		if err != nil {
			log.Error("Failed to get matches from store", "error", err, "ladderID", ladderID)
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			return
		}
		writeJSON(w, matches)
	}
}

func (s *Server) ScheduleMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MatchID string `json:"match_id"`
			At      string `json:"at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		at, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			http.Error(w, "at must be an RFC 3339 timestamp", http.StatusBadRequest)
			return
		}

		m, err := s.Processor.ScheduleMatch(actorFromContext(r), req.MatchID, at, isDryRunFromContext(r))
		var partial *processor.PartialNotificationError
		if errors.As(err, &partial) {
			// The schedule is saved; surface the delivery failure as a warning.
			writeJSON(w, struct {
				Match   *club.Match `json:"match"`
				Warning string      `json:"warning"`
			}{m, partial.Error()})
			return
		}
		if err != nil {
			writeError(w, "Failed to schedule match", err)
			return
		}
		writeJSON(w, m)
	}
}

func (s *Server) ScoreMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MatchID string `json:"match_id"`
			Score1  int    `json:"score1"`
			Score2  int    `json:"score2"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		m, err := s.Processor.CompleteMatch(actorFromContext(r), req.MatchID, req.Score1, req.Score2, isDryRunFromContext(r))
		if err != nil {
			writeError(w, "Failed to record score", err)
			return
		}
		writeJSON(w, m)
	}
}

func (s *Server) CancelMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MatchID string `json:"match_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		m, err := s.Store.GetMatch(req.MatchID)
		if err != nil {
			writeError(w, "Failed to load match", err)
			return
		}
		actor := actorFromContext(r)
		if !m.IsParticipant(actor.PlayerID) && !actor.Elevated() {
			http.Error(w, "Only a participant or an admin can cancel", http.StatusForbidden)
			return
		}
		if !match.CanTransition(m.Status, club.StatusCancelled) {
			http.Error(w, fmt.Sprintf("Cannot cancel a %s match", m.Status), http.StatusConflict)
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would cancel match", "matchID", req.MatchID)
		} else if err := s.Store.CancelMatch(req.MatchID); err != nil {
			writeError(w, "Failed to cancel match", err)
			return
		}
		log.Info("Match cancelled", "matchID", req.MatchID)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Match cancelled")
	}
}

func (s *Server) NotifyRoundsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := time.Now()
		if dateStr := r.URL.Query().Get("date"); dateStr != "" {
			parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			today = parsed
		}

		sent, err := s.Processor.NotifyRoundWindow(today, isDryRunFromContext(r))
		var partial *processor.PartialNotificationError
		if err != nil && !errors.As(err, &partial) {
			writeError(w, "Round notification batch failed", err)
			return
		}

		resp := struct {
			Sent    int    `json:"sent"`
			Warning string `json:"warning,omitempty"`
		}{Sent: sent}
		if partial != nil {
			resp.Warning = partial.Error()
		}
		writeJSON(w, resp)
	}
}

func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !actorFromContext(r).Elevated() {
			http.Error(w, "Admin rights required", http.StatusForbidden)
			return
		}
		var req struct {
			LadderID string `json:"ladder_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		corrected, err := s.Processor.ReconcileLadder(req.LadderID, isDryRunFromContext(r))
		if err != nil {
			writeError(w, "Failed to reconcile ladder", err)
			return
		}
		writeJSON(w, struct {
			Corrected int `json:"corrected"`
		}{corrected})
	}
}

// Avatar uploads are capped well below what the store would accept; profile
// pictures have no business being larger.
const maxAvatarSize = 5 << 20

func (s *Server) UploadAvatarHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		playerID := r.URL.Query().Get("playerID")
		membershipID := r.URL.Query().Get("membershipID")
		if (playerID == "") == (membershipID == "") {
			http.Error(w, "Exactly one of playerID and membershipID is required", http.StatusBadRequest)
			return
		}
		actor := actorFromContext(r)
		if playerID != "" && !actor.Is(playerID) && !actor.Elevated() {
			http.Error(w, "You can only change your own avatar", http.StatusForbidden)
			return
		}
		if membershipID != "" && !actor.Elevated() {
			m, err := s.Store.GetMembershipByID(membershipID)
			if err != nil {
				writeError(w, "Failed to load membership", err)
				return
			}
			if !actor.Is(m.PlayerID) && (m.PartnerID == nil || !actor.Is(*m.PartnerID)) {
				http.Error(w, "You can only change your own team's avatar", http.StatusForbidden)
				return
			}
		}

		if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("avatar")
		if err != nil {
			http.Error(w, "avatar file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		key := fmt.Sprintf("avatars/%s", uuid.NewString())
		result, err := s.Uploader.Upload(r.Context(), key, contentType, file)
		if err != nil {
			log.Error("Failed to upload avatar", "error", err)
			http.Error(w, "Failed to upload avatar", http.StatusInternalServerError)
			return
		}

		if playerID != "" {
			err = s.Store.SetPlayerAvatar(playerID, result.Location)
		} else {
			err = s.Store.SetTeamAvatar(membershipID, result.Location)
		}
		if err != nil {
			writeError(w, "Failed to save avatar URL", err)
			return
		}

		log.Info("Avatar uploaded", "key", result.Key, "playerID", playerID, "membershipID", membershipID)
		writeJSON(w, struct {
			URL string `json:"url"`
		}{result.Location})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, club.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, match.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, match.ErrInvalidScore):
		status = http.StatusBadRequest
	case errors.Is(err, match.ErrBadTransition),
		errors.Is(err, processor.ErrEditWindowClosed),
		errors.Is(err, club.ErrAlreadyMember):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Warn(msg, "error", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
}
