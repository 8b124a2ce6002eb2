package http

import (
	"net/http"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/config"
	"github.com/clubkit/ladderd/internal/processor"
	"github.com/clubkit/ladderd/internal/storage"
)

func NewServer(store club.ClubStore, metricsHandler http.Handler, cfg config.Config, processor processor.MatchProcessor, uploader storage.Uploader) *Server {
	server := &Server{
		Store:          store,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Processor:      processor,
		Uploader:       uploader,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// /metrics and /health stay unauthenticated for the scraper and the
	// load balancer.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/clear", Chain(s.ClearStoreHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/players", Chain(s.PlayersHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/players/role", Chain(s.PlayerRoleHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/clubs", Chain(s.ClubsHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/ladders", Chain(s.LaddersHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/rankings", Chain(s.RankingsHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/ladders/join", Chain(s.JoinLadderHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/ladders/leave", Chain(s.LeaveLadderHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/ladders/reorder", Chain(s.ReorderHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/challenge", Chain(s.ChallengeHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/matches/schedule", Chain(s.ScheduleMatchHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/matches/score", Chain(s.ScoreMatchHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/matches/cancel", Chain(s.CancelMatchHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/notify-rounds", Chain(s.NotifyRoundsHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/reconcile", Chain(s.ReconcileHandler(), paramsMiddleware, s.authMiddleware))
	s.Router.Handle("/avatars/upload", Chain(s.UploadAvatarHandler(), paramsMiddleware, s.authMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
