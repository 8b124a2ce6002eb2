package http

import (
	"net/http"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/config"
	"github.com/clubkit/ladderd/internal/processor"
	"github.com/clubkit/ladderd/internal/storage"
)

type Server struct {
	Store          club.ClubStore
	MetricsHandler http.Handler
	Cfg            config.Config
	Processor      processor.MatchProcessor
	Uploader       storage.Uploader
	Router         *http.ServeMux
}
