package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_completed_total",
			Help: "The total number of matches completed with a submitted score.",
		}),
		RankSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_rank_swaps_total",
			Help: "The total number of upset-driven rank swaps applied.",
		}),
		Reorders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_reorders_total",
			Help: "The total number of manual rank reorders applied.",
		}),
		NotifyBatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_notify_batch_runs_total",
			Help: "The total number of round notification batch runs.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ladder_match_processing_duration_seconds",
			Help:    "The duration of individual match completion processing.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ladder_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesCompleted,
		s.RankSwaps,
		s.Reorders,
		s.NotifyBatchRuns,
		s.ProcessingDuration,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesCompleted() {
	s.MatchesCompleted.Inc()
}

func (s *Service) IncRankSwaps() {
	s.RankSwaps.Inc()
}

func (s *Service) IncReorders() {
	s.Reorders.Inc()
}

func (s *Service) IncNotifyBatchRuns() {
	s.NotifyBatchRuns.Inc()
}

func (s *Service) ObserveProcessingDuration(duration float64) {
	s.ProcessingDuration.Observe(duration)
}

func (s *Service) IncNotificationsSent() {
	s.NotificationsSent.Inc()
}

func (s *Service) IncNotificationsFailed() {
	s.NotificationsFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
