package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	MatchesCompleted    prometheus.Counter
	RankSwaps           prometheus.Counter
	Reorders            prometheus.Counter
	NotifyBatchRuns     prometheus.Counter
	ProcessingDuration  prometheus.Histogram
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	StartupTimeSeconds  prometheus.Gauge
}
