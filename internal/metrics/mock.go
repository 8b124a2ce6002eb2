package metrics

import "sync"

// MockMetrics is a no-op implementation of the Metrics interface that
// records call counts for assertions.
type MockMetrics struct {
	mu sync.Mutex

	MatchesCompletedCount    int
	RankSwapsCount           int
	ReordersCount            int
	NotifyBatchRunsCount     int
	NotificationsSentCount   int
	NotificationsFailedCount int
	Durations                []float64
	StartupTimes             []float64
}

var _ Metrics = (*MockMetrics)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockMetrics {
	return &MockMetrics{}
}

func (m *MockMetrics) IncMatchesCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MatchesCompletedCount++
}

func (m *MockMetrics) IncRankSwaps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RankSwapsCount++
}

func (m *MockMetrics) IncReorders() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReordersCount++
}

func (m *MockMetrics) IncNotifyBatchRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyBatchRunsCount++
}

func (m *MockMetrics) ObserveProcessingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Durations = append(m.Durations, duration)
}

func (m *MockMetrics) IncNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSentCount++
}

func (m *MockMetrics) IncNotificationsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsFailedCount++
}

func (m *MockMetrics) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartupTimes = append(m.StartupTimes, duration)
}
