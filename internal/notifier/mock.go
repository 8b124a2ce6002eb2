package notifier

import (
	"sync"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/rounds"
)

// MockNotifier records notification calls for assertions in tests.
type MockNotifier struct {
	mu sync.Mutex

	SendMatchScheduledFunc func(m *club.Match, recipients []club.Player, dryRun bool) error
	SendMatchResultFunc    func(m *club.Match, recipients []club.Player, dryRun bool) error
	SendRoundDigestFunc    func(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error

	SendMatchScheduledCalls []struct {
		Match      *club.Match
		Recipients []club.Player
	}
	SendMatchResultCalls []struct {
		Match      *club.Match
		Recipients []club.Player
	}
	SendRoundDigestCalls []struct {
		Recipient club.Player
		Window    rounds.NotificationWindow
		Matches   []*club.Match
	}
}

var _ Notifier = (*MockNotifier)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendMatchScheduled(match *club.Match, recipients []club.Player, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchScheduledCalls = append(m.SendMatchScheduledCalls, struct {
		Match      *club.Match
		Recipients []club.Player
	}{match, recipients})
	m.mu.Unlock()
	if m.SendMatchScheduledFunc != nil {
		return m.SendMatchScheduledFunc(match, recipients, dryRun)
	}
	return nil
}

func (m *MockNotifier) SendMatchResult(match *club.Match, recipients []club.Player, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, struct {
		Match      *club.Match
		Recipients []club.Player
	}{match, recipients})
	m.mu.Unlock()
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(match, recipients, dryRun)
	}
	return nil
}

func (m *MockNotifier) SendRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error {
	m.mu.Lock()
	m.SendRoundDigestCalls = append(m.SendRoundDigestCalls, struct {
		Recipient club.Player
		Window    rounds.NotificationWindow
		Matches   []*club.Match
	}{recipient, window, matches})
	m.mu.Unlock()
	if m.SendRoundDigestFunc != nil {
		return m.SendRoundDigestFunc(recipient, window, matches, players, dryRun)
	}
	return nil
}
