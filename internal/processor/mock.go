package processor

import (
	"sync"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/identity"
)

// MockProcessor is a mock implementation of the MatchProcessor interface.
type MockProcessor struct {
	mu sync.Mutex

	CompleteMatchFunc     func(actor identity.Actor, matchID string, score1, score2 int, dryRun bool) (*club.Match, error)
	ScheduleMatchFunc     func(actor identity.Actor, matchID string, at time.Time, dryRun bool) (*club.Match, error)
	ReorderLadderFunc     func(actor identity.Actor, ladderID, membershipID string, newRank int, dryRun bool) error
	ReconcileLadderFunc   func(ladderID string, dryRun bool) (int, error)
	NotifyRoundWindowFunc func(today time.Time, dryRun bool) (int, error)

	CompleteMatchCalls []struct {
		Actor   identity.Actor
		MatchID string
		Score1  int
		Score2  int
	}
	ScheduleMatchCalls []struct {
		Actor   identity.Actor
		MatchID string
		At      time.Time
	}
	ReorderLadderCalls []struct {
		LadderID     string
		MembershipID string
		NewRank      int
	}
	NotifyRoundWindowCalls []time.Time
}

var _ MatchProcessor = (*MockProcessor)(nil)

// NewMockProcessor creates a new mock instance.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

func (m *MockProcessor) CompleteMatch(actor identity.Actor, matchID string, score1, score2 int, dryRun bool) (*club.Match, error) {
	m.mu.Lock()
	m.CompleteMatchCalls = append(m.CompleteMatchCalls, struct {
		Actor   identity.Actor
		MatchID string
		Score1  int
		Score2  int
	}{actor, matchID, score1, score2})
	m.mu.Unlock()
	if m.CompleteMatchFunc != nil {
		return m.CompleteMatchFunc(actor, matchID, score1, score2, dryRun)
	}
	return &club.Match{ID: matchID, Status: club.StatusCompleted}, nil
}

func (m *MockProcessor) ScheduleMatch(actor identity.Actor, matchID string, at time.Time, dryRun bool) (*club.Match, error) {
	m.mu.Lock()
	m.ScheduleMatchCalls = append(m.ScheduleMatchCalls, struct {
		Actor   identity.Actor
		MatchID string
		At      time.Time
	}{actor, matchID, at})
	m.mu.Unlock()
	if m.ScheduleMatchFunc != nil {
		return m.ScheduleMatchFunc(actor, matchID, at, dryRun)
	}
	return &club.Match{ID: matchID, Status: club.StatusScheduled}, nil
}

func (m *MockProcessor) ReorderLadder(actor identity.Actor, ladderID, membershipID string, newRank int, dryRun bool) error {
	m.mu.Lock()
	m.ReorderLadderCalls = append(m.ReorderLadderCalls, struct {
		LadderID     string
		MembershipID string
		NewRank      int
	}{ladderID, membershipID, newRank})
	m.mu.Unlock()
	if m.ReorderLadderFunc != nil {
		return m.ReorderLadderFunc(actor, ladderID, membershipID, newRank, dryRun)
	}
	return nil
}

func (m *MockProcessor) ReconcileLadder(ladderID string, dryRun bool) (int, error) {
	if m.ReconcileLadderFunc != nil {
		return m.ReconcileLadderFunc(ladderID, dryRun)
	}
	return 0, nil
}

func (m *MockProcessor) NotifyRoundWindow(today time.Time, dryRun bool) (int, error) {
	m.mu.Lock()
	m.NotifyRoundWindowCalls = append(m.NotifyRoundWindowCalls, today)
	m.mu.Unlock()
	if m.NotifyRoundWindowFunc != nil {
		return m.NotifyRoundWindowFunc(today, dryRun)
	}
	return 0, nil
}
