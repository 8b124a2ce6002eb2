package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// Subscribers feed the realtime ranking refresh and the stats pipeline.
type EventType string

const (
	EventMatchCompleted EventType = "match-completed"
	EventRankUpdated    EventType = "rank-updated"
	EventMatchScheduled EventType = "match-scheduled"
)
