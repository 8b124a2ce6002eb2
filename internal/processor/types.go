package processor

import (
	"errors"
	"fmt"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/pubsub"
	"golang.org/x/time/rate"
)

// ErrEditWindowClosed is returned when a completed match's score can no
// longer be corrected.
var ErrEditWindowClosed = errors.New("score edit window has closed")

// Processor drives the ladder workflows that span the store, the ranking
// rules and the notification channels.
type Processor struct {
	store    club.ClubStore
	pubsub   pubsub.PubSubClient
	notifier notifier.Notifier
	metrics  metrics.Metrics
	limiter  *rate.Limiter
}

// PartialNotificationError reports that the primary operation was persisted
// but one or more notifications failed to go out. Callers should treat it as
// a soft warning, not a failure of the operation itself.
type PartialNotificationError struct {
	Errs []error
}

func (e *PartialNotificationError) Error() string {
	return fmt.Sprintf("operation succeeded but %d notification(s) failed: %v", len(e.Errs), errors.Join(e.Errs...))
}
