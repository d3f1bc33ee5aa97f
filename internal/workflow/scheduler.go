package workflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/metrics"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/notifications"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
	"github.com/jonboulle/clockwork"
)

// cleanupTimeout bounds the compensating delete of a snapshot that could not be
// tagged. It runs on a context detached from the pass so that a cancelled pass
// still gets a chance to clean up.
const cleanupTimeout = 2 * time.Minute

// Notifier delivers operator alerts for snapshots that need manual intervention.
type Notifier interface {
	Notify(ctx context.Context, notification notifications.SnapshotCreationFailure) error
}

// Scheduler runs creation, expiry and subscription passes against a Provider.
//
// Passes process items sequentially. A failure on one (volume, class) pair or
// one snapshot never stops the pass; only a failure to list the inventory or a
// cancelled context does.
type Scheduler struct {
	Provider cloud.Provider
	Codec    policy.Codec
	Clock    clockwork.Clock
	Logger   *slog.Logger

	// Notifier is optional. Without it orphaned snapshots are only logged.
	Notifier Notifier
	// Metrics is optional.
	Metrics *metrics.Recorder
	// RunID is attached to logs and notifications. Generated when empty.
	RunID string
}

// NewScheduler returns a Scheduler using the real clock and a fresh run id.
func NewScheduler(provider cloud.Provider, codec policy.Codec, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		Provider: provider,
		Codec:    codec,
		Clock:    clockwork.NewRealClock(),
		Logger:   logger,
		RunID:    NewRunID(),
	}
}

func (s *Scheduler) clock() clockwork.Clock {
	if s.Clock == nil {
		return clockwork.NewRealClock()
	}
	return s.Clock
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Scheduler) runID() string {
	if s.RunID == "" {
		s.RunID = NewRunID()
	}
	return s.RunID
}
