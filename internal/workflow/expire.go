package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
)

// RunExpiryPass enforces retention across the project.
//
// Responsibilities:
//  1. Discovery: retrieves every snapshot bearing the management tag. This is a sweep,
//     independent of the source volumes, which might have been deleted or unsubscribed.
//  2. Evaluation: decodes the retention tags and compares the expiry against now.
//  3. Cleanup: deletes the snapshots whose retention has elapsed.
//
// A snapshot whose retention tags cannot be decoded is reported as errored and
// never deleted.
func (s *Scheduler) RunExpiryPass(ctx context.Context) (summary ExpirySummary, err error) {
	summary = ExpirySummary{RunID: s.runID(), StartedAt: s.clock().Now()}
	logger := s.logger().With("workflow", "expiry", "snapsentry_id", summary.RunID)
	defer func() {
		summary.FinishedAt = s.clock().Now()
		s.Metrics.PassCompleted("expiry", summary.StartedAt, summary.FinishedAt)
	}()

	logger.Info("Initializing snapshot lifecycle workflow - expiry")

	snaps, err := s.Provider.ListManagedSnapshots(ctx, cloud.SnapshotFilter{
		Tags: map[string]string{s.Codec.ManagedKey(): "true"},
	})
	if err != nil {
		logger.Error("Failed to fetch managed snapshots", "error", err)
		return summary, fmt.Errorf("listing managed snapshots failed: %w", err)
	}
	logger.Info("Found managed snapshots", "count", len(snaps))

	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			logger.Warn("Workflow timed out, stopping early")
			return summary, err
		}

		r := s.processSnapshotExpiry(ctx, snap, logger)
		s.Metrics.ExpiryOutcome(string(r.Outcome))
		summary.add(r)
	}

	logger.Info("Expiry workflow completed",
		"deleted", summary.Deleted,
		"retained", summary.Retained,
		"errored", summary.Errored)

	return summary, nil
}

func (s *Scheduler) processSnapshotExpiry(ctx context.Context, snap cloud.Snapshot, logger *slog.Logger) SnapshotResult {
	snapLog := logger.With("snapshot_id", snap.ID, "volume_id", snap.VolumeID)
	result := SnapshotResult{SnapshotID: snap.ID, VolumeID: snap.VolumeID}

	record, err := s.Codec.DecodeRetention(snap.Tags)
	if err != nil {
		snapLog.Warn("Skipping snapshot: invalid retention metadata", "error", err)
		result.Outcome, result.Err = ExpiryErrored, err
		return result
	}
	result.ExpiresAt = record.ExpiryTimeUTC

	if !record.IsExpired(s.clock().Now()) {
		snapLog.Debug("Snapshot is in active retention period", "expires_at", record.ExpiryTimeUTC)
		result.Outcome = ExpiryRetained
		return result
	}

	snapLog.Info("Snapshot has expired", "expires_at", record.ExpiryTimeUTC.Format(time.RFC3339))

	if err := s.Provider.DeleteSnapshot(ctx, snap.ID); err != nil {
		snapLog.Error("Failed to delete snapshot", "error", err, "expires_at", record.ExpiryTimeUTC)
		result.Outcome, result.Err = ExpiryErrored, err
		return result
	}

	snapLog.Info("Snapshot deleted successfully", "expires_at", record.ExpiryTimeUTC)
	result.Outcome = ExpiryDeleted
	return result
}
