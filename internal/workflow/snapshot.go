package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/notifications"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
)

// RunSnapshotPass creates the snapshots that are due for every managed volume.
//
// Workflow per volume:
//  1. Policy Loading: decodes the daily, weekly and monthly classes from the volume tags.
//     A class that fails validation is reported as errored; its siblings still run.
//  2. Evaluation: asks each enabled class whether its window is open now.
//  3. History Check: looks for an available managed snapshot of the same class inside
//     the current window, so that repeated runs create at most one snapshot per window.
//  4. Execution: creates the snapshot and writes its retention tags.
//  5. Cleanup: deletes the snapshot again when it could not be tagged, since an untagged
//     snapshot is never expired. If that delete fails too, an operator is alerted.
//
// The returned error is non-nil only when the volume inventory cannot be listed or
// the context ends. Per-class failures are reported in the summary.
func (s *Scheduler) RunSnapshotPass(ctx context.Context) (summary PassSummary, err error) {
	summary = PassSummary{RunID: s.runID(), StartedAt: s.clock().Now()}
	logger := s.logger().With("workflow", "snapshot", "snapsentry_id", summary.RunID)
	defer func() {
		summary.FinishedAt = s.clock().Now()
		s.Metrics.PassCompleted("snapshot", summary.StartedAt, summary.FinishedAt)
	}()

	logger.Info("Initializing snapshot lifecycle workflow")

	volumes, err := s.Provider.ListVolumes(ctx)
	if err != nil {
		logger.Error("Volume discovery failed", "error", err)
		return summary, fmt.Errorf("listing volumes failed: %w", err)
	}
	logger.Debug("Volume discovery completed", "volume_count", len(volumes))

	for i, vol := range volumes {
		if err := ctx.Err(); err != nil {
			logger.Warn("Workflow execution halted due to timeout or cancellation")
			return summary, err
		}

		volLogger := logger.With(
			"volume_id", vol.ID,
			"volume_name", vol.Name,
			"progress", fmt.Sprintf("%d/%d", i+1, len(volumes)),
		)

		vr, managed := s.processVolume(ctx, vol, volLogger)
		if !managed {
			continue
		}
		summary.add(vr)
	}

	logger.Info("Snapshot workflow execution summary",
		"volumes_processed", len(summary.Volumes),
		"created", summary.Created,
		"skipped", summary.Skipped,
		"errored", summary.Errored)

	return summary, nil
}

// processVolume evaluates every class of a volume. It reports false for
// volumes that are not managed.
func (s *Scheduler) processVolume(ctx context.Context, vol cloud.Volume, logger *slog.Logger) (VolumeResult, bool) {
	vp, _ := s.Codec.DecodeVolume(vol.Tags)
	if !vp.Managed {
		logger.Debug("Volume is not managed. Skipping")
		return VolumeResult{}, false
	}

	vr := VolumeResult{VolumeID: vol.ID, VolumeName: vol.Name}
	for _, f := range policy.Frequencies() {
		policyLogger := logger.With("policy_type", f)

		if err, invalid := vp.Invalid[f]; invalid {
			policyLogger.Error("Policy configuration invalid", "error", err)
			vr.Classes = append(vr.Classes, s.record(ClassResult{Frequency: f, Action: ActionErrored, Err: err}))
			continue
		}

		p, ok := vp.Get(f)
		if !ok {
			policyLogger.Debug("Policy is disabled. Skip further validation for this policy")
			continue
		}

		vr.Classes = append(vr.Classes, s.record(s.processClass(ctx, vol, p, policyLogger)))
	}

	return vr, true
}

func (s *Scheduler) record(r ClassResult) ClassResult {
	s.Metrics.SnapshotDecision(string(r.Frequency), string(r.Action))
	return r
}

func (s *Scheduler) processClass(ctx context.Context, vol cloud.Volume, p policy.SnapshotPolicy, logger *slog.Logger) ClassResult {
	f := p.Frequency()
	result := ClassResult{Frequency: f}

	decision, err := p.Evaluate(s.clock().Now())
	if err != nil {
		logger.Error("Policy evaluation failed", "error", err)
		result.Action, result.Err = ActionErrored, err
		return result
	}

	windowEnd := policy.WindowEnd(f, decision.ScheduledTimeUTC)
	if !decision.IsDue {
		logger.Info("Snapshot creation skipped",
			"reason", decision.Reason,
			"window_start", decision.ScheduledTimeUTC,
		)
		result.Action, result.Reason = ActionSkipped, decision.Reason
		return result
	}

	existing, err := s.Provider.ListManagedSnapshots(ctx, cloud.SnapshotFilter{
		VolumeID: vol.ID,
		Status:   cloud.SnapshotStatusAvailable,
		Tags: map[string]string{
			s.Codec.ManagedKey(): "true",
			s.Codec.SnapshotKey(policy.SnapshotFieldFrequencyType): string(f),
		},
	})
	if err != nil {
		logger.Error("Snapshot history retrieval failed", "error", err)
		result.Action, result.Err = ActionErrored, fmt.Errorf("listing %s snapshots of volume %s: %w", f, vol.ID, err)
		return result
	}

	if snap, found := policy.ExistsInWindow(toExistingSnapshots(existing), f, decision); found {
		result.Action = ActionSkipped
		result.SnapshotID = snap.ID
		result.Reason = fmt.Sprintf("Snapshot %s already exists in window %s to %s.",
			snap.ID, decision.ScheduledTimeUTC.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
		logger.Info("Snapshot creation skipped",
			"reason", result.Reason,
			"window_start", decision.ScheduledTimeUTC,
			"window_end", windowEnd,
		)
		return result
	}

	logger.Info("Snapshot window active; initiating creation",
		"window_start", decision.ScheduledTimeUTC,
		"window_end", windowEnd,
		"reason", decision.Reason)

	return s.createSnapshot(ctx, vol, p, decision, logger)
}

func (s *Scheduler) createSnapshot(ctx context.Context, vol cloud.Volume, p policy.SnapshotPolicy, decision policy.ScheduleDecision, logger *slog.Logger) ClassResult {
	f := p.Frequency()
	result := ClassResult{Frequency: f, Action: ActionErrored}

	record, err := policy.NewRetentionRecord(f, p.Base().RetentionDays, decision)
	if err != nil {
		logger.Error("Retention computation failed", "error", err)
		result.Err = err
		return result
	}

	name := SnapshotName(f, vol.ID, decision.ScheduledTimeLocal)
	logger.Debug("Sending create request to cloud", "snapshot_name", name)

	snap, err := s.Provider.CreateSnapshot(ctx, vol.ID, name)
	if err != nil {
		logger.Error("Snapshot resource creation failed", "error", err, "snapshot_id", snap.ID)
		if snap.ID == "" {
			result.Err = err
			return result
		}
		return s.cleanup(ctx, vol, f, decision, snap.ID, err, logger)
	}

	if err := s.Provider.SetSnapshotTags(ctx, snap.ID, s.Codec.EncodeRetention(record)); err != nil {
		logger.Error("Snapshot retention tagging failed", "error", err, "snapshot_id", snap.ID)
		return s.cleanup(ctx, vol, f, decision, snap.ID, fmt.Errorf("%w: %w", ErrSnapshotTagging, err), logger)
	}

	logger.Info("Snapshot resource successfully created",
		"snapshot_id", snap.ID,
		"expires_at", record.ExpiryTimeUTC,
	)
	result.Action = ActionCreated
	result.SnapshotID = snap.ID
	return result
}

// cleanup deletes a snapshot left behind by a failed creation or tagging step.
func (s *Scheduler) cleanup(ctx context.Context, vol cloud.Volume, f policy.Frequency, decision policy.ScheduleDecision, snapshotID string, cause error, logger *slog.Logger) ClassResult {
	result := ClassResult{Frequency: f, Action: ActionErrored, SnapshotID: snapshotID, Err: cause}

	logger.Debug("Orphaned resource detected; initiating cleanup", "snapshot_id", snapshotID)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	cleanupErr := s.Provider.DeleteSnapshot(cleanupCtx, snapshotID)
	if cleanupErr == nil {
		logger.Info("Orphaned snapshot successfully cleaned up", "snapshot_id", snapshotID)
		return result
	}

	orphan := &OrphanedSnapshotError{
		SnapshotID: snapshotID,
		VolumeID:   vol.ID,
		Frequency:  f,
		Cause:      cause,
		CleanupErr: cleanupErr,
	}
	result.Err = orphan

	logger.Error("Orphaned snapshot cleanup failed; manual intervention required",
		"error", cleanupErr,
		"snapshot_id", snapshotID,
	)

	if s.Notifier == nil {
		return result
	}

	alert := notifications.SnapshotCreationFailure{
		Service:      "snapsentry",
		Organization: s.Codec.Organization(),
		RunID:        s.runID(),
		VolumeID:     vol.ID,
		VolumeName:   vol.Name,
		SnapshotID:   snapshotID,
		Frequency:    string(f),
		Message:      "Snapshot was created but could not be tagged nor deleted; manual intervention required",
		Errors:       []string{cause.Error(), cleanupErr.Error()},
		Window: notifications.SnapshotWindow{
			ScheduledTimeUTC:   decision.ScheduledTimeUTC,
			ScheduledTimeLocal: decision.ScheduledTimeLocal.Format(time.RFC3339),
			WindowEnd:          policy.WindowEnd(f, decision.ScheduledTimeUTC),
		},
	}
	if err := s.Notifier.Notify(cleanupCtx, alert); err != nil {
		logger.Error("Orphaned snapshot notification failed", "error", err, "snapshot_id", snapshotID)
		result.Err = errors.Join(orphan, err)
	}

	return result
}
