package workflow

import (
	"context"
	"fmt"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
)

// Subscribe normalizes p and writes it, together with the managed flag, onto
// the volume. Tags of other classes and foreign tags are left untouched.
//
// A policy with Enabled false is still written, which is how a class is turned
// off without losing its configuration.
func (s *Scheduler) Subscribe(ctx context.Context, volumeID string, p policy.SnapshotPolicy) error {
	logger := s.logger().With(
		"workflow", fmt.Sprintf("subscribe-%s", p.Frequency()),
		"snapsentry_id", s.runID(),
		"volume_id", volumeID,
	)

	if err := p.Normalize(); err != nil {
		logger.Error("Invalid policy configuration", "error", err)
		return err
	}

	logger.Info("Applying subscription policy to volume", "enabled", p.IsEnabled())

	if err := s.Provider.UpdateVolumeTags(ctx, volumeID, s.Codec.SubscriptionTags(p)); err != nil {
		logger.Error("Failed to update volume metadata", "error", err)
		return fmt.Errorf("subscribing volume %s to %s policy: %w", volumeID, p.Frequency(), err)
	}

	logger.Info("Subscription applied successfully")
	return nil
}
