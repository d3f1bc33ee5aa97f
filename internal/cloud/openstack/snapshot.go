package openstack

import (
	"context"
	"fmt"
	"maps"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/snapshots"
	"k8s.io/apimachinery/pkg/util/wait"
)

const snapshotDescription = "Created and managed by Snapsentry"

func toSnapshot(s snapshots.Snapshot) cloud.Snapshot {
	return cloud.Snapshot{
		ID:        s.ID,
		Name:      s.Name,
		VolumeID:  s.VolumeID,
		Status:    s.Status,
		CreatedAt: s.CreatedAt.UTC(),
		Tags:      maps.Clone(s.Metadata),
	}
}

// ListManagedSnapshots lists snapshots matching filter. Volume and status are
// filtered server-side; tags are matched client-side because the snapshot API
// has no metadata filter.
func (c *Client) ListManagedSnapshots(ctx context.Context, filter cloud.SnapshotFilter) ([]cloud.Snapshot, error) {
	var result []cloud.Snapshot

	err := c.executeWithRetry(ctx, "ListSnapshots", func(ctx context.Context) error {
		opts := snapshots.ListOpts{
			VolumeID: filter.VolumeID,
			Status:   filter.Status,
		}
		pages, err := snapshots.List(c.BlockStorageClient, opts).AllPages(ctx)
		if err != nil {
			return err
		}
		snaps, err := snapshots.ExtractSnapshots(pages)
		if err != nil {
			return err
		}

		result = result[:0]
		for _, s := range snaps {
			if snap := toSnapshot(s); filter.Matches(snap) {
				result = append(result, snap)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSnapshot triggers the creation of a new snapshot and waits for it to become available.
//
// Behavior:
//   - Force Creation: Uses the `Force: true` flag, allowing snapshots to be taken even if the
//     volume is currently attached ("in-use") by an instance.
//   - Single Request: Only the create request itself is retried, and only until the API
//     returns a snapshot ID. Waiting never re-sends the create request.
//   - Synchronous Wait: Blocks until the snapshot reaches "available", enters "error", or
//     the operation timeout expires. In the latter two cases the snapshot is returned with
//     its ID so the caller can clean it up.
func (c *Client) CreateSnapshot(ctx context.Context, volumeID, name string) (cloud.Snapshot, error) {
	var created *snapshots.Snapshot

	err := c.executeWithRetry(ctx, "CreateVolumeSnapshot", func(ctx context.Context) error {
		result := snapshots.Create(ctx, c.BlockStorageClient, snapshots.CreateOpts{
			VolumeID:    volumeID,
			Force:       true, // Allows snapshotting 'in-use' volumes
			Name:        name,
			Description: snapshotDescription,
		})
		snap, err := result.Extract()
		if err != nil {
			return err
		}

		created = snap
		c.logger().Debug("Snapshot creation accepted",
			"volume_id", volumeID, "snapshot_id", snap.ID, "request_id", requestID(result.Header))
		return nil
	})
	if err != nil {
		return cloud.Snapshot{}, err
	}

	snap := toSnapshot(*created)
	if err := c.waitForSnapshotStatus(ctx, snap.ID, cloud.SnapshotStatusAvailable); err != nil {
		return snap, fmt.Errorf("failed waiting for snapshot %s to become available: %w", snap.ID, err)
	}
	snap.Status = cloud.SnapshotStatusAvailable
	return snap, nil
}

// waitForSnapshotStatus polls the snapshot until it reaches status. An "error"
// status ends the wait immediately.
func (c *Client) waitForSnapshotStatus(ctx context.Context, snapshotID, status string) error {
	timeout := c.RetryConfig.OperationTimeout
	if timeout <= 0 {
		timeout = cloud.DefaultRetryConfig().OperationTimeout
	}

	return wait.PollUntilContextTimeout(ctx, c.pollInterval(), timeout, true, func(ctx context.Context) (bool, error) {
		current, err := snapshots.Get(ctx, c.BlockStorageClient, snapshotID).Extract()
		if err != nil {
			// Transient read errors keep polling until the timeout.
			if isRetryable(err) {
				return false, nil
			}
			return false, err
		}

		switch current.Status {
		case status:
			return true, nil
		case cloud.SnapshotStatusError:
			return false, fmt.Errorf("snapshot %s entered '%s' state", snapshotID, current.Status)
		default:
			return false, nil
		}
	})
}

// SetSnapshotTags merges tags into the snapshot's metadata using the same
// read-modify-write strategy as UpdateVolumeTags.
func (c *Client) SetSnapshotTags(ctx context.Context, snapshotID string, tags map[string]string) error {
	return c.executeWithRetry(ctx, "SetSnapshotTags", func(ctx context.Context) error {
		current, err := snapshots.Get(ctx, c.BlockStorageClient, snapshotID).Extract()
		if err != nil {
			return err
		}

		merged := make(map[string]any, len(current.Metadata)+len(tags))
		for k, v := range current.Metadata {
			merged[k] = v
		}
		for k, v := range tags {
			merged[k] = v
		}

		result := snapshots.UpdateMetadata(ctx, c.BlockStorageClient, snapshotID, snapshots.UpdateMetadataOpts{
			Metadata: merged,
		})
		if _, err := result.ExtractMetadata(); err != nil {
			return err
		}

		c.logger().Debug("Snapshot tags updated",
			"snapshot_id", snapshotID, "request_id", requestID(result.Header))
		return nil
	})
}

// DeleteSnapshot removes a snapshot from the backend storage.
//
// Deletion is asynchronous: this method returns once the API accepted the request.
// A snapshot that no longer exists is treated as deleted.
func (c *Client) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	return c.executeWithRetry(ctx, "DeleteVolumeSnapshot", func(ctx context.Context) error {
		result := snapshots.Delete(ctx, c.BlockStorageClient, snapshotID)
		if result.Err != nil {
			if isNotFound(result.Err) {
				c.logger().Debug("Snapshot already deleted", "snapshot_id", snapshotID)
				return nil
			}
			return result.Err
		}

		c.logger().Debug("Snapshot deletion accepted",
			"snapshot_id", snapshotID, "request_id", requestID(result.Header))
		return nil
	})
}
