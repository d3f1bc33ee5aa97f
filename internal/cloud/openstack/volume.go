package openstack

import (
	"context"
	"maps"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/volumes"
)

func toVolume(v volumes.Volume) cloud.Volume {
	return cloud.Volume{
		ID:     v.ID,
		Name:   v.Name,
		Status: v.Status,
		Tags:   maps.Clone(v.Metadata),
	}
}

// ListVolumes returns every volume of the project, following pagination links.
func (c *Client) ListVolumes(ctx context.Context) ([]cloud.Volume, error) {
	var result []cloud.Volume

	err := c.executeWithRetry(ctx, "ListVolumes", func(ctx context.Context) error {
		pages, err := volumes.List(c.BlockStorageClient, volumes.ListOpts{}).AllPages(ctx)
		if err != nil {
			return err
		}
		vols, err := volumes.ExtractVolumes(pages)
		if err != nil {
			return err
		}

		result = make([]cloud.Volume, 0, len(vols))
		for _, v := range vols {
			result = append(result, toVolume(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateVolumeTags merges tags into the volume's metadata.
//
// This method implements a "Read-Modify-Write" strategy:
//  1. GET: Fetches the current volume to retrieve existing metadata.
//  2. MERGE: Incoming keys overwrite existing keys, unrelated keys are preserved.
//  3. UPDATE: Pushes the merged map back to OpenStack.
//
// The read and the write are retried together so a retry never writes a stale merge.
func (c *Client) UpdateVolumeTags(ctx context.Context, volumeID string, tags map[string]string) error {
	return c.executeWithRetry(ctx, "UpdateVolumeTags", func(ctx context.Context) error {
		vol, err := volumes.Get(ctx, c.BlockStorageClient, volumeID).Extract()
		if err != nil {
			return err
		}

		merged := make(map[string]string, len(vol.Metadata)+len(tags))
		maps.Copy(merged, vol.Metadata)
		maps.Copy(merged, tags)

		result := volumes.Update(ctx, c.BlockStorageClient, volumeID, volumes.UpdateOpts{
			Metadata: merged,
		})
		if _, err := result.Extract(); err != nil {
			return err
		}

		c.logger().Debug("Volume tags updated",
			"volume_id", volumeID, "request_id", requestID(result.Header))
		return nil
	})
}
