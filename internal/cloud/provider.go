// Package cloud defines the storage operations the snapshot workflows depend on,
// independent of any particular cloud SDK.
package cloud

import "context"

// Snapshot status values shared by providers.
const (
	SnapshotStatusAvailable = "available"
	SnapshotStatusError     = "error"
)

// Provider is the block storage backend used by the workflows. Implementations
// must be safe to call sequentially from a single pass; no concurrent use is
// required.
type Provider interface {
	// ListVolumes returns every volume visible to the credentials.
	ListVolumes(ctx context.Context) ([]Volume, error)

	// ListManagedSnapshots returns the snapshots matching filter.
	ListManagedSnapshots(ctx context.Context, filter SnapshotFilter) ([]Snapshot, error)

	// CreateSnapshot creates a snapshot of volumeID and waits for it to become
	// available. When the backend accepted the request but the snapshot did not
	// become available, the returned Snapshot carries the ID alongside the error.
	CreateSnapshot(ctx context.Context, volumeID, name string) (Snapshot, error)

	// SetSnapshotTags merges tags into the snapshot's existing tags.
	SetSnapshotTags(ctx context.Context, snapshotID string, tags map[string]string) error

	DeleteSnapshot(ctx context.Context, snapshotID string) error

	// UpdateVolumeTags merges tags into the volume's existing tags.
	UpdateVolumeTags(ctx context.Context, volumeID string, tags map[string]string) error
}
