package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/notifications"
	"github.com/jonboulle/clockwork"
)

var errInjected = errors.New("injected failure")

// fakeProvider is an in-memory cloud.Provider. Created snapshots take their
// creation time from the shared clock.
type fakeProvider struct {
	mu    sync.Mutex
	clock clockwork.Clock

	volumes   []cloud.Volume
	snapshots map[string]cloud.Snapshot
	seq       int

	// listDelay advances a fake clock on every listing call.
	listDelay time.Duration

	listVolumesErr   error
	listSnapshotsErr error
	createErr        error
	createLeavesID   bool
	tagErr           error
	deleteErr        error

	created []string
	deleted []string
}

var _ cloud.Provider = (*fakeProvider)(nil)

func newFakeProvider(clock clockwork.Clock, volumes ...cloud.Volume) *fakeProvider {
	return &fakeProvider{clock: clock, volumes: volumes, snapshots: make(map[string]cloud.Snapshot)}
}

func (f *fakeProvider) ListVolumes(ctx context.Context) ([]cloud.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapse()
	if f.listVolumesErr != nil {
		return nil, f.listVolumesErr
	}
	out := make([]cloud.Volume, len(f.volumes))
	copy(out, f.volumes)
	return out, nil
}

func (f *fakeProvider) ListManagedSnapshots(ctx context.Context, filter cloud.SnapshotFilter) ([]cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapse()
	if f.listSnapshotsErr != nil {
		return nil, f.listSnapshotsErr
	}
	var out []cloud.Snapshot
	for _, s := range f.snapshots {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeProvider) CreateSnapshot(ctx context.Context, volumeID, name string) (cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil && !f.createLeavesID {
		return cloud.Snapshot{}, f.createErr
	}

	f.seq++
	snap := cloud.Snapshot{
		ID:        fmt.Sprintf("snap-%d", f.seq),
		Name:      name,
		VolumeID:  volumeID,
		Status:    cloud.SnapshotStatusAvailable,
		CreatedAt: f.clock.Now().UTC(),
		Tags:      map[string]string{},
	}
	f.snapshots[snap.ID] = snap
	f.created = append(f.created, snap.ID)

	if f.createErr != nil {
		snap.Status = cloud.SnapshotStatusError
		f.snapshots[snap.ID] = snap
		return snap, f.createErr
	}
	return snap, nil
}

func (f *fakeProvider) SetSnapshotTags(ctx context.Context, snapshotID string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagErr != nil {
		return f.tagErr
	}
	snap, ok := f.snapshots[snapshotID]
	if !ok {
		return fmt.Errorf("snapshot %s not found", snapshotID)
	}
	maps.Copy(snap.Tags, tags)
	f.snapshots[snapshotID] = snap
	return nil
}

func (f *fakeProvider) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.snapshots, snapshotID)
	f.deleted = append(f.deleted, snapshotID)
	return nil
}

func (f *fakeProvider) UpdateVolumeTags(ctx context.Context, volumeID string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.volumes {
		if v.ID != volumeID {
			continue
		}
		if v.Tags == nil {
			v.Tags = map[string]string{}
		}
		maps.Copy(v.Tags, tags)
		f.volumes[i] = v
		return nil
	}
	return fmt.Errorf("volume %s not found", volumeID)
}

func (f *fakeProvider) elapse() {
	if fc, ok := f.clock.(*clockwork.FakeClock); ok && f.listDelay > 0 {
		fc.Advance(f.listDelay)
	}
}

// addSnapshot stores a pre-existing snapshot.
func (f *fakeProvider) addSnapshot(s cloud.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[s.ID] = s
}

func (f *fakeProvider) snapshot(id string) (cloud.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snapshots[id]
	return s, ok
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []notifications.SnapshotCreationFailure
}

func (n *fakeNotifier) Notify(ctx context.Context, notification notifications.SnapshotCreationFailure) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}
