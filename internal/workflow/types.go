package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
)

// Action is the outcome of one (volume, class) pair in a creation pass.
type Action string

const (
	ActionCreated Action = "created"
	ActionSkipped Action = "skipped"
	ActionErrored Action = "errored"
)

// ClassResult is the outcome of evaluating one policy class of a volume.
type ClassResult struct {
	Frequency  policy.Frequency
	Action     Action
	Reason     string
	SnapshotID string
	Err        error
}

// VolumeResult groups the class outcomes of one managed volume.
type VolumeResult struct {
	VolumeID   string
	VolumeName string
	Classes    []ClassResult
}

// PassSummary is the result of a snapshot creation pass.
type PassSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Volumes    []VolumeResult

	Created int
	Skipped int
	Errored int
}

func (s *PassSummary) add(vr VolumeResult) {
	s.Volumes = append(s.Volumes, vr)
	for _, c := range vr.Classes {
		switch c.Action {
		case ActionCreated:
			s.Created++
		case ActionSkipped:
			s.Skipped++
		case ActionErrored:
			s.Errored++
		}
	}
}

// ExpiryOutcome is the result of evaluating one managed snapshot for expiry.
type ExpiryOutcome string

const (
	ExpiryDeleted  ExpiryOutcome = "deleted"
	ExpiryRetained ExpiryOutcome = "retained"
	ExpiryErrored  ExpiryOutcome = "errored"
)

// SnapshotResult is the outcome for one snapshot of an expiry pass.
type SnapshotResult struct {
	SnapshotID string
	VolumeID   string
	Outcome    ExpiryOutcome
	ExpiresAt  time.Time
	Err        error
}

// ExpirySummary is the result of an expiry pass.
type ExpirySummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Snapshots  []SnapshotResult

	Deleted  int
	Retained int
	Errored  int
}

func (s *ExpirySummary) add(r SnapshotResult) {
	s.Snapshots = append(s.Snapshots, r)
	switch r.Outcome {
	case ExpiryDeleted:
		s.Deleted++
	case ExpiryRetained:
		s.Retained++
	case ExpiryErrored:
		s.Errored++
	}
}

// ErrSnapshotTagging is wrapped by failures to write retention tags onto a
// freshly created snapshot.
var ErrSnapshotTagging = errors.New("snapshot tagging failed")

// OrphanedSnapshotError reports a snapshot that exists in the cloud but has no
// retention tags, because both the operation that required them and the
// compensating delete failed. The expiry workflow will never remove it.
type OrphanedSnapshotError struct {
	SnapshotID string
	VolumeID   string
	Frequency  policy.Frequency
	// Cause is the failure that triggered the cleanup.
	Cause error
	// CleanupErr is the failure of the compensating delete.
	CleanupErr error
}

func (e *OrphanedSnapshotError) Error() string {
	return fmt.Sprintf("orphaned %s snapshot %s of volume %s: %v; cleanup failed: %v",
		e.Frequency, e.SnapshotID, e.VolumeID, e.Cause, e.CleanupErr)
}

func (e *OrphanedSnapshotError) Unwrap() []error {
	return []error{e.Cause, e.CleanupErr}
}
