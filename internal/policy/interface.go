package policy

import (
	"time"
)

// SnapshotPolicy defines the contract that all scheduling strategies (Daily, Weekly, Monthly) implement.
// It decouples the scheduling logic from the specific storage mechanism.
//
// Implementations are plain data: they are decoded fresh from volume metadata on every
// run and never cached.
type SnapshotPolicy interface {
	// Normalize fills empty string fields with their defaults, canonicalises the
	// start time and day names, and validates every field.
	Normalize() error

	// Evaluate determines whether a snapshot is due at 'now'. It does not look at
	// existing snapshots; duplicate prevention is the job of ExistsInWindow.
	Evaluate(now time.Time) (ScheduleDecision, error)

	// Frequency returns the recurrence class of the policy.
	Frequency() Frequency

	// Base returns the fields shared by all policy classes.
	Base() Schedule

	// IsEnabled returns if the snapshot policy is enabled or not.
	IsEnabled() bool
}
