package cloud

import "time"

// RetryConfig defines the parameters for the exponential backoff applied to
// transient cloud API errors. Both bounds apply: whichever of MaxRetries or
// OperationTimeout is reached first ends the operation.
type RetryConfig struct {
	// MaxRetries is the maximum number of additional attempts after the initial failure.
	// For example, if MaxRetries is 3, the operation runs at most 4 times (1 initial + 3 retries).
	MaxRetries int

	// BaseDelay is the initial wait time before the first retry.
	// It doubles with each attempt, with up to 50% jitter added.
	BaseDelay time.Duration

	// OperationTimeout is the total time limit for the entire operation, including all retries.
	// Zero disables the limit.
	OperationTimeout time.Duration
}

// DefaultRetryConfig returns the retry settings used when none are configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:       3,
		BaseDelay:        2 * time.Second,
		OperationTimeout: 10 * time.Minute,
	}
}

// Volume is the provider-neutral view of a block storage volume.
type Volume struct {
	ID     string
	Name   string
	Status string
	Tags   map[string]string
}

// Snapshot is the provider-neutral view of a volume snapshot.
type Snapshot struct {
	ID        string
	Name      string
	VolumeID  string
	Status    string
	CreatedAt time.Time
	Tags      map[string]string
}

// SnapshotFilter narrows a snapshot listing. Empty fields match everything; Tags
// match only when every pair is present with the exact value.
type SnapshotFilter struct {
	VolumeID string
	Status   string
	Tags     map[string]string
}

// Matches reports whether s satisfies the filter.
func (f SnapshotFilter) Matches(s Snapshot) bool {
	if f.VolumeID != "" && s.VolumeID != f.VolumeID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	for k, v := range f.Tags {
		if got, ok := s.Tags[k]; !ok || got != v {
			return false
		}
	}
	return true
}
