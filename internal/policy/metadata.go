package policy

import (
	"fmt"
	"time"
)

// RetentionRecord is the retention metadata written to a snapshot at creation time.
// The expiry workflow relies on ExpiryTimeUTC alone; the other fields are kept for
// operators inspecting the snapshot.
type RetentionRecord struct {
	Managed       bool
	FrequencyType Frequency
	RetentionDays int
	RetentionType string

	// ExpiryTimeUTC and ExpiryTimeLocal are the same instant.
	ExpiryTimeUTC   time.Time
	ExpiryTimeLocal time.Time
}

// NewRetentionRecord derives the retention record of a snapshot taken for
// 'decision'. Retention days are calendar days in the policy timezone, so a
// snapshot scheduled at 02:00 local expires at 02:00 local regardless of DST.
func NewRetentionRecord(f Frequency, retentionDays int, decision ScheduleDecision) (RetentionRecord, error) {
	if !f.Valid() {
		return RetentionRecord{}, fmt.Errorf("%w: unknown frequency '%s'", ErrInvalidRetention, f)
	}
	if retentionDays < 1 {
		return RetentionRecord{}, fmt.Errorf("%w: retention days must be positive, got %d", ErrInvalidRetention, retentionDays)
	}
	if decision.ScheduledTimeLocal.IsZero() {
		return RetentionRecord{}, fmt.Errorf("%w: schedule decision has no scheduled time", ErrInvalidRetention)
	}

	local := decision.ScheduledTimeLocal.AddDate(0, 0, retentionDays)
	return RetentionRecord{
		Managed:         true,
		FrequencyType:   f,
		RetentionDays:   retentionDays,
		RetentionType:   RetentionTypeTime,
		ExpiryTimeUTC:   local.UTC(),
		ExpiryTimeLocal: local,
	}, nil
}

// IsExpired reports whether the snapshot is eligible for deletion at 'now'.
// The boundary instant counts as expired.
func (r RetentionRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiryTimeUTC)
}
