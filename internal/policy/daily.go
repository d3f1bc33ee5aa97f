package policy

import (
	"fmt"
	"time"
)

// SnapshotPolicyDaily triggers one snapshot per calendar day at StartTime in TimeZone.
//
// Behavior:
//   - Window: the deduplication window spans one calendar day from the scheduled instant.
//   - Due: once 'now' is at or after today's scheduled instant in the policy timezone.
//   - Expiry: scheduled local time + RetentionDays calendar days.
type SnapshotPolicyDaily struct {
	Schedule `tag:",squash"`
}

// DefaultDailyPolicy returns an enabled daily policy with every default applied.
func DefaultDailyPolicy() *SnapshotPolicyDaily {
	s := defaultSchedule(DefaultRetentionDaysDaily)
	s.Enabled = true
	return &SnapshotPolicyDaily{Schedule: s}
}

func (s *SnapshotPolicyDaily) Frequency() Frequency { return FrequencyDaily }

func (s *SnapshotPolicyDaily) Base() Schedule { return s.Schedule }

func (s *SnapshotPolicyDaily) IsEnabled() bool { return s.Enabled }

// Normalize fills empty fields with defaults, canonicalises the start time and
// validates the result.
func (s *SnapshotPolicyDaily) Normalize() error {
	if err := s.Schedule.normalize(); err != nil {
		return fmt.Errorf("%s policy: %w", FrequencyDaily, err)
	}
	return helperValidate(FrequencyDaily, s)
}

// Evaluate decides whether the daily snapshot is due at 'now'.
func (s *SnapshotPolicyDaily) Evaluate(now time.Time) (ScheduleDecision, error) {
	if !s.Enabled {
		return helperDisabledDecision(FrequencyDaily, now), nil
	}

	decision, err := helperNewDecision(s.Schedule, now)
	if err != nil {
		return ScheduleDecision{}, err
	}
	return helperApplyTimeGate(decision), nil
}
