package policy

import (
	"fmt"
	"time"
)

// SnapshotPolicyMonthly triggers a snapshot on StartDate of every month at StartTime
// in TimeZone.
//
// Behavior:
//   - Date gate: StartDate is clamped to the last day of the current month, so a
//     policy for the 31st runs on Feb 28 (or 29), Apr 30 and so on.
//   - Window: the deduplication window spans one calendar month from the scheduled
//     instant, clamped the same way.
type SnapshotPolicyMonthly struct {
	Schedule  `tag:",squash"`
	StartDate int `tag:"start-date" validate:"min=1,max=31"`
}

// DefaultMonthlyPolicy returns an enabled monthly policy with every default applied.
func DefaultMonthlyPolicy() *SnapshotPolicyMonthly {
	s := defaultSchedule(DefaultRetentionDaysMonthly)
	s.Enabled = true
	return &SnapshotPolicyMonthly{Schedule: s, StartDate: DefaultStartDate}
}

func (s *SnapshotPolicyMonthly) Frequency() Frequency { return FrequencyMonthly }

func (s *SnapshotPolicyMonthly) Base() Schedule { return s.Schedule }

func (s *SnapshotPolicyMonthly) IsEnabled() bool { return s.Enabled }

// Normalize fills empty fields with defaults, canonicalises the start time and
// validates the result. A zero StartDate is rejected rather than defaulted.
func (s *SnapshotPolicyMonthly) Normalize() error {
	if err := s.Schedule.normalize(); err != nil {
		return fmt.Errorf("%s policy: %w", FrequencyMonthly, err)
	}
	return helperValidate(FrequencyMonthly, s)
}

// EffectiveDay returns the day of month the policy fires on in the given month.
func (s *SnapshotPolicyMonthly) EffectiveDay(year int, month time.Month) int {
	return min(s.StartDate, lastDayOfMonth(year, month))
}

// Evaluate decides whether the monthly snapshot is due at 'now'.
func (s *SnapshotPolicyMonthly) Evaluate(now time.Time) (ScheduleDecision, error) {
	if !s.Enabled {
		return helperDisabledDecision(FrequencyMonthly, now), nil
	}

	decision, err := helperNewDecision(s.Schedule, now)
	if err != nil {
		return ScheduleDecision{}, err
	}

	year, month, day := decision.ScheduledTimeLocal.Date()
	if effective := s.EffectiveDay(year, month); day != effective {
		decision.Outcome = OutcomeDateMismatch
		decision.Reason = fmt.Sprintf(
			"Snapshot date mismatch: current date '%d' does not match scheduled start date '%d' (configured %d).",
			day, effective, s.StartDate)
		return decision, nil
	}

	return helperApplyTimeGate(decision), nil
}
