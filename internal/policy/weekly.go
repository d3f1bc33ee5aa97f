package policy

import (
	"fmt"
	"time"
)

// SnapshotPolicyWeekly triggers a snapshot on StartDay at StartTime in TimeZone.
//
// Behavior:
//   - Day gate: the weekday is taken from 'now' in the policy timezone. On any other
//     day the decision is a day mismatch, with the window still reported.
//   - Window: the deduplication window spans seven calendar days from the scheduled instant.
//
// StartDay accepts aliases on input ("Mon", "mon", "1") and is stored as the
// lowercase English name.
type SnapshotPolicyWeekly struct {
	Schedule `tag:",squash"`
	StartDay string `tag:"start-day" validate:"oneof=sunday monday tuesday wednesday thursday friday saturday"`
}

// DefaultWeeklyPolicy returns an enabled weekly policy with every default applied.
func DefaultWeeklyPolicy() *SnapshotPolicyWeekly {
	s := defaultSchedule(DefaultRetentionDaysWeekly)
	s.Enabled = true
	return &SnapshotPolicyWeekly{Schedule: s, StartDay: DefaultStartDay}
}

func (s *SnapshotPolicyWeekly) Frequency() Frequency { return FrequencyWeekly }

func (s *SnapshotPolicyWeekly) Base() Schedule { return s.Schedule }

func (s *SnapshotPolicyWeekly) IsEnabled() bool { return s.Enabled }

// Normalize fills empty fields with defaults, canonicalises the start time and
// start day, then validates the result.
func (s *SnapshotPolicyWeekly) Normalize() error {
	if err := s.Schedule.normalize(); err != nil {
		return fmt.Errorf("%s policy: %w", FrequencyWeekly, err)
	}

	if s.StartDay == "" {
		s.StartDay = DefaultStartDay
	}
	day, err := helperNormalizeDay(s.StartDay)
	if err != nil {
		return fmt.Errorf("%s policy: %w", FrequencyWeekly, err)
	}
	s.StartDay = dayName(day)

	return helperValidate(FrequencyWeekly, s)
}

// Evaluate decides whether the weekly snapshot is due at 'now'.
func (s *SnapshotPolicyWeekly) Evaluate(now time.Time) (ScheduleDecision, error) {
	if !s.Enabled {
		return helperDisabledDecision(FrequencyWeekly, now), nil
	}

	target, err := helperNormalizeDay(s.StartDay)
	if err != nil {
		return ScheduleDecision{}, err
	}

	decision, err := helperNewDecision(s.Schedule, now)
	if err != nil {
		return ScheduleDecision{}, err
	}

	if current := decision.ScheduledTimeLocal.Weekday(); current != target {
		decision.Outcome = OutcomeDayMismatch
		decision.Reason = fmt.Sprintf(
			"Snapshot day mismatch: current day '%s' does not match scheduled start day '%s'.",
			dayName(current), dayName(target))
		return decision, nil
	}

	return helperApplyTimeGate(decision), nil
}
