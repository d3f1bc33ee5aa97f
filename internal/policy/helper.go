package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/validation"
)

// Schedule holds the fields shared by every policy class.
//
// The `tag` struct tags name the metadata field suffix (the part after
// "x-<organization>-<class>-"). Enabled is handled by the codec directly because a
// malformed boolean must read as "disabled" instead of failing decoding.
type Schedule struct {
	Enabled       bool   `tag:"-"`
	StartTime     string `tag:"start-time" validate:"datetime=15:04"`
	TimeZone      string `tag:"timezone" validate:"timezone"`
	RetentionType string `tag:"retention-type" validate:"oneof=time"`
	RetentionDays int    `tag:"retention-days" validate:"min=1,max=3650"`
}

func defaultSchedule(retentionDays int) Schedule {
	return Schedule{
		StartTime:     DefaultStartTime,
		TimeZone:      DefaultTimeZone,
		RetentionType: RetentionTypeTime,
		RetentionDays: retentionDays,
	}
}

// normalize fills empty string fields and canonicalises the start time. Numeric
// fields are left alone so that out-of-range values surface during validation.
func (s *Schedule) normalize() error {
	if s.TimeZone == "" {
		s.TimeZone = DefaultTimeZone
	}
	if s.StartTime == "" {
		s.StartTime = DefaultStartTime
	}
	if s.RetentionType == "" {
		s.RetentionType = RetentionTypeTime
	}

	start, err := helperNormalizeStartTime(s.StartTime)
	if err != nil {
		return err
	}
	s.StartTime = start.Format("15:04")
	return nil
}

// helperValidate runs the shared validation routine and tags failures with the
// policy class.
func helperValidate(f Frequency, p any) error {
	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("%s policy: %w: %w", f, ErrInvalidPolicy, err)
	}
	return nil
}

// helperNormalizeStartTime parses a time string in "HH:MM" or "HH:MM:SS" format.
// Seconds are accepted on input but dropped, schedules have minute resolution.
func helperNormalizeStartTime(startTime string) (time.Time, error) {
	startTime = strings.TrimSpace(startTime)

	if t, err := time.Parse("15:04", startTime); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.TimeOnly, startTime); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: invalid start time '%s'; must be HH:MM or HH:MM:SS", ErrInvalidPolicy, startTime)
}

// helperLoadLocation loads the policy timezone. "Local" is rejected because it
// would make the schedule depend on the host running the pass.
func helperLoadLocation(timezone string) (*time.Location, error) {
	if strings.EqualFold(timezone, "local") {
		return nil, fmt.Errorf("%w: timezone 'Local' is not allowed", ErrInvalidPolicy)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone '%s': %w", ErrInvalidPolicy, timezone, err)
	}
	return loc, nil
}

// helperNormalizeDay converts various string representations of a weekday into a time.Weekday.
// It supports full names ("Monday"), short names ("Mon"), and numeric strings ("1").
func helperNormalizeDay(dayStr string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(dayStr)) {
	case "sunday", "sun", "0":
		return time.Sunday, nil
	case "monday", "mon", "1":
		return time.Monday, nil
	case "tuesday", "tue", "2":
		return time.Tuesday, nil
	case "wednesday", "wed", "3":
		return time.Wednesday, nil
	case "thursday", "thu", "4":
		return time.Thursday, nil
	case "friday", "fri", "5":
		return time.Friday, nil
	case "saturday", "sat", "6":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("%w: invalid day '%s'", ErrInvalidPolicy, dayStr)
	}
}

func dayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month normalises to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// helperAddMonthsClamped adds n calendar months to t, clamping the day to the
// last day of the target month. Jan 31 + 1 month is Feb 28 (or 29), not Mar 3.
func helperAddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// ComputeWindow returns the scheduled instant for the calendar day of 'now' in the
// policy timezone, both in UTC and in the policy timezone.
//
// A start time that falls in a spring-forward gap is shifted forward past the gap
// (02:30 becomes 03:30). A start time that occurs twice in a fall-back overlap
// resolves to the earlier occurrence.
func ComputeWindow(s Schedule, now time.Time) (utc time.Time, local time.Time, err error) {
	loc, err := helperLoadLocation(s.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := helperNormalizeStartTime(s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	year, month, day := now.In(loc).Date()
	local = helperResolveWallTime(year, month, day, start.Hour(), start.Minute(), loc)
	return local.UTC(), local, nil
}

// helperResolveWallTime maps a local wall time to an instant in loc.
//
// time.Date leaves the choice unspecified for wall times that are skipped or
// repeated by a transition, so both offsets around the day are tried explicitly.
func helperResolveWallTime(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	wall := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	_, before := wall.Add(-24 * time.Hour).In(loc).Zone()
	_, after := wall.Add(24 * time.Hour).In(loc).Zone()

	var resolved time.Time
	for _, offset := range []int{before, after} {
		candidate := wall.Add(-time.Duration(offset) * time.Second).In(loc)
		y, m, d := candidate.Date()
		if y != year || m != month || d != day || candidate.Hour() != hour || candidate.Minute() != minute {
			continue
		}
		if resolved.IsZero() || candidate.Before(resolved) {
			resolved = candidate
		}
	}
	if resolved.IsZero() {
		// Nonexistent wall time: read it with the offset in effect before the gap.
		resolved = wall.Add(-time.Duration(before) * time.Second).In(loc)
	}
	return resolved
}

// helperNewDecision computes the window for 'now' and returns a not-yet-due
// decision with all timestamps populated.
func helperNewDecision(s Schedule, now time.Time) (ScheduleDecision, error) {
	utc, local, err := ComputeWindow(s, now)
	if err != nil {
		return ScheduleDecision{}, err
	}
	return ScheduleDecision{
		ScheduledTimeUTC:   utc,
		ScheduledTimeLocal: local,
		EvaluatedAt:        now.UTC(),
	}, nil
}

// helperApplyTimeGate sets the time-of-day verdict on d. The lower bound is
// inclusive: evaluating exactly at the scheduled instant is due.
func helperApplyTimeGate(d ScheduleDecision) ScheduleDecision {
	if d.EvaluatedAt.Before(d.ScheduledTimeUTC) {
		d.IsDue = false
		d.Outcome = OutcomeBeforeStartTime
		d.Reason = fmt.Sprintf(
			"Snapshot window mismatch: current time '%s' is before scheduled time '%s' (%s). Skipping snapshot operation.",
			d.EvaluatedAt.Format(time.RFC3339),
			d.ScheduledTimeUTC.Format(time.RFC3339),
			d.ScheduledTimeLocal.Format(time.RFC3339))
		return d
	}

	d.IsDue = true
	d.Outcome = OutcomeDue
	d.Reason = fmt.Sprintf(
		"Snapshot window matched: current time '%s' is at or after scheduled time '%s' (%s). Proceeding with snapshot operation.",
		d.EvaluatedAt.Format(time.RFC3339),
		d.ScheduledTimeUTC.Format(time.RFC3339),
		d.ScheduledTimeLocal.Format(time.RFC3339))
	return d
}

func helperDisabledDecision(f Frequency, now time.Time) ScheduleDecision {
	return ScheduleDecision{
		Outcome:     OutcomeDisabled,
		EvaluatedAt: now.UTC(),
		Reason:      fmt.Sprintf("%s snapshot policy is disabled", f),
	}
}
