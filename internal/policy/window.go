package policy

import "time"

// WindowEnd returns the inclusive upper bound of the deduplication window that
// starts at 'start' for the given frequency. An unknown frequency yields a
// zero-length window.
func WindowEnd(f Frequency, start time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return start.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return helperAddMonthsClamped(start, 1)
	default:
		return start
	}
}

// ExistsInWindow reports whether one of 'existing' was created inside the window
// of the current cycle, [decision.ScheduledTimeUTC, WindowEnd] inclusive.
//
// The slice must already be limited to managed, available snapshots of the same
// volume and frequency. The first match is returned.
func ExistsInWindow(existing []ExistingSnapshot, f Frequency, decision ScheduleDecision) (ExistingSnapshot, bool) {
	start := decision.ScheduledTimeUTC
	end := WindowEnd(f, start)

	for _, snap := range existing {
		created := snap.CreatedAt.UTC()
		if created.Before(start) || created.After(end) {
			continue
		}
		return snap, true
	}
	return ExistingSnapshot{}, false
}
