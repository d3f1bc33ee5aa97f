package policy

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return ts
}

func TestSnapshotPolicyDaily_Normalize(t *testing.T) {
	tests := []struct {
		name          string
		input         SnapshotPolicyDaily
		wantErr       bool
		wantStart     string
		wantZone      string
		wantRetention int
	}{
		{
			name: "Happy Path",
			input: SnapshotPolicyDaily{Schedule: Schedule{
				Enabled: true, RetentionDays: 5, TimeZone: "Europe/Paris", StartTime: "14:30",
			}},
			wantStart:     "14:30",
			wantZone:      "Europe/Paris",
			wantRetention: 5,
		},
		{
			name: "Single Digit Hour Is Canonicalised",
			input: SnapshotPolicyDaily{Schedule: Schedule{
				Enabled: true, RetentionDays: 7, TimeZone: "UTC", StartTime: "9:05",
			}},
			wantStart:     "09:05",
			wantZone:      "UTC",
			wantRetention: 7,
		},
		{
			name: "Seconds Are Dropped",
			input: SnapshotPolicyDaily{Schedule: Schedule{
				Enabled: true, RetentionDays: 7, StartTime: "01:02:03",
			}},
			wantStart:     "01:02",
			wantZone:      "UTC",
			wantRetention: 7,
		},
		{
			name: "Empty Strings Take Defaults",
			input: SnapshotPolicyDaily{Schedule: Schedule{
				Enabled: true, RetentionDays: 3,
			}},
			wantStart:     DefaultStartTime,
			wantZone:      DefaultTimeZone,
			wantRetention: 3,
		},
		{
			name:    "Zero Retention Is Rejected",
			input:   SnapshotPolicyDaily{Schedule: Schedule{Enabled: true, StartTime: "10:00"}},
			wantErr: true,
		},
		{
			name:    "Retention Above Limit",
			input:   SnapshotPolicyDaily{Schedule: Schedule{RetentionDays: 3651}},
			wantErr: true,
		},
		{
			name:    "Invalid Time Format",
			input:   SnapshotPolicyDaily{Schedule: Schedule{RetentionDays: 7, StartTime: "25:00"}},
			wantErr: true,
		},
		{
			name:    "Invalid Timezone",
			input:   SnapshotPolicyDaily{Schedule: Schedule{RetentionDays: 7, TimeZone: "Mars/Phobos"}},
			wantErr: true,
		},
		{
			name:    "Unsupported Retention Type",
			input:   SnapshotPolicyDaily{Schedule: Schedule{RetentionDays: 7, RetentionType: "count"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.input
			err := p.Normalize()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPolicy) {
					t.Errorf("Normalize() error = %v, want ErrInvalidPolicy", err)
				}
				return
			}

			if p.StartTime != tt.wantStart {
				t.Errorf("StartTime = %s, want %s", p.StartTime, tt.wantStart)
			}
			if p.TimeZone != tt.wantZone {
				t.Errorf("TimeZone = %s, want %s", p.TimeZone, tt.wantZone)
			}
			if p.RetentionDays != tt.wantRetention {
				t.Errorf("RetentionDays = %d, want %d", p.RetentionDays, tt.wantRetention)
			}
			if p.RetentionType != RetentionTypeTime {
				t.Errorf("RetentionType = %s, want %s", p.RetentionType, RetentionTypeTime)
			}
		})
	}
}

func TestSnapshotPolicyDaily_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		start       string
		zone        string
		disabled    bool
		now         string
		wantDue     bool
		wantOutcome Outcome
		wantUTC     string
	}{
		{
			name:        "One Minute Before Start",
			start:       "02:00",
			zone:        "UTC",
			now:         "2025-01-01T01:59:00Z",
			wantOutcome: OutcomeBeforeStartTime,
			wantUTC:     "2025-01-01T02:00:00Z",
		},
		{
			name:        "Exactly At Start Is Due",
			start:       "02:00",
			zone:        "UTC",
			now:         "2025-01-01T02:00:00Z",
			wantDue:     true,
			wantOutcome: OutcomeDue,
			wantUTC:     "2025-01-01T02:00:00Z",
		},
		{
			name:        "Later The Same Day",
			start:       "02:00",
			zone:        "UTC",
			now:         "2025-01-01T21:15:00Z",
			wantDue:     true,
			wantOutcome: OutcomeDue,
			wantUTC:     "2025-01-01T02:00:00Z",
		},
		{
			name:        "Zone Ahead Of UTC",
			start:       "09:00",
			zone:        "Asia/Kolkata",
			now:         "2025-01-01T03:30:00Z", // 09:00 IST
			wantDue:     true,
			wantOutcome: OutcomeDue,
			wantUTC:     "2025-01-01T03:30:00Z",
		},
		{
			name:        "Today Is Taken In The Policy Zone",
			start:       "23:00",
			zone:        "America/New_York",
			now:         "2025-01-02T03:30:00Z", // Jan 1 22:30 EST
			wantOutcome: OutcomeBeforeStartTime,
			wantUTC:     "2025-01-02T04:00:00Z",
		},
		{
			name:        "Summer Offset",
			start:       "01:00",
			zone:        "Europe/Berlin",
			now:         "2025-07-01T00:00:00Z", // 02:00 CEST
			wantDue:     true,
			wantOutcome: OutcomeDue,
			wantUTC:     "2025-06-30T23:00:00Z",
		},
		{
			name:        "Winter Offset",
			start:       "01:00",
			zone:        "Europe/Berlin",
			now:         "2025-01-15T00:00:00Z", // 01:00 CET
			wantDue:     true,
			wantOutcome: OutcomeDue,
			wantUTC:     "2025-01-15T00:00:00Z",
		},
		{
			name:        "Spring Forward Gap Is Not Early",
			start:       "02:30",
			zone:        "America/New_York",
			now:         "2025-03-09T07:00:00Z", // 03:00 EDT
			wantOutcome: OutcomeBeforeStartTime,
			wantUTC:     "2025-03-09T07:30:00Z",
		},
		{
			name:        "Disabled",
			start:       "02:00",
			zone:        "UTC",
			disabled:    true,
			now:         "2025-01-01T05:00:00Z",
			wantOutcome: OutcomeDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultDailyPolicy()
			p.StartTime = tt.start
			p.TimeZone = tt.zone
			if err := p.Normalize(); err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			p.Enabled = !tt.disabled

			now := mustTime(t, tt.now)
			got, err := p.Evaluate(now)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			if got.IsDue != tt.wantDue {
				t.Errorf("IsDue = %v, want %v (reason: %s)", got.IsDue, tt.wantDue, got.Reason)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.wantOutcome)
			}
			if !got.EvaluatedAt.Equal(now) {
				t.Errorf("EvaluatedAt = %v, want %v", got.EvaluatedAt, now)
			}
			if got.Reason == "" {
				t.Error("Reason is empty")
			}
			if tt.wantUTC == "" {
				return
			}

			want := mustTime(t, tt.wantUTC)
			if !got.ScheduledTimeUTC.Equal(want) {
				t.Errorf("ScheduledTimeUTC = %v, want %v", got.ScheduledTimeUTC, want)
			}
			if !got.ScheduledTimeLocal.Equal(got.ScheduledTimeUTC) {
				t.Errorf("ScheduledTimeLocal %v is not the same instant as %v", got.ScheduledTimeLocal, got.ScheduledTimeUTC)
			}
			if got.ScheduledTimeLocal.Location().String() != tt.zone {
				t.Errorf("ScheduledTimeLocal location = %s, want %s", got.ScheduledTimeLocal.Location(), tt.zone)
			}
		})
	}
}

func TestComputeWindow_InvalidSchedule(t *testing.T) {
	now := mustTime(t, "2025-01-01T00:00:00Z")

	if _, _, err := ComputeWindow(Schedule{StartTime: "10:00", TimeZone: "Local"}, now); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("Local timezone: error = %v, want ErrInvalidPolicy", err)
	}
	if _, _, err := ComputeWindow(Schedule{StartTime: "noon", TimeZone: "UTC"}, now); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("bad start time: error = %v, want ErrInvalidPolicy", err)
	}
}

func TestComputeWindow_DSTTransitions(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		zone      string
		now       string
		wantUTC   string
		wantLocal string
	}{
		{
			name:      "New York Gap Moves Forward",
			start:     "02:30",
			zone:      "America/New_York",
			now:       "2025-03-09T12:00:00Z",
			wantUTC:   "2025-03-09T07:30:00Z",
			wantLocal: "2025-03-09T03:30:00-04:00",
		},
		{
			name:      "Berlin Gap Moves Forward",
			start:     "02:30",
			zone:      "Europe/Berlin",
			now:       "2025-03-30T12:00:00Z",
			wantUTC:   "2025-03-30T01:30:00Z",
			wantLocal: "2025-03-30T03:30:00+02:00",
		},
		{
			name:      "New York Overlap Takes First Occurrence",
			start:     "01:30",
			zone:      "America/New_York",
			now:       "2025-11-02T12:00:00Z",
			wantUTC:   "2025-11-02T05:30:00Z",
			wantLocal: "2025-11-02T01:30:00-04:00",
		},
		{
			name:      "Berlin Overlap Takes First Occurrence",
			start:     "02:30",
			zone:      "Europe/Berlin",
			now:       "2025-10-26T12:00:00Z",
			wantUTC:   "2025-10-26T00:30:00Z",
			wantLocal: "2025-10-26T02:30:00+02:00",
		},
		{
			name:      "Just After The Gap",
			start:     "03:00",
			zone:      "America/New_York",
			now:       "2025-03-09T12:00:00Z",
			wantUTC:   "2025-03-09T07:00:00Z",
			wantLocal: "2025-03-09T03:00:00-04:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			utc, local, err := ComputeWindow(Schedule{StartTime: tt.start, TimeZone: tt.zone}, mustTime(t, tt.now))
			if err != nil {
				t.Fatalf("ComputeWindow() error = %v", err)
			}
			if want := mustTime(t, tt.wantUTC); !utc.Equal(want) || utc.Location() != time.UTC {
				t.Errorf("utc = %v, want %v", utc, want)
			}
			if got := local.Format(time.RFC3339); got != tt.wantLocal {
				t.Errorf("local = %s, want %s", got, tt.wantLocal)
			}
		})
	}
}
