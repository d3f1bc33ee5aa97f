package notifications

import "time"

// Webhook posts JSON alerts to an HTTP endpoint, optionally with basic auth.
type Webhook struct {
	URL      string
	Username string
	Password string
	// Verify enables TLS certificate verification for the endpoint.
	Verify bool
	// Timeout bounds a single delivery attempt. Defaults to 30 seconds.
	Timeout time.Duration
	// Attempts is the number of delivery attempts on transient failures. Defaults to 3.
	Attempts int
}

// SnapshotWindow describes the schedule window a snapshot was created for.
type SnapshotWindow struct {
	ScheduledTimeUTC   time.Time `json:"scheduled_time_utc"`
	ScheduledTimeLocal string    `json:"scheduled_time_local"`
	WindowEnd          time.Time `json:"window_end_utc"`
}

// SnapshotCreationFailure reports a snapshot that was created but could not be
// tagged nor removed. Such snapshots are invisible to the expiry workflow and
// need an operator.
type SnapshotCreationFailure struct {
	Service      string         `json:"service"`
	Organization string         `json:"organization"`
	RunID        string         `json:"snapsentry_id"`
	VolumeID     string         `json:"volume_id"`
	VolumeName   string         `json:"volume_name"`
	SnapshotID   string         `json:"snapshot_id"`
	Frequency    string         `json:"frequency"`
	Message      string         `json:"message"`
	Errors       []string       `json:"errors"`
	Window       SnapshotWindow `json:"snapshot_window"`
}
