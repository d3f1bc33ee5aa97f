package policy

import (
	"errors"
	"time"
)

// Frequency identifies a recurrence class. Each class is evaluated independently
// per volume and has its own set of metadata keys.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Frequencies lists every recurrence class in evaluation order.
func Frequencies() []Frequency {
	return []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}
}

// Valid reports whether f is one of the known recurrence classes.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

func (f Frequency) String() string {
	return string(f)
}

// RetentionTypeTime is the only supported retention strategy: snapshots expire
// after a fixed number of calendar days.
const RetentionTypeTime = "time"

// Defaults applied to fields that have no metadata tag.
const (
	DefaultStartTime = "23:29"
	DefaultTimeZone  = "UTC"

	DefaultRetentionDaysDaily   = 7
	DefaultRetentionDaysWeekly  = 30
	DefaultRetentionDaysMonthly = 90

	DefaultStartDay  = "sunday"
	DefaultStartDate = 1
)

var (
	// ErrInvalidPolicy wraps every validation failure of a schedule policy.
	ErrInvalidPolicy = errors.New("invalid snapshot policy")

	// ErrInvalidRetention wraps every failure to decode retention metadata from a
	// snapshot. Callers must never treat it as an expiry decision.
	ErrInvalidRetention = errors.New("invalid snapshot retention metadata")
)

// Outcome classifies a ScheduleDecision so callers can tell a calendar gate
// mismatch apart from a time-of-day mismatch without parsing the reason text.
type Outcome string

const (
	OutcomeDue             Outcome = "due"
	OutcomeBeforeStartTime Outcome = "before-start-time"
	OutcomeDayMismatch     Outcome = "day-mismatch"
	OutcomeDateMismatch    Outcome = "date-mismatch"
	OutcomeDisabled        Outcome = "disabled"
)

// ScheduleDecision is the result of evaluating a policy at a reference instant.
//
// ScheduledTimeUTC and ScheduledTimeLocal always hold the same instant. They are
// populated for diagnostics even when a day or date gate short-circuits the
// evaluation.
type ScheduleDecision struct {
	IsDue              bool
	Outcome            Outcome
	ScheduledTimeUTC   time.Time
	ScheduledTimeLocal time.Time
	EvaluatedAt        time.Time
	Reason             string
}

// ExistingSnapshot is the minimal view of a managed snapshot needed by the
// window deduplication check.
type ExistingSnapshot struct {
	ID        string
	CreatedAt time.Time
}
