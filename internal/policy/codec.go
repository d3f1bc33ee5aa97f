package policy

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// DefaultOrganization is the organization label used when none is configured.
const DefaultOrganization = "snapsentry"

// Policy field names, the last segment of x-<organization>-<class>-<field>.
const (
	FieldEnabled       = "enabled"
	FieldStartTime     = "start-time"
	FieldTimeZone      = "timezone"
	FieldRetentionType = "retention-type"
	FieldRetentionDays = "retention-days"
	FieldStartDay      = "start-day"
	FieldStartDate     = "start-date"
)

// Snapshot field names, the last segment of x-<organization>-snapshot-<field>.
const (
	SnapshotFieldExpiryDate      = "expiry-date"
	SnapshotFieldExpiryDateZoned = "expiry-date-zoned"
	SnapshotFieldRetentionDays   = "retention-days"
	SnapshotFieldRetentionType   = "retention-type"
	SnapshotFieldFrequencyType   = "frequency-type"
)

// Codec translates between policy values and the flat string tags stored on
// volumes and snapshots. All keys are namespaced by the organization label.
type Codec struct {
	organization string
}

// NewCodec returns a codec for the given organization label. An empty label
// falls back to DefaultOrganization.
func NewCodec(organization string) Codec {
	organization = strings.TrimSpace(organization)
	if organization == "" {
		organization = DefaultOrganization
	}
	return Codec{organization: organization}
}

// Organization returns the label used to namespace keys.
func (c Codec) Organization() string {
	if c.organization == "" {
		return DefaultOrganization
	}
	return c.organization
}

func (c Codec) prefix() string {
	return "x-" + c.Organization() + "-"
}

// Key returns the metadata key of a policy field, e.g. x-acme-daily-start-time.
func (c Codec) Key(f Frequency, field string) string {
	return c.prefix() + string(f) + "-" + field
}

// ManagedKey returns the key flagging a volume or snapshot as managed.
func (c Codec) ManagedKey() string {
	return c.prefix() + "snapsentry-managed"
}

// SnapshotKey returns the metadata key of a snapshot retention field.
func (c Codec) SnapshotKey(field string) string {
	return c.prefix() + "snapshot-" + field
}

// VolumePolicies is the decoded schedule configuration of one volume. A class is
// non-nil only when it is enabled and passed validation; enabled classes that
// failed are listed in Invalid.
type VolumePolicies struct {
	Managed bool
	Daily   *SnapshotPolicyDaily
	Weekly  *SnapshotPolicyWeekly
	Monthly *SnapshotPolicyMonthly

	Invalid map[Frequency]error
}

// Policies returns the configured classes in evaluation order.
func (v VolumePolicies) Policies() []SnapshotPolicy {
	var out []SnapshotPolicy
	for _, f := range Frequencies() {
		if p, ok := v.Get(f); ok {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the policy configured for f, if any.
func (v VolumePolicies) Get(f Frequency) (SnapshotPolicy, bool) {
	// Explicit nil checks avoid returning a typed nil inside the interface.
	switch f {
	case FrequencyDaily:
		if v.Daily != nil {
			return v.Daily, true
		}
	case FrequencyWeekly:
		if v.Weekly != nil {
			return v.Weekly, true
		}
	case FrequencyMonthly:
		if v.Monthly != nil {
			return v.Monthly, true
		}
	}
	return nil, false
}

// NewPolicy returns the default policy of a class, enabled.
func NewPolicy(f Frequency) (SnapshotPolicy, error) {
	switch f {
	case FrequencyDaily:
		return DefaultDailyPolicy(), nil
	case FrequencyWeekly:
		return DefaultWeeklyPolicy(), nil
	case FrequencyMonthly:
		return DefaultMonthlyPolicy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown frequency '%s'", ErrInvalidPolicy, f)
	}
}

// DecodeVolume reads every policy class from volume tags.
//
// A class is considered only when its enabled tag is "true" (any case); every
// other value, including "1" and "yes", reads as false. Missing or empty fields take the class defaults. A class
// that fails to decode or validate is reported in the returned aggregate error and
// in VolumePolicies.Invalid, while the remaining classes are still returned.
func (c Codec) DecodeVolume(tags map[string]string) (VolumePolicies, error) {
	vp := VolumePolicies{Managed: parseBool(tags[c.ManagedKey()])}

	var errs []error
	for _, f := range Frequencies() {
		if !parseBool(tags[c.Key(f, FieldEnabled)]) {
			continue
		}

		p, err := c.decodeClass(f, tags)
		if err != nil {
			if vp.Invalid == nil {
				vp.Invalid = make(map[Frequency]error)
			}
			vp.Invalid[f] = err
			errs = append(errs, err)
			continue
		}

		switch v := p.(type) {
		case *SnapshotPolicyDaily:
			vp.Daily = v
		case *SnapshotPolicyWeekly:
			vp.Weekly = v
		case *SnapshotPolicyMonthly:
			vp.Monthly = v
		}
	}

	if len(errs) > 0 {
		return vp, utilerrors.NewAggregate(errs)
	}
	return vp, nil
}

func (c Codec) decodeClass(f Frequency, tags map[string]string) (SnapshotPolicy, error) {
	p, err := NewPolicy(f)
	if err != nil {
		return nil, err
	}

	classPrefix := c.prefix() + string(f) + "-"
	fields := make(map[string]any)
	for key, value := range tags {
		field, ok := strings.CutPrefix(key, classPrefix)
		if !ok || field == FieldEnabled {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			fields[field] = value
		}
	}

	if err := decodeFields(fields, p); err != nil {
		return nil, fmt.Errorf("%s policy: %w: %w", f, ErrInvalidPolicy, err)
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeFields overlays 'fields' onto 'out', keeping values already present in
// 'out' for absent keys. Strings are weakly converted to the field types.
func decodeFields(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "tag",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToDecimalIntHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

// stringToDecimalIntHook parses integers in base 10 so that "08" reads as 8.
// Weak typing alone would treat a leading zero as an octal prefix.
func stringToDecimalIntHook(from reflect.Kind, to reflect.Kind, data any) (any, error) {
	if from != reflect.String || to != reflect.Int {
		return data, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(data.(string)))
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a whole number", data)
	}
	return n, nil
}

// Encode renders every field of p as volume tags. The managed flag is not part
// of the output; use SubscriptionTags for a complete subscription.
func (c Codec) Encode(p SnapshotPolicy) map[string]string {
	f := p.Frequency()
	base := p.Base()

	tags := map[string]string{
		c.Key(f, FieldEnabled):       strconv.FormatBool(base.Enabled),
		c.Key(f, FieldStartTime):     base.StartTime,
		c.Key(f, FieldTimeZone):      base.TimeZone,
		c.Key(f, FieldRetentionType): base.RetentionType,
		c.Key(f, FieldRetentionDays): strconv.Itoa(base.RetentionDays),
	}

	switch v := p.(type) {
	case *SnapshotPolicyWeekly:
		tags[c.Key(f, FieldStartDay)] = v.StartDay
	case *SnapshotPolicyMonthly:
		tags[c.Key(f, FieldStartDate)] = strconv.Itoa(v.StartDate)
	}
	return tags
}

// SubscriptionTags returns the managed flag together with the encoded form of
// every given policy.
func (c Codec) SubscriptionTags(policies ...SnapshotPolicy) map[string]string {
	tags := map[string]string{c.ManagedKey(): "true"}
	for _, p := range policies {
		for k, v := range c.Encode(p) {
			tags[k] = v
		}
	}
	return tags
}

// EncodeRetention renders a retention record as snapshot tags.
func (c Codec) EncodeRetention(r RetentionRecord) map[string]string {
	return map[string]string{
		c.ManagedKey():                              strconv.FormatBool(r.Managed),
		c.SnapshotKey(SnapshotFieldExpiryDate):      r.ExpiryTimeUTC.UTC().Format(time.RFC3339),
		c.SnapshotKey(SnapshotFieldExpiryDateZoned): r.ExpiryTimeLocal.Format(time.RFC3339),
		c.SnapshotKey(SnapshotFieldRetentionDays):   strconv.Itoa(r.RetentionDays),
		c.SnapshotKey(SnapshotFieldRetentionType):   r.RetentionType,
		c.SnapshotKey(SnapshotFieldFrequencyType):   string(r.FrequencyType),
	}
}

type retentionFields struct {
	ExpiryDate      time.Time `tag:"expiry-date"`
	ExpiryDateZoned time.Time `tag:"expiry-date-zoned"`
	RetentionDays   int       `tag:"retention-days"`
	RetentionType   string    `tag:"retention-type"`
	FrequencyType   string    `tag:"frequency-type"`
}

// DecodeRetention reads the retention record of a snapshot. Every failure wraps
// ErrInvalidRetention: the managed flag must be "true" (any case); expiry date,
// frequency and retention days must be present and well formed.
func (c Codec) DecodeRetention(tags map[string]string) (RetentionRecord, error) {
	managed, ok := tags[c.ManagedKey()]
	if !ok {
		return RetentionRecord{}, fmt.Errorf("%w: missing '%s'", ErrInvalidRetention, c.ManagedKey())
	}
	if !parseBool(managed) {
		return RetentionRecord{}, fmt.Errorf("%w: snapshot is not managed ('%s' = '%s')", ErrInvalidRetention, c.ManagedKey(), managed)
	}

	snapshotPrefix := c.prefix() + "snapshot-"
	fields := make(map[string]any)
	for key, value := range tags {
		field, ok := strings.CutPrefix(key, snapshotPrefix)
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			fields[field] = value
		}
	}

	var raw retentionFields
	if err := decodeFields(fields, &raw); err != nil {
		return RetentionRecord{}, fmt.Errorf("%w: %w", ErrInvalidRetention, err)
	}

	if raw.ExpiryDate.IsZero() {
		return RetentionRecord{}, fmt.Errorf("%w: missing '%s'", ErrInvalidRetention, c.SnapshotKey(SnapshotFieldExpiryDate))
	}
	f := Frequency(strings.ToLower(raw.FrequencyType))
	if !f.Valid() {
		return RetentionRecord{}, fmt.Errorf("%w: invalid frequency type '%s'", ErrInvalidRetention, raw.FrequencyType)
	}
	if raw.RetentionDays < 1 || raw.RetentionDays > 3650 {
		return RetentionRecord{}, fmt.Errorf("%w: retention days must be between 1 and 3650, got %d", ErrInvalidRetention, raw.RetentionDays)
	}
	if raw.RetentionType == "" {
		raw.RetentionType = RetentionTypeTime
	}
	if raw.ExpiryDateZoned.IsZero() {
		raw.ExpiryDateZoned = raw.ExpiryDate
	}

	return RetentionRecord{
		Managed:         true,
		FrequencyType:   f,
		RetentionDays:   raw.RetentionDays,
		RetentionType:   raw.RetentionType,
		ExpiryTimeUTC:   raw.ExpiryDate.UTC(),
		ExpiryTimeLocal: raw.ExpiryDateZoned,
	}, nil
}

// parseBool reads a tag boolean. Only "true", in any case, is true.
func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
