package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
	"github.com/jonboulle/clockwork"
)

func TestSubscribe(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := newFakeProvider(clock, cloud.Volume{ID: "vol-1", Tags: map[string]string{"owner": "ops"}})
	s := newTestScheduler(clock, provider)

	weekly := policy.DefaultWeeklyPolicy()
	weekly.StartTime = "9:05"
	weekly.StartDay = "Mon"
	weekly.TimeZone = "Europe/Berlin"

	if err := s.Subscribe(context.Background(), "vol-1", weekly); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	tags := provider.volumes[0].Tags
	if tags["owner"] != "ops" {
		t.Errorf("foreign tag lost: %v", tags)
	}
	if tags[codec.Key(policy.FrequencyWeekly, policy.FieldStartTime)] != "09:05" ||
		tags[codec.Key(policy.FrequencyWeekly, policy.FieldStartDay)] != "monday" {
		t.Errorf("weekly tags not normalized: %v", tags)
	}

	vp, err := codec.DecodeVolume(tags)
	if err != nil {
		t.Fatalf("DecodeVolume() error = %v", err)
	}
	if !vp.Managed || vp.Weekly == nil || vp.Daily != nil {
		t.Errorf("decoded = %+v, want managed weekly only", vp)
	}

	// Disabling keeps the configuration in place.
	weekly.Enabled = false
	if err := s.Subscribe(context.Background(), "vol-1", weekly); err != nil {
		t.Fatalf("Subscribe(disabled) error = %v", err)
	}
	if vp, _ := codec.DecodeVolume(provider.volumes[0].Tags); vp.Weekly != nil {
		t.Errorf("weekly still enabled after disabling: %+v", vp.Weekly)
	}
	if got := provider.volumes[0].Tags[codec.Key(policy.FrequencyWeekly, policy.FieldTimeZone)]; got != "Europe/Berlin" {
		t.Errorf("timezone = %q after disabling, want Europe/Berlin", got)
	}
}

func TestSubscribe_Errors(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Invalid Policy", func(t *testing.T) {
		provider := newFakeProvider(clock, cloud.Volume{ID: "vol-1", Tags: map[string]string{}})
		p := policy.DefaultDailyPolicy()
		p.RetentionDays = 0

		err := newTestScheduler(clock, provider).Subscribe(context.Background(), "vol-1", p)
		if !errors.Is(err, policy.ErrInvalidPolicy) {
			t.Fatalf("Subscribe() error = %v, want ErrInvalidPolicy", err)
		}
		if len(provider.volumes[0].Tags) != 0 {
			t.Errorf("volume tags changed: %v", provider.volumes[0].Tags)
		}
	})

	t.Run("Unknown Volume", func(t *testing.T) {
		provider := newFakeProvider(clock)
		if err := newTestScheduler(clock, provider).Subscribe(context.Background(), "vol-x", policy.DefaultDailyPolicy()); err == nil {
			t.Error("Subscribe() on unknown volume succeeded")
		}
	})
}
