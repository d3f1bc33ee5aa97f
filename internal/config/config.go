// Package config loads SnapSentry settings from flags, SNAPSENTRY_* environment
// variables and an optional YAML file, in that order of precedence.
//
// Keys use dashes; nested retry settings live under "retry", e.g.
//
//	cloud: production
//	organization: acme
//	retry:
//	  max-retries: 5
//	  base-delay: 1s
//
// The matching environment variables are SNAPSENTRY_CLOUD, SNAPSENTRY_ORGANIZATION
// and SNAPSENTRY_RETRY_MAX_RETRIES.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/notifications"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/validation"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "SNAPSENTRY"

// Keys.
const (
	KeyCloud           = "cloud"
	KeyOrganization    = "organization"
	KeyTimeout         = "timeout"
	KeyLogLevel        = "log-level"
	KeyWebhookURL      = "webhook-url"
	KeyWebhookUsername = "webhook-username"
	KeyWebhookPassword = "webhook-password"
	KeyWebhookVerify   = "webhook-verify"
	KeyMetricsTextfile = "metrics-textfile"

	KeyRetryMaxRetries       = "retry.max-retries"
	KeyRetryBaseDelay        = "retry.base-delay"
	KeyRetryOperationTimeout = "retry.operation-timeout"
)

// ErrMissingCloud is returned by RequireCloud when no cloud profile is set.
var ErrMissingCloud = errors.New(`required flag(s) "cloud" not set`)

// Retry configures backoff for cloud API calls.
type Retry struct {
	MaxRetries       int           `tag:"max-retries" validate:"min=0,max=20"`
	BaseDelay        time.Duration `tag:"base-delay" validate:"min=0s"`
	OperationTimeout time.Duration `tag:"operation-timeout" validate:"min=0s"`
}

// Config is the resolved configuration of one invocation.
type Config struct {
	Cloud           string `tag:"cloud"`
	Organization    string `tag:"organization" validate:"required"`
	Timeout         int    `tag:"timeout" validate:"min=0"`
	LogLevel        string `tag:"log-level" validate:"oneof=debug info warn error"`
	WebhookURL      string `tag:"webhook-url" validate:"omitempty,url"`
	WebhookUsername string `tag:"webhook-username"`
	WebhookPassword string `tag:"webhook-password"`
	WebhookVerify   bool   `tag:"webhook-verify"`
	MetricsTextfile string `tag:"metrics-textfile"`

	Retry Retry `tag:"retry"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	retry := cloud.DefaultRetryConfig()

	v.SetDefault(KeyCloud, "")
	v.SetDefault(KeyOrganization, policy.DefaultOrganization)
	v.SetDefault(KeyTimeout, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyWebhookURL, "")
	v.SetDefault(KeyWebhookUsername, "")
	v.SetDefault(KeyWebhookPassword, "")
	v.SetDefault(KeyWebhookVerify, true)
	v.SetDefault(KeyMetricsTextfile, "")
	v.SetDefault(KeyRetryMaxRetries, retry.MaxRetries)
	v.SetDefault(KeyRetryBaseDelay, retry.BaseDelay)
	v.SetDefault(KeyRetryOperationTimeout, retry.OperationTimeout)
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag of fs to the key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, fmt.Errorf("binding flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads configFile when it is not empty, then decodes and validates the
// merged settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "tag"
	}); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	c.Organization = strings.TrimSpace(c.Organization)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field against its rules.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireCloud fails when no cloud profile is configured.
func (c Config) RequireCloud() error {
	if strings.TrimSpace(c.Cloud) == "" {
		return ErrMissingCloud
	}
	return nil
}

// RetryConfig returns the cloud retry settings.
func (c Config) RetryConfig() cloud.RetryConfig {
	return cloud.RetryConfig{
		MaxRetries:       c.Retry.MaxRetries,
		BaseDelay:        c.Retry.BaseDelay,
		OperationTimeout: c.Retry.OperationTimeout,
	}
}

// Webhook returns the alerting webhook, or nil when no URL is configured.
func (c Config) Webhook() *notifications.Webhook {
	if c.WebhookURL == "" {
		return nil
	}
	return &notifications.Webhook{
		URL:      c.WebhookURL,
		Username: c.WebhookUsername,
		Password: c.WebhookPassword,
		Verify:   c.WebhookVerify,
	}
}

// Codec returns the metadata codec for the configured organization.
func (c Config) Codec() policy.Codec {
	return policy.NewCodec(c.Organization)
}

// WithTimeout derives a context bounded by the global timeout. A zero timeout
// only adds cancellation.
func (c Config) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(parent, time.Duration(c.Timeout)*time.Second)
	}
	return context.WithCancel(parent)
}
