package openstack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/utils/v2/openstack/clientconfig"
	gobreaker "github.com/sony/gobreaker/v2"
)

// requestIDHeader carries the OpenStack tracing ID of a request.
const requestIDHeader = "X-Openstack-Request-Id"

// defaultPollInterval is how often snapshot status is polled while waiting.
const defaultPollInterval = 2 * time.Second

// Client implements cloud.Provider on top of the Block Storage v3 API.
// It wraps the gophercloud service client with retry logic, a circuit breaker
// shared by every call, and profile management.
type Client struct {
	// ProfileName corresponds to the entry in clouds.yaml
	ProfileName string
	// RetryConfig defines the behavior for transient error handling
	RetryConfig cloud.RetryConfig
	// PollInterval is the delay between status checks while a snapshot is created.
	PollInterval time.Duration
	// Logger receives retry and breaker events. Defaults to slog.Default().
	Logger *slog.Logger

	BlockStorageClient *gophercloud.ServiceClient

	breakerOnce sync.Once
	breaker     *gobreaker.CircuitBreaker[any]
}

var _ cloud.Provider = (*Client)(nil)

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval
}

// Connect authenticates against the configured profile and initializes the Block
// Storage (Cinder) client. Authentication is retried on transient errors.
func (c *Client) Connect(ctx context.Context) error {
	c.logger().Debug("Initializing OpenStack client", "profile", c.ProfileName)

	opts := &clientconfig.ClientOpts{
		Cloud: c.ProfileName,
	}

	var provider *gophercloud.ProviderClient
	err := c.executeWithRetry(ctx, "OpenStack Authentication", func(ctx context.Context) error {
		p, err := clientconfig.AuthenticatedClient(ctx, opts)
		if err != nil {
			return err
		}
		provider = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("authentication failed for profile '%s': %w", c.ProfileName, err)
	}

	cloudConfig, err := clientconfig.GetCloudFromYAML(opts)
	if err != nil {
		return fmt.Errorf("failed to parse cloud config: %w", err)
	}

	var availability gophercloud.Availability
	switch cloudConfig.EndpointType {
	case "internal":
		availability = gophercloud.AvailabilityInternal
	case "admin":
		availability = gophercloud.AvailabilityAdmin
	default:
		availability = gophercloud.AvailabilityPublic
	}

	blockStorage, err := openstack.NewBlockStorageV3(provider, gophercloud.EndpointOpts{
		Availability: availability,
		Region:       cloudConfig.RegionName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Block Storage v3 client: %w", err)
	}

	c.BlockStorageClient = blockStorage
	return nil
}
