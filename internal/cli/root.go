package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud/openstack"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/config"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/metrics"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	configFile string
	settings   = config.New()
	cfg        config.Config
)

var rootCommand = &cobra.Command{
	Use:          "snapsentry",
	Aliases:      []string{"snapsentry-go"},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'version' and 'help' run without a cloud profile.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		loaded, err := config.Load(settings, configFile)
		if err != nil {
			return err
		}
		if err := loaded.RequireCloud(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	Short: "SnapSentry: OpenStack Snapshot Lifecycle Manager",
	Long: `SnapSentry is a policy-based snapshot scheduler for OpenStack volumes.
It allows you to define Daily, Weekly, and Monthly snapshot policies via volume metadata
and automatically manages the lifecycle (creation and expiry) of those snapshots.

Every flag can also be set through a SNAPSENTRY_* environment variable
(e.g. SNAPSENTRY_CLOUD) or a YAML file passed with --config.

Author: Aravindh Murugesan`,
}

// Execute runs the root command. ctx is cancelled on interrupt by the caller.
func Execute(ctx context.Context) error {
	return rootCommand.ExecuteContext(ctx)
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "snapsentry", Title: "Snapsentry"})

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	flags.String(config.KeyCloud, "", "Name of the cloud profile as in clouds.yaml (required)")
	flags.String(config.KeyOrganization, "snapsentry", "Organization label used to namespace metadata keys")
	flags.Int(config.KeyTimeout, 0, "Global execution timeout in seconds (0 = run indefinitely)")
	flags.String(config.KeyLogLevel, "info", "Logging level (debug, info, warn, error)")
	flags.String(config.KeyWebhookURL, "", "Webhook URL for alerting")
	flags.String(config.KeyWebhookUsername, "", "Webhook username for alerting")
	flags.String(config.KeyWebhookPassword, "", "Webhook password for alerting")
	flags.String(config.KeyMetricsTextfile, "", "Write Prometheus metrics to this file after a pass")

	if err := config.BindFlags(settings, flags); err != nil {
		panic(err)
	}
}

// newLogger builds the logger for the resolved configuration.
func newLogger() *slog.Logger {
	return workflow.SetupLogger(os.Stderr, cfg.LogLevel, cfg.Cloud)
}

// newScheduler connects to the configured cloud and wires a Scheduler with
// alerting and metrics.
func newScheduler(ctx context.Context, logger *slog.Logger) (*workflow.Scheduler, error) {
	client := &openstack.Client{
		ProfileName: cfg.Cloud,
		RetryConfig: cfg.RetryConfig(),
		Logger:      logger,
	}

	logger.Debug("Attempting to connect to OpenStack", "profile", cfg.Cloud)
	if err := client.Connect(ctx); err != nil {
		logger.Error("OpenStack client initialization failed", "error", err)
		return nil, fmt.Errorf("client initialization failed: %w", err)
	}
	logger.Debug("OpenStack connection established successfully")

	s := workflow.NewScheduler(client, cfg.Codec(), logger)
	if w := cfg.Webhook(); w != nil {
		s.Notifier = w
	}
	if cfg.MetricsTextfile != "" {
		s.Metrics = metrics.NewRecorder()
	}
	return s, nil
}

// exportMetrics writes the run metrics when a textfile is configured.
func exportMetrics(s *workflow.Scheduler, logger *slog.Logger) {
	if err := s.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("Metrics export failed", "path", cfg.MetricsTextfile, "error", err)
	}
}
