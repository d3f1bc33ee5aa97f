package cli

import (
	"fmt"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
	"github.com/spf13/cobra"
)

// Flags for subscribe sub-commands
var (
	volumeID      string
	enablePolicy  bool
	retentionDays int
	startTime     string
	timeZone      string
	weekDay       string // Weekly only
	dayOfMonth    int    // Monthly only
)

var subscribeCommand = &cobra.Command{
	Use:     "subscribe",
	Short:   "Configure snapshot policies for a volume",
	Long:    `Updates the metadata of a specific OpenStack volume to attach Daily, Weekly, or Monthly snapshot schedules. It validates the provided configuration (e.g., time formats, retention periods) and applies the changes immediately.`,
	GroupID: "snapsentry",
}

var subscribeDailyCommand = &cobra.Command{
	Use:   "daily",
	Short: "Applies a daily snapshot schedule",
	Long:  `Configures the target volume with a daily snapshot policy. This command updates the volume's metadata to enable daily backups, setting the specific retention period (in days) and the precise time of day (HH:MM) for the snapshot trigger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := policy.DefaultDailyPolicy()
		applyScheduleFlags(&p.Schedule)
		return runSubscribe(cmd, "Snapsentry - Daily Subscription", p)
	},
}

var subscribeWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Applies a weekly snapshot schedule",
	Long:  `Configures the target volume with a weekly snapshot policy. This command updates the volume's metadata to enable weekly backups, allowing you to specify the exact day of the week (e.g., "Sunday"), the retention period, and the execution time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := policy.DefaultWeeklyPolicy()
		applyScheduleFlags(&p.Schedule)
		p.StartDay = weekDay
		return runSubscribe(cmd, "Snapsentry - Weekly Subscription", p)
	},
}

var subscribeMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Applies a monthly snapshot schedule",
	Long:  `Configures the target volume with a monthly snapshot policy. This command updates the volume's metadata to enable monthly backups, allowing you to specify the calendar day (1-31) for execution, along with the retention period and start time. Days past the end of a short month run on its last day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := policy.DefaultMonthlyPolicy()
		applyScheduleFlags(&p.Schedule)
		p.StartDate = dayOfMonth
		return runSubscribe(cmd, "Snapsentry - Monthly Subscription", p)
	},
}

func applyScheduleFlags(s *policy.Schedule) {
	s.Enabled = enablePolicy
	s.RetentionDays = retentionDays
	s.StartTime = startTime
	s.TimeZone = timeZone
}

func runSubscribe(cmd *cobra.Command, title string, p policy.SnapshotPolicy) error {
	fmt.Println(headerStyle.Render(title))

	ctx, cancel := cfg.WithTimeout(cmd.Context())
	defer cancel()

	logger := newLogger()
	s, err := newScheduler(ctx, logger)
	if err != nil {
		return err
	}
	return s.Subscribe(ctx, volumeID, p)
}

func init() {
	// Shared Flags
	// These flags apply to 'subscribe daily', 'subscribe weekly', and 'subscribe monthly'
	subscribeCommand.PersistentFlags().StringVar(&volumeID, "volume-id", "", "UUID of the OpenStack volume (required)")
	subscribeCommand.PersistentFlags().BoolVar(&enablePolicy, "enabled", true, "Enable or disable this specific policy")
	subscribeCommand.PersistentFlags().IntVar(&retentionDays, "retention", 0, "Retention period in days (required)")
	subscribeCommand.PersistentFlags().StringVar(&timeZone, "timezone", "", "Timezone (e.g. 'UTC', 'America/New_York')")
	subscribeCommand.PersistentFlags().StringVar(&startTime, "start-time", "", "Snapshot trigger time in HH:MM format (required)")

	_ = subscribeCommand.MarkPersistentFlagRequired("volume-id")
	_ = subscribeCommand.MarkPersistentFlagRequired("retention")
	_ = subscribeCommand.MarkPersistentFlagRequired("start-time")

	// Flags specific to 'subscribe weekly'
	subscribeWeeklyCmd.Flags().StringVar(&weekDay, "week-day", "Sunday", "Day of the week (Monday, Tuesday, etc.)")

	// Flags specific to 'subscribe monthly'
	subscribeMonthlyCmd.Flags().IntVar(&dayOfMonth, "month-day", 1, "Day of the month (1-31)")

	rootCommand.AddCommand(subscribeCommand)
	subscribeCommand.AddCommand(subscribeDailyCommand)
	subscribeCommand.AddCommand(subscribeWeeklyCmd)
	subscribeCommand.AddCommand(subscribeMonthlyCmd)
}
