package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/aravindh-murugesan/openstack-snapsentry/internal/policy"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// ParseLogLevel maps a level name to a slog level. Unknown names mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger configures the application-wide logger.
// It uses "tint" for colorized, structured logging that is easy to read in terminals.
func SetupLogger(w io.Writer, level string, cloudName string) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      ParseLogLevel(level),
		TimeFormat: time.RFC3339,
	})

	return slog.New(handler).With("cloud_profile", cloudName)
}

// NewRunID returns the identifier attached to every log line of one invocation.
func NewRunID() string {
	return fmt.Sprintf("req-%s", uuid.New().String())
}

// SnapshotName builds the name of a managed snapshot from its class, its volume
// and the local scheduled time of the window it belongs to.
func SnapshotName(f policy.Frequency, volumeID string, scheduledLocal time.Time) string {
	return fmt.Sprintf("managed-%s-%s-%s", f, volumeID, scheduledLocal.Format(time.RFC3339))
}

func toExistingSnapshots(snaps []cloud.Snapshot) []policy.ExistingSnapshot {
	out := make([]policy.ExistingSnapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, policy.ExistingSnapshot{ID: s.ID, CreatedAt: s.CreatedAt})
	}
	return out
}
