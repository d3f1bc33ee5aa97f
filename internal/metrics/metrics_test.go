package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.SnapshotDecision("daily", "created")
	r.SnapshotDecision("daily", "created")
	r.SnapshotDecision("weekly", "skipped")
	r.ExpiryOutcome("deleted")

	if got := testutil.ToFloat64(r.decisions.WithLabelValues("daily", "created")); got != 2 {
		t.Errorf("daily/created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("weekly", "skipped")); got != 1 {
		t.Errorf("weekly/skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.expiry.WithLabelValues("deleted")); got != 1 {
		t.Errorf("expiry/deleted = %v, want 1", got)
	}

	problems, err := testutil.GatherAndLint(r.Registry())
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint: %s: %s", p.Metric, p.Text)
	}
}

func TestRecorder_PassCompleted(t *testing.T) {
	r := NewRecorder()
	started := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	r.PassCompleted("snapshot", started, started.Add(42*time.Second))

	if got := testutil.ToFloat64(r.lastPassStamp.WithLabelValues("snapshot")); got != float64(started.Add(42*time.Second).Unix()) {
		t.Errorf("last pass timestamp = %v", got)
	}
	if n := testutil.CollectAndCount(r.passDuration, "snapsentry_pass_duration_seconds"); n != 1 {
		t.Errorf("pass duration series = %d, want 1", n)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ExpiryOutcome("retained")

	path := filepath.Join(t.TempDir(), "snapsentry.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `snapsentry_snapshot_expiry_total{outcome="retained"} 1`) {
		t.Errorf("textfile missing expiry counter:\n%s", data)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.SnapshotDecision("daily", "created")
	r.ExpiryOutcome("deleted")
	r.PassCompleted("expiry", time.Now(), time.Now())
	if err := r.WriteTextfile("/nonexistent/path"); err != nil {
		t.Errorf("nil WriteTextfile() error = %v", err)
	}
}
