package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func TestWebhook_Notify(t *testing.T) {
	var got SnapshotCreationFailure
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s with content type %q", r.Method, r.Header.Get("Content-Type"))
		}
		user, pass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	want := SnapshotCreationFailure{
		Service:      "snapsentry",
		Organization: "acme",
		RunID:        "req-1",
		VolumeID:     "vol-1",
		SnapshotID:   "snap-1",
		Frequency:    "daily",
		Message:      "orphaned snapshot",
		Errors:       []string{"tagging failed", "delete failed"},
		Window: SnapshotWindow{
			ScheduledTimeUTC:   time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC),
			ScheduledTimeLocal: "2025-01-01T03:00:00+01:00",
			WindowEnd:          time.Date(2025, 1, 2, 2, 0, 0, 0, time.UTC),
		},
	}

	w := &Webhook{URL: srv.URL, Username: "ops", Password: "secret", Verify: true}
	if err := w.Notify(context.Background(), want); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if user != "ops" || pass != "secret" {
		t.Errorf("basic auth = %q/%q, want ops/secret", user, pass)
	}
}

func TestWebhook_Notify_Retries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   bool
		wantCalls int32
	}{
		{name: "Recovers After Server Error", statuses: []int{503, 200}, wantCalls: 2},
		{name: "Gives Up After Attempts", statuses: []int{500, 500, 500, 500}, wantErr: true, wantCalls: 3},
		{name: "Client Error Is Final", statuses: []int{400, 200}, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			w := &Webhook{URL: srv.URL, Verify: true, Attempts: 3}
			err := w.Notify(context.Background(), SnapshotCreationFailure{Service: "snapsentry"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestWebhook_Notify_MissingURL(t *testing.T) {
	if err := (&Webhook{}).Notify(context.Background(), SnapshotCreationFailure{}); err == nil {
		t.Error("Notify() without URL succeeded")
	}
}
