// Package notifications delivers operator alerts for failures that leave
// unmanaged state behind in the cloud.
package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
)

// errTransient marks delivery failures worth another attempt.
var errTransient = errors.New("transient webhook failure")

func (w *Webhook) httpClient() *http.Client {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	if !w.Verify {
		client.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via configuration
		}
	}
	return client
}

// Notify posts the failure as JSON. Network errors and 5xx/429 responses are
// retried with a short backoff; other responses fail immediately.
func (w *Webhook) Notify(ctx context.Context, notification SnapshotCreationFailure) error {
	if w.URL == "" {
		return errors.New("webhook URL is not configured")
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	attempts := w.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := wait.Backoff{
		Duration: 500 * time.Millisecond,
		Factor:   2,
		Jitter:   0.1,
		Steps:    attempts,
	}

	client := w.httpClient()
	err = retry.OnError(backoff, func(err error) bool {
		return errors.Is(err, errTransient) && ctx.Err() == nil
	}, func() error {
		return w.send(ctx, client, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to send notification via webhook: %w", err)
	}
	return nil
}

func (w *Webhook) send(ctx context.Context, client *http.Client, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Username != "" || w.Password != "" {
		req.SetBasicAuth(w.Username, w.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", errTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
