// Package notify delivers generation events to an external webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event is the JSON body sent to the configured webhook URL for each
// generated QR image.
type Event struct {
	Kind         string `json:"kind"`
	Path         string `json:"path,omitempty"`
	Level        string `json:"level"`
	PayloadBytes int    `json:"payload_bytes"`
	Width        int    `json:"width"`
	CreatedAt    int64  `json:"created_at"`

	// Payload takes part in deduplication but is not sent.
	Payload string `json:"-"`
}

func (e *Event) key() string {
	return e.Kind + "\x00" + e.Path + "\x00" + e.Payload
}

// WebhookSender delivers events to an external HTTP endpoint with
// deduplication.
type WebhookSender struct {
	url    string
	seen   map[string]time.Time // event key -> first seen time (dedup)
	mu     sync.Mutex
	client *http.Client
	log    *slog.Logger
}

// seenTTL is the time-to-live for entries in the deduplication map.
const seenTTL = 5 * time.Minute

// NewWebhookSender creates a WebhookSender ready to POST events to the given
// url. If url is empty the sender is a no-op.
func NewWebhookSender(url string, timeout time.Duration, log *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:  url,
		seen: make(map[string]time.Time),
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (w *WebhookSender) Enabled() bool {
	return w != nil && w.url != ""
}

// Send delivers an event to the configured endpoint. It returns nil without
// sending when no URL is configured or when an identical event was sent in
// the last five minutes. Non-2xx responses are logged, not returned.
func (w *WebhookSender) Send(ctx context.Context, evt *Event) error {
	if !w.Enabled() {
		return nil
	}

	w.mu.Lock()
	w.cleanupSeenLocked()
	k := evt.key()
	if _, ok := w.seen[k]; ok {
		w.mu.Unlock()
		w.log.Debug("webhook skipping duplicate event", "kind", evt.Kind, "path", evt.Path)
		return nil
	}
	w.seen[k] = time.Now()
	w.mu.Unlock()

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("webhook marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Error("webhook delivery failed", "error", err, "kind", evt.Kind)
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.log.Info("webhook delivered", "status", resp.StatusCode, "kind", evt.Kind)
	} else {
		w.log.Warn("webhook non-2xx response", "status", resp.StatusCode, "kind", evt.Kind)
	}

	return nil
}

// cleanupSeenLocked removes stale entries from the seen map. The caller MUST
// hold w.mu.
func (w *WebhookSender) cleanupSeenLocked() {
	cutoff := time.Now().Add(-seenTTL)
	for k, t := range w.seen {
		if t.Before(cutoff) {
			delete(w.seen, k)
		}
	}
}
