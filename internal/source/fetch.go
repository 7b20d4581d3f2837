package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "raspbot/internal/log"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond

	// maxBodyBytes caps how much of the page we are willing to read.
	maxBodyBytes = 2 << 20
)

// Client fetches and extracts the timetable page over HTTP. Transient
// server errors (5xx) and network errors are retried with exponential
// backoff up to the attempt budget; everything past that budget is
// reported as ErrUnavailable and left to the engine's cache fallback.
type Client struct {
	http     *http.Client
	url      string
	attempts int
	backoff  time.Duration
}

// NewClient creates a Client for the given timetable page URL.
func NewClient(url string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		url:      url,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Fetch retrieves the page and extracts a Snapshot.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := Extract(body)
	if err != nil {
		appLog.Error("source extract failed", err, "url", c.url)
		return nil, err
	}
	snap.FetchedAt = time.Now()

	appLog.Debug("source fetch ok",
		"url", c.url,
		"rows", len(snap.Rows),
		"markers", len(snap.Markers),
		"has_table", snap.HasTable,
	)
	return snap, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			// Exponential backoff: 0.5s, 1s, ...
			delay := c.backoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.getOnce(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		appLog.Debug("source fetch retrying", "attempt", attempt, "err", err)
	}

	appLog.Error("source fetch failed", lastErr, "url", c.url, "attempts", c.attempts)
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// getOnce performs a single request. The second return value reports
// whether the failure is worth retrying.
func (c *Client) getOnce(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network error or timeout; transient by assumption.
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, true, readErr
		}
		return body, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: %s", resp.Status)
	default:
		// 4xx and friends are not transient; do not burn retries.
		return nil, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}
