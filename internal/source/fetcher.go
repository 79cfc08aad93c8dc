// Package source fetches the service's startup inputs. A source is either a
// local file path or an http(s) URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxBodyBytes bounds a single fetched input.
const maxBodyBytes = 256 << 20

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Fetcher reads raw input bytes. URL fetches that fail with a network error
// or a 5xx status are retried with exponential backoff.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	backoff    time.Duration
}

// NewFetcher creates a Fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		backoff: initialBackoff,
	}
}

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// IsURL reports whether src names an http(s) resource rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch returns the contents of src.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	start := time.Now()
	var (
		data []byte
		err  error
	)
	if IsURL(src) {
		data, err = f.fetchWithRetry(ctx, src)
	} else {
		data, err = f.readFile(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	f.logger.Debug("input fetched", "source", src, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func (f *Fetcher) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, u string) ([]byte, error) {
	backoff := f.backoff
	for attempt := 1; ; attempt++ {
		data, err := f.fetchURL(ctx, u)
		var retry *retryableError
		if err == nil || !errors.As(err, &retry) || attempt == maxAttempts || ctx.Err() != nil {
			return data, err
		}
		f.logger.Warn("input fetch failed, retrying", "source", u, "attempt", attempt, "backoff", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	return min(current*2, maxBackoff)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (f *Fetcher) fetchURL(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("fetch %s: %w", u, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("fetch %s: status %d: %s", u, resp.StatusCode, body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &retryableError{err}
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return data, nil
}
