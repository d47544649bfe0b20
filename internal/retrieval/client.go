// Package retrieval talks to the external retrieval API: uploading
// new blob batches and composing search requests, with exponential
// backoff and transient/permanent error classification on both paths.
package retrieval

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const requestTimeout = 60 * time.Second

// Client is the shared HTTP collaborator for both the upload and
// search operations.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	retryBaseDelay time.Duration
}

// New builds a Client against baseURL, authenticating with token.
// retryBaseDelay is the floor for the exponential backoff between
// attempts; callers pass a longer floor for search than for upload.
func New(baseURL, token string, maxRetries int, retryBaseDelay time.Duration) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: requestTimeout},
		baseURL:        baseURL,
		token:          token,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// transientHTTPError marks a condition the retry loop should retry:
// timeouts, connection errors, and HTTP 5xx responses.
type transientHTTPError struct {
	cause error
}

func (e *transientHTTPError) Error() string { return e.cause.Error() }
func (e *transientHTTPError) Unwrap() error { return e.cause }

// withRetry runs attempt up to client.maxRetries times, sleeping
// retryBaseDelay*2^(n-1) between attempts, stopping immediately on any
// error that is not a *transientHTTPError, and honoring ctx
// cancellation during the sleep.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, attempt func() error) error {
	var lastErr error
	for n := 1; n <= maxRetries; n++ {
		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		var transient *transientHTTPError
		if !errors.As(err, &transient) {
			return err
		}
		if n == maxRetries {
			break
		}

		delay := baseDelay * time.Duration(1<<uint(n-1))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func isTransientStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600
}
