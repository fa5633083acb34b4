package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const maxDrainBytes = 64 << 10

// RetryTransport retries transport errors and configured status codes with
// exponential backoff. The policy comes entirely from domain.RetrySettings.
// When attempts run out the last response is returned as is.
type RetryTransport struct {
	Base     http.RoundTripper
	Settings domain.RetrySettings
	Logger   ports.Logger
}

type retryableStatusError struct {
	statusCode int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.statusCode)
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Settings.MaxRetries <= 0 || (req.Body != nil && req.Body != http.NoBody && req.GetBody == nil) {
		return base.RoundTrip(req)
	}

	var (
		resp    *http.Response
		attempt int
	)
	operation := func() error {
		attempt++
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return backoff.Permanent(err)
		}

		res, err := base.RoundTrip(attemptReq)
		if err != nil {
			if req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if attempt <= t.Settings.MaxRetries && t.retryable(res.StatusCode) {
			drainAndClose(res.Body)
			return &retryableStatusError{statusCode: res.StatusCode}
		}
		resp = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(t.newBackOff(), uint64(t.Settings.MaxRetries)),
		req.Context(),
	)
	notify := func(err error, wait time.Duration) {
		if t.Logger != nil {
			t.Logger.Debug("retrying request", map[string]interface{}{
				"method":  req.Method,
				"url":     req.URL.Redacted(),
				"attempt": attempt,
				"wait_ms": wait.Milliseconds(),
				"reason":  err.Error(),
			})
		}
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *RetryTransport) newBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(t.Settings.InitialBackoff),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
}

func (t *RetryTransport) retryable(statusCode int) bool {
	for _, code := range t.Settings.StatusCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
