package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/socprobe/internal/domain"
)

func fastRetry(maxRetries int) domain.RetrySettings {
	return domain.RetrySettings{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		StatusCodes:    domain.DefaultRetryStatusCodes(),
	}
}

// flakyServer fails the first n requests with status, then answers 200.
func flakyServer(t *testing.T, n int32, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= n {
			w.WriteHeader(status)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(append([]byte("ok:"), body...))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRetryTransport(t *testing.T) {
	tests := []struct {
		name       string
		failures   int32
		status     int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{name: "success needs no retry", failures: 0, status: 503, maxRetries: 3, wantStatus: 200, wantCalls: 1},
		{name: "recovers after retryable statuses", failures: 2, status: 503, maxRetries: 3, wantStatus: 200, wantCalls: 3},
		{name: "exhausted retries return last response", failures: 10, status: 502, maxRetries: 3, wantStatus: 502, wantCalls: 4},
		{name: "non-retryable status is returned immediately", failures: 10, status: 404, maxRetries: 3, wantStatus: 404, wantCalls: 1},
		{name: "retries disabled", failures: 10, status: 503, maxRetries: 0, wantStatus: 503, wantCalls: 1},
		{name: "rate limit is retried", failures: 1, status: 429, maxRetries: 3, wantStatus: 200, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := flakyServer(t, tt.failures, tt.status)
			client := &http.Client{Transport: &RetryTransport{Settings: fastRetry(tt.maxRetries)}}

			resp, err := client.Get(srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestRetryTransport_ReplaysBody(t *testing.T) {
	srv, calls := flakyServer(t, 1, 500)
	client := &http.Client{Transport: &RetryTransport{Settings: fastRetry(2)}}

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok:payload", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestRetryTransport_TransportErrorsAreRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := &http.Client{Transport: &RetryTransport{Settings: fastRetry(2)}}
	_, err := client.Get(url)
	assert.Error(t, err)
}

func TestRetryTransport_StopsOnCancel(t *testing.T) {
	srv, calls := flakyServer(t, 100, 503)
	settings := fastRetry(5)
	settings.InitialBackoff = time.Hour
	client := &http.Client{Transport: &RetryTransport{Settings: settings}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Do(req)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestNew_SetsUserAgentAndSkipsVerify(t *testing.T) {
	var agent atomic.Value
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	client := New(Options{
		HTTP:  domain.HTTPSettings{Timeout: time.Second, InsecureSkipVerify: true},
		Retry: fastRetry(1),
	})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultUserAgent, agent.Load())

	strict := New(Options{HTTP: domain.HTTPSettings{Timeout: time.Second}})
	_, err = strict.Get(srv.URL)
	assert.Error(t, err, "self-signed certificate must be rejected when verification is on")
}
