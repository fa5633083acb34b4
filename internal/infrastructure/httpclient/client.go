// Package httpclient builds the HTTP client shared by every probe.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const (
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 10

	// DefaultIdleConnTimeout is the default idle connection timeout
	DefaultIdleConnTimeout = 30 * time.Second

	// DefaultExpectContinueTimeout is the default expect continue timeout
	DefaultExpectContinueTimeout = 1 * time.Second

	// DefaultUserAgent identifies probe traffic in server logs
	DefaultUserAgent = "socprobe"
)

// Options configures the shared client.
type Options struct {
	HTTP   domain.HTTPSettings
	Retry  domain.RetrySettings
	Logger ports.Logger
}

// NewTransport builds a plain transport. http.timeout bounds each attempt's
// dial, TLS handshake and wait for response headers; the probe timeout bounds
// the whole exchange.
func NewTransport(settings domain.HTTPSettings) *http.Transport {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultHTTPTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          DefaultMaxIdleConns,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: DefaultExpectContinueTimeout,
		TLSHandshakeTimeout:   timeout,
		ForceAttemptHTTP2:     true,
	}
	if settings.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	return transport
}

// New creates the shared client: a plain transport wrapped by the retry
// policy.
func New(opts Options) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			base: &RetryTransport{
				Base:     NewTransport(opts.HTTP),
				Settings: opts.Retry,
				Logger:   opts.Logger,
			},
		},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", DefaultUserAgent)
	return t.base.RoundTrip(clone)
}
