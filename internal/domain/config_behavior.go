package domain

import (
	"net/url"
	"strings"
)

const redacted = "********"

// EndpointFor returns the endpoint probed for c.
// Transport security has no endpoint of its own.
func (c *Config) EndpointFor(component Component) (Endpoint, bool) {
	switch component {
	case ComponentDashboard:
		return c.Endpoints.Dashboard, true
	case ComponentManagerAPI:
		return c.Endpoints.Manager, true
	case ComponentIndexerAPI:
		return c.Endpoints.Indexer, true
	default:
		return Endpoint{}, false
	}
}

// NamedEndpoints returns the probed endpoints in declaration order.
func (c *Config) NamedEndpoints() []NamedEndpoint {
	var out []NamedEndpoint
	for _, component := range DeclaredComponents() {
		if ep, ok := c.EndpointFor(component); ok {
			out = append(out, NamedEndpoint{Component: component, Endpoint: ep})
		}
	}
	return out
}

// NamedEndpoint pairs an endpoint with the component it serves.
type NamedEndpoint struct {
	Component Component
	Endpoint  Endpoint
}

// HasCredentials reports whether basic-auth credentials are configured.
func (e Endpoint) HasCredentials() bool {
	return e.Username != "" && e.Password != ""
}

// Scheme returns the lowercased URL scheme, or "" if the URL does not parse.
func (e Endpoint) Scheme() string {
	parsed, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// Join appends path to the endpoint URL without doubling slashes.
func (e Endpoint) Join(path string) string {
	return strings.TrimRight(e.URL, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsStrict reports whether error findings fail a probe.
func (c *Config) IsStrict() bool {
	return c.Probes.Strict
}

// ShouldVerifyCertificates reports whether the transport-security probe
// performs real certificate-chain validation.
func (c *Config) ShouldVerifyCertificates() bool {
	return c.TLS.Mode == TLSModeVerify
}

// Redacted returns a copy safe to print: passwords are masked.
func (c Config) Redacted() Config {
	out := c
	out.Endpoints.Dashboard = redactEndpoint(c.Endpoints.Dashboard)
	out.Endpoints.Manager = redactEndpoint(c.Endpoints.Manager)
	out.Endpoints.Indexer = redactEndpoint(c.Endpoints.Indexer)
	if c.Retry.StatusCodes != nil {
		out.Retry.StatusCodes = append([]int(nil), c.Retry.StatusCodes...)
	}
	return out
}

func redactEndpoint(e Endpoint) Endpoint {
	if e.Password != "" {
		e.Password = redacted
	}
	return e
}
