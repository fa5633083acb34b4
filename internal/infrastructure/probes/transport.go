package probes

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

// certificateExpiryWarning is how close to expiry a certificate is flagged.
const certificateExpiryWarning = 14 * 24 * time.Hour

// TransportProbe checks that every endpoint is served over HTTPS. With
// VerifyCertificates it also completes a verified TLS handshake with each
// endpoint.
type TransportProbe struct {
	Endpoints          []domain.NamedEndpoint
	VerifyCertificates bool
	CAFile             string
	Timeout            time.Duration
	Now                func() time.Time
}

// Component implements ports.Probe.
func (p *TransportProbe) Component() domain.Component {
	return domain.ComponentTransportSecurity
}

// Probe implements ports.Probe.
func (p *TransportProbe) Probe(ctx context.Context) (domain.Observation, error) {
	var (
		checks []domain.HealthCheck
		issues []string
	)

	var roots *x509.CertPool
	if p.VerifyCertificates && p.CAFile != "" {
		pool, err := loadCertPool(p.CAFile)
		if err != nil {
			return domain.Observation{}, err
		}
		roots = pool
	}

	for _, named := range p.Endpoints {
		label := named.Component.DisplayName()
		if named.Endpoint.Scheme() != "https" {
			checks = append(checks, fail(label, "not using HTTPS"))
			issues = append(issues, label)
			continue
		}
		if !p.VerifyCertificates {
			checks = append(checks, ok(label, "HTTPS configured"))
			continue
		}

		check := p.verify(ctx, label, named.Endpoint, roots)
		checks = append(checks, check)
		if check.Status == domain.HealthError {
			issues = append(issues, label)
		}
	}

	if len(issues) > 0 {
		return domain.Observation{
			Checks: checks,
			Detail: fmt.Sprintf("issues found with: %s", strings.Join(issues, ", ")),
		}, nil
	}
	detail := "all endpoints use HTTPS"
	if p.VerifyCertificates {
		detail = "all endpoints present valid certificates"
	}
	return domain.Observation{OK: true, Checks: checks, Detail: detail}, nil
}

func (p *TransportProbe) verify(ctx context.Context, label string, ep domain.Endpoint, roots *x509.CertPool) domain.HealthCheck {
	parsed, err := url.Parse(ep.URL)
	if err != nil {
		return fail(label, err.Error())
	}
	host := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		port = "443"
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout()},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    roots,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fail(label, fmt.Sprintf("certificate verification failed: %v", err))
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return fail(label, "no peer certificate presented")
	}
	leaf := state.PeerCertificates[0]
	remaining := leaf.NotAfter.Sub(p.now())
	days := int(remaining.Hours() / 24)
	details := fmt.Sprintf("%s, certificate expires in %d days", tls.VersionName(state.Version), days)
	if remaining < certificateExpiryWarning {
		return warn(label, details)
	}
	return ok(label, details)
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA file %s contains no PEM certificates", path)
	}
	return pool, nil
}

func (p *TransportProbe) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return domain.DefaultHTTPTimeout
}

func (p *TransportProbe) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

var _ ports.Probe = (*TransportProbe)(nil)
