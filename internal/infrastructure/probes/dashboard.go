package probes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const dashboardStatusPath = "/api/status"

// DashboardProbe fetches the dashboard landing page over HTTP.
// The component is healthy when the page answers 200.
type DashboardProbe struct {
	Client          HTTPDoer
	Endpoint        domain.Endpoint
	MaxResponseTime time.Duration
	MinPageSize     int
}

// Component implements ports.Probe.
func (p *DashboardProbe) Component() domain.Component {
	return domain.ComponentDashboard
}

// Probe implements ports.Probe.
func (p *DashboardProbe) Probe(ctx context.Context) (domain.Observation, error) {
	resp, err := get(ctx, p.Client, p.Endpoint.URL, p.Endpoint, false)
	if err != nil {
		return domain.Observation{}, err
	}

	obs := domain.Observation{StatusCode: resp.StatusCode}
	if check, enabled := responseTimeCheck(resp.Latency, p.MaxResponseTime); enabled {
		obs.Checks = append(obs.Checks, check)
	}
	if resp.StatusCode != http.StatusOK {
		obs.Detail = httpStatusDetail(resp.StatusCode)
		return obs, nil
	}

	obs.OK = true
	obs.Detail = fmt.Sprintf("accessible (%s)", httpStatusDetail(resp.StatusCode))
	obs.Checks = append(obs.Checks, inspectPage(string(resp.Body), p.MinPageSize)...)
	obs.Checks = append(obs.Checks, p.statusAPICheck(ctx))
	return obs, nil
}

// statusAPICheck accepts 200, or 401/403 when the API wants a session.
func (p *DashboardProbe) statusAPICheck(ctx context.Context) domain.HealthCheck {
	const name = "Status API"
	resp, err := get(ctx, p.Client, p.Endpoint.Join(dashboardStatusPath), p.Endpoint, true)
	if err != nil {
		return fail(name, err.Error())
	}
	switch resp.StatusCode {
	case http.StatusOK:
		if !resp.isJSON() {
			return warn(name, fmt.Sprintf("unexpected content type %q", resp.ContentType))
		}
		if _, err := resp.decodeObject(); err != nil {
			return warn(name, err.Error())
		}
		return ok(name, "reachable")
	case http.StatusUnauthorized, http.StatusForbidden:
		return ok(name, fmt.Sprintf("requires authentication (%s)", httpStatusDetail(resp.StatusCode)))
	default:
		return fail(name, fmt.Sprintf("unexpected %s", httpStatusDetail(resp.StatusCode)))
	}
}

var _ ports.Probe = (*DashboardProbe)(nil)
