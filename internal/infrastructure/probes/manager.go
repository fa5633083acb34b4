package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const (
	managerAuthPath    = "/security/user/authenticate"
	managerVersionPath = "/version"
)

// ManagerProbe checks the management API root. When credentials are
// configured it first obtains a session token.
type ManagerProbe struct {
	Client          HTTPDoer
	Endpoint        domain.Endpoint
	MaxResponseTime time.Duration
	Now             func() time.Time
}

type authResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Component implements ports.Probe.
func (p *ManagerProbe) Component() domain.Component {
	return domain.ComponentManagerAPI
}

// Probe implements ports.Probe.
func (p *ManagerProbe) Probe(ctx context.Context) (domain.Observation, error) {
	var (
		checks []domain.HealthCheck
		token  string
	)
	if p.Endpoint.HasCredentials() {
		var check domain.HealthCheck
		token, check = p.authenticate(ctx)
		checks = append(checks, check)
	}

	resp, err := p.get(ctx, p.Endpoint.Join("/"), token)
	if err != nil {
		return domain.Observation{Checks: checks}, err
	}

	obs := domain.Observation{StatusCode: resp.StatusCode, Checks: checks}
	if check, enabled := responseTimeCheck(resp.Latency, p.MaxResponseTime); enabled {
		obs.Checks = append(obs.Checks, check)
	}
	if resp.StatusCode != http.StatusOK {
		obs.Detail = httpStatusDetail(resp.StatusCode)
		return obs, nil
	}

	obs.OK = true
	obs.Detail = fmt.Sprintf("healthy (%s)", httpStatusDetail(resp.StatusCode))
	obs.Checks = append(obs.Checks, jsonContentCheck(resp), managerTitleCheck(resp))
	obs.Checks = append(obs.Checks, p.versionCheck(ctx, token))
	return obs, nil
}

func (p *ManagerProbe) get(ctx context.Context, url, token string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(p.Client, req)
}

func (p *ManagerProbe) authenticate(ctx context.Context) (string, domain.HealthCheck) {
	const name = "Authentication"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint.Join(managerAuthPath), http.NoBody)
	if err != nil {
		return "", fail(name, err.Error())
	}
	req.SetBasicAuth(p.Endpoint.Username, p.Endpoint.Password)

	resp, err := do(p.Client, req)
	if err != nil {
		return "", fail(name, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return "", fail(name, fmt.Sprintf("login rejected (%s)", httpStatusDetail(resp.StatusCode)))
	}

	var payload authResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Data.Token == "" {
		return "", fail(name, "response carries no token")
	}

	expiry, err := tokenExpiry(payload.Data.Token)
	if err != nil {
		return payload.Data.Token, warn(name, fmt.Sprintf("token issued but unreadable: %v", err))
	}
	if expiry.IsZero() {
		return payload.Data.Token, ok(name, "token issued without expiry")
	}
	remaining := expiry.Sub(p.now()).Round(time.Second)
	if remaining <= 0 {
		return payload.Data.Token, warn(name, fmt.Sprintf("token already expired at %s", expiry.Format(domain.TimestampFormat)))
	}
	return payload.Data.Token, ok(name, fmt.Sprintf("token valid for %s", remaining))
}

// tokenExpiry reads the exp claim without verifying the signature; the
// signing key belongs to the manager.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

func (p *ManagerProbe) versionCheck(ctx context.Context, token string) domain.HealthCheck {
	const name = "Version endpoint"
	resp, err := p.get(ctx, p.Endpoint.Join(managerVersionPath), token)
	if err != nil {
		return warn(name, err.Error())
	}
	switch resp.StatusCode {
	case http.StatusOK:
		data, err := resp.decodeObject()
		if err != nil {
			return warn(name, err.Error())
		}
		if version := stringField(data, "api_version", "version"); version != "" {
			return ok(name, version)
		}
		return ok(name, "reachable")
	case http.StatusNotFound:
		return ok(name, "not exposed by this version")
	default:
		return warn(name, fmt.Sprintf("unexpected %s", httpStatusDetail(resp.StatusCode)))
	}
}

func managerTitleCheck(resp response) domain.HealthCheck {
	const name = "API title"
	data, err := resp.decodeObject()
	if err != nil {
		return fail(name, err.Error())
	}
	if title := stringField(data, "title"); title != "" {
		return ok(name, title)
	}
	return fail(name, "title field missing")
}

func jsonContentCheck(resp response) domain.HealthCheck {
	const name = "Content type"
	if resp.isJSON() {
		return ok(name, "application/json")
	}
	return fail(name, fmt.Sprintf("expected JSON, got %q", resp.ContentType))
}

// stringField looks keys up at the top level, then under "data".
func stringField(data map[string]interface{}, keys ...string) string {
	for _, scope := range []map[string]interface{}{data, nested(data, "data")} {
		for _, key := range keys {
			if s, isString := scope[key].(string); isString && s != "" {
				return s
			}
		}
	}
	return ""
}

func nested(data map[string]interface{}, key string) map[string]interface{} {
	if inner, isMap := data[key].(map[string]interface{}); isMap {
		return inner
	}
	return nil
}

func (p *ManagerProbe) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

var _ ports.Probe = (*ManagerProbe)(nil)
