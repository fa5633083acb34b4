// Package probes implements the external checks behind each component.
package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/doeshing/socprobe/internal/domain"
)

// maxBodyBytes caps how much of a response a probe reads.
const maxBodyBytes = 4 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Latency     time.Duration
}

func (r response) isJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	return err == nil && mediaType == "application/json"
}

func (r response) decodeObject() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return out, nil
}

// get issues a GET with optional basic auth and reads a bounded body.
func get(ctx context.Context, client HTTPDoer, url string, ep domain.Endpoint, useAuth bool) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	if useAuth && ep.HasCredentials() {
		req.SetBasicAuth(ep.Username, ep.Password)
	}
	return do(client, req)
}

func do(client HTTPDoer, req *http.Request) (response, error) {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	return response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Latency:     time.Since(start),
	}, nil
}

func httpStatusDetail(code int) string {
	return fmt.Sprintf("HTTP %d", code)
}

// responseTimeCheck flags responses slower than limit. A zero limit disables it.
func responseTimeCheck(latency, limit time.Duration) (domain.HealthCheck, bool) {
	if limit <= 0 {
		return domain.HealthCheck{}, false
	}
	details := fmt.Sprintf("%.2fs (limit %s)", latency.Seconds(), limit)
	if latency >= limit {
		return warn("Response time", details), true
	}
	return ok("Response time", details), true
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
