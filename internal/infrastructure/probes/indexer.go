package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/infrastructure/httpclient"
	"github.com/doeshing/socprobe/internal/ports"
)

type indexerInfo struct {
	Name        string          `json:"name" validate:"required"`
	ClusterName string          `json:"cluster_name" validate:"required"`
	Version     *indexerVersion `json:"version" validate:"required"`
	Tagline     string          `json:"tagline"`
}

type indexerVersion struct {
	Number       string `json:"number"`
	Distribution string `json:"distribution"`
}

type clusterHealth struct {
	ClusterName         string `json:"cluster_name" validate:"required"`
	Status              string `json:"status" validate:"required,oneof=green yellow red"`
	NumberOfNodes       *int   `json:"number_of_nodes" validate:"required"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
}

// NewIndexerClient builds a search client for the indexer endpoint. Retries
// are the client's own, driven by the configured retry settings.
func NewIndexerClient(ep domain.Endpoint, settings domain.HTTPSettings, retry domain.RetrySettings) (*elasticsearch.Client, error) {
	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(retry.InitialBackoff),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)

	cfg := elasticsearch.Config{
		Addresses:     []string{ep.URL},
		Username:      ep.Username,
		Password:      ep.Password,
		Transport:     httpclient.NewTransport(settings),
		RetryOnStatus: retry.StatusCodes,
		MaxRetries:    retry.MaxRetries,
		DisableRetry:  retry.MaxRetries <= 0,
		RetryBackoff: func(attempt int) time.Duration {
			if attempt == 1 {
				policy.Reset()
			}
			return policy.NextBackOff()
		},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create indexer client: %w", err)
	}
	return client, nil
}

// IndexerProbe checks the indexer root endpoint and cluster health.
type IndexerProbe struct {
	Client          *elasticsearch.Client
	MaxResponseTime time.Duration
}

// Component implements ports.Probe.
func (p *IndexerProbe) Component() domain.Component {
	return domain.ComponentIndexerAPI
}

// Probe implements ports.Probe.
// Requests go through the raw transport so OpenSearch, which fails the
// Elasticsearch product check, is accepted.
func (p *IndexerProbe) Probe(ctx context.Context) (domain.Observation, error) {
	start := time.Now()
	res, err := esapi.InfoRequest{}.Do(ctx, p.Client.Transport)
	if err != nil {
		return domain.Observation{}, err
	}
	resp, err := readESResponse(res, time.Since(start))
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
	obs.Detail = fmt.Sprintf("healthy (%s)", httpStatusDetail(resp.StatusCode))
	obs.Checks = append(obs.Checks, jsonContentCheck(resp))
	obs.Checks = append(obs.Checks, infoChecks(resp)...)
	obs.Checks = append(obs.Checks, p.clusterHealthCheck(ctx))
	return obs, nil
}

func infoChecks(resp response) []domain.HealthCheck {
	var info indexerInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return []domain.HealthCheck{fail("Node info", fmt.Sprintf("response is not a JSON object: %v", err))}
	}
	if err := shapes.Struct(info); err != nil {
		return []domain.HealthCheck{fail("Node info", describeShapeError(err))}
	}

	checks := []domain.HealthCheck{
		ok("Node info", fmt.Sprintf("%s in cluster %s, version %s", info.Name, info.ClusterName, info.Version.Number)),
	}
	tagline := strings.ToLower(info.Tagline)
	switch {
	case info.Tagline == "":
	case strings.Contains(tagline, "opensearch"), strings.Contains(tagline, "elasticsearch"):
		checks = append(checks, ok("Distribution", info.Tagline))
	default:
		checks = append(checks, warn("Distribution", fmt.Sprintf("unrecognised tagline %q", info.Tagline)))
	}
	return checks
}

func (p *IndexerProbe) clusterHealthCheck(ctx context.Context) domain.HealthCheck {
	const name = "Cluster health"
	start := time.Now()
	res, err := esapi.ClusterHealthRequest{}.Do(ctx, p.Client.Transport)
	if err != nil {
		return fail(name, err.Error())
	}
	resp, err := readESResponse(res, time.Since(start))
	if err != nil {
		return fail(name, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return fail(name, fmt.Sprintf("unexpected %s", httpStatusDetail(resp.StatusCode)))
	}

	var health clusterHealth
	if err := json.Unmarshal(resp.Body, &health); err != nil {
		return fail(name, fmt.Sprintf("response is not a JSON object: %v", err))
	}
	if err := shapes.Struct(health); err != nil {
		return fail(name, describeShapeError(err))
	}

	details := fmt.Sprintf("%s, %d nodes, %d active shards", health.Status, *health.NumberOfNodes, health.ActiveShards)
	switch health.Status {
	case "green":
		return ok(name, details)
	case "yellow":
		return warn(name, details)
	default:
		return fail(name, details)
	}
}

func readESResponse(res *esapi.Response, latency time.Duration) (response, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	return response{
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
		Latency:     latency,
	}, nil
}

var _ ports.Probe = (*IndexerProbe)(nil)
