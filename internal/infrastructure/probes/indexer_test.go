package probes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/socprobe/internal/domain"
)

const openSearchInfo = `{
  "name": "wazuh-indexer-1",
  "cluster_name": "wazuh-cluster",
  "cluster_uuid": "x1",
  "version": {"distribution": "opensearch", "number": "2.10.0"},
  "tagline": "The OpenSearch Project: https://opensearch.org/"
}`

type indexerFixture struct {
	info         string
	infoStatus   int
	health       string
	failuresLeft int32
	calls        int32
}

func (f *indexerFixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		if user, pass, hasAuth := r.BasicAuth(); !hasAuth || user != "admin" || pass != "admin" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/":
			if atomic.AddInt32(&f.failuresLeft, -1) >= 0 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, f.infoStatus, f.info)
		case "/_cluster/health":
			writeJSON(w, http.StatusOK, f.health)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIndexerProbe(t *testing.T, url string) *IndexerProbe {
	t.Helper()
	client, err := NewIndexerClient(
		domain.Endpoint{URL: url, Username: "admin", Password: "admin"},
		domain.HTTPSettings{Timeout: 2 * time.Second, InsecureSkipVerify: true},
		domain.RetrySettings{MaxRetries: 3, InitialBackoff: time.Millisecond, StatusCodes: domain.DefaultRetryStatusCodes()},
	)
	require.NoError(t, err)
	return &IndexerProbe{Client: client, MaxResponseTime: 5 * time.Second}
}

func TestIndexerProbe(t *testing.T) {
	tests := []struct {
		name       string
		fixture    indexerFixture
		wantOK     bool
		wantHealth domain.HealthStatus
		wantInfo   domain.HealthStatus
	}{
		{
			name: "green opensearch cluster",
			fixture: indexerFixture{
				info: openSearchInfo, infoStatus: http.StatusOK,
				health: `{"cluster_name":"wazuh-cluster","status":"green","number_of_nodes":1,"active_primary_shards":5,"active_shards":5}`,
			},
			wantOK:     true,
			wantHealth: domain.HealthOK,
			wantInfo:   domain.HealthOK,
		},
		{
			name: "yellow cluster warns",
			fixture: indexerFixture{
				info: openSearchInfo, infoStatus: http.StatusOK,
				health: `{"cluster_name":"wazuh-cluster","status":"yellow","number_of_nodes":1}`,
			},
			wantOK:     true,
			wantHealth: domain.HealthWarn,
			wantInfo:   domain.HealthOK,
		},
		{
			name: "red cluster is an error finding",
			fixture: indexerFixture{
				info: openSearchInfo, infoStatus: http.StatusOK,
				health: `{"cluster_name":"wazuh-cluster","status":"red","number_of_nodes":0}`,
			},
			wantOK:     true,
			wantHealth: domain.HealthError,
			wantInfo:   domain.HealthOK,
		},
		{
			name: "info missing required fields",
			fixture: indexerFixture{
				info: `{"name":"node"}`, infoStatus: http.StatusOK,
				health: `{"cluster_name":"c","status":"green"}`,
			},
			wantOK:     true,
			wantHealth: domain.HealthError,
			wantInfo:   domain.HealthError,
		},
		{
			name:    "non-200 root is unhealthy",
			fixture: indexerFixture{info: `{}`, infoStatus: http.StatusForbidden},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := tt.fixture
			srv := fixture.server(t)

			obs, err := newTestIndexerProbe(t, srv.URL).Probe(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, obs.OK)
			if !tt.wantOK {
				assert.Equal(t, "HTTP 403", obs.Detail)
				return
			}
			assert.Equal(t, tt.wantInfo, findCheck(t, obs.Checks, "Node info").Status)
			assert.Equal(t, tt.wantHealth, findCheck(t, obs.Checks, "Cluster health").Status)
		})
	}
}

func TestIndexerProbe_ReportsDistribution(t *testing.T) {
	fixture := &indexerFixture{
		info: openSearchInfo, infoStatus: http.StatusOK,
		health: `{"cluster_name":"wazuh-cluster","status":"green","number_of_nodes":1}`,
	}
	srv := fixture.server(t)

	obs, err := newTestIndexerProbe(t, srv.URL).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.HealthOK, findCheck(t, obs.Checks, "Distribution").Status)
	assert.Contains(t, findCheck(t, obs.Checks, "Node info").Details, "2.10.0")
}

func TestIndexerProbe_RetriesUnavailable(t *testing.T) {
	fixture := &indexerFixture{
		info: openSearchInfo, infoStatus: http.StatusOK,
		health:       `{"cluster_name":"wazuh-cluster","status":"green","number_of_nodes":1}`,
		failuresLeft: 2,
	}
	srv := fixture.server(t)

	obs, err := newTestIndexerProbe(t, srv.URL).Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, obs.OK)
	assert.Equal(t, int32(4), atomic.LoadInt32(&fixture.calls), "two retried info calls, one info, one health")
}
