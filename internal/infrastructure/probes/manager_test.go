package probes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/socprobe/internal/domain"
)

var managerNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "wazuh",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("manager-secret"))
	require.NoError(t, err)
	return token
}

type managerFixture struct {
	token        string
	rootStatus   int
	rootBody     string
	rootType     string
	versionCode  int
	authStatus   int
	sawBearer    atomic.Bool
	sawBasicAuth atomic.Bool
}

func (f *managerFixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/security/user/authenticate":
			user, pass, hasAuth := r.BasicAuth()
			f.sawBasicAuth.Store(hasAuth && user == "wazuh" && pass == "secret")
			if f.authStatus != http.StatusOK || r.Method != http.MethodPost {
				w.WriteHeader(f.authStatus)
				return
			}
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"data":{"token":%q},"error":0}`, f.token))
		case "/":
			if r.Header.Get("Authorization") == "Bearer "+f.token && f.token != "" {
				f.sawBearer.Store(true)
			}
			w.Header().Set("Content-Type", f.rootType)
			w.WriteHeader(f.rootStatus)
			_, _ = w.Write([]byte(f.rootBody))
		case "/version":
			if f.versionCode == http.StatusOK {
				writeJSON(w, http.StatusOK, `{"data":{"api_version":"4.7.2"}}`)
				return
			}
			w.WriteHeader(f.versionCode)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestManagerProbe_Authenticated(t *testing.T) {
	fixture := &managerFixture{
		token:       signedToken(t, managerNow.Add(15*time.Minute)),
		authStatus:  http.StatusOK,
		rootStatus:  http.StatusOK,
		rootType:    "application/json",
		rootBody:    `{"data":{"title":"Wazuh API REST","api_version":"4.7.2"},"error":0}`,
		versionCode: http.StatusOK,
	}
	srv := fixture.server(t)

	probe := &ManagerProbe{
		Client:   srv.Client(),
		Endpoint: domain.Endpoint{URL: srv.URL, Username: "wazuh", Password: "secret"},
		Now:      func() time.Time { return managerNow },
	}
	obs, err := probe.Probe(context.Background())
	require.NoError(t, err)

	assert.True(t, obs.OK)
	assert.Equal(t, http.StatusOK, obs.StatusCode)
	assert.True(t, fixture.sawBasicAuth.Load())
	assert.True(t, fixture.sawBearer.Load())

	auth := findCheck(t, obs.Checks, "Authentication")
	assert.Equal(t, domain.HealthOK, auth.Status)
	assert.Equal(t, "token valid for 15m0s", auth.Details)
	assert.Equal(t, "Wazuh API REST", findCheck(t, obs.Checks, "API title").Details)
	assert.Equal(t, domain.HealthOK, findCheck(t, obs.Checks, "Content type").Status)
	assert.Equal(t, "4.7.2", findCheck(t, obs.Checks, "Version endpoint").Details)
}

func TestManagerProbe_Anonymous(t *testing.T) {
	fixture := &managerFixture{
		rootStatus:  http.StatusOK,
		rootType:    "application/json",
		rootBody:    `{"title":"Wazuh API","api_version":"4.3.0"}`,
		versionCode: http.StatusNotFound,
	}
	srv := fixture.server(t)

	probe := &ManagerProbe{Client: srv.Client(), Endpoint: domain.Endpoint{URL: srv.URL}}
	obs, err := probe.Probe(context.Background())
	require.NoError(t, err)

	assert.True(t, obs.OK)
	assert.False(t, hasCheck(obs.Checks, "Authentication"))
	assert.Equal(t, "Wazuh API", findCheck(t, obs.Checks, "API title").Details)
	assert.Equal(t, domain.HealthOK, findCheck(t, obs.Checks, "Version endpoint").Status)
}

func TestManagerProbe_Failures(t *testing.T) {
	t.Run("unauthorized root is unhealthy", func(t *testing.T) {
		fixture := &managerFixture{authStatus: http.StatusUnauthorized, rootStatus: http.StatusUnauthorized}
		srv := fixture.server(t)
		probe := &ManagerProbe{
			Client:   srv.Client(),
			Endpoint: domain.Endpoint{URL: srv.URL, Username: "wazuh", Password: "wrong"},
		}

		obs, err := probe.Probe(context.Background())
		require.NoError(t, err)
		assert.False(t, obs.OK)
		assert.Equal(t, "HTTP 401", obs.Detail)
		assert.Equal(t, domain.HealthError, findCheck(t, obs.Checks, "Authentication").Status)
	})

	t.Run("html root keeps component healthy with error findings", func(t *testing.T) {
		fixture := &managerFixture{rootStatus: http.StatusOK, rootType: "text/html", rootBody: "<html></html>", versionCode: http.StatusNotFound}
		srv := fixture.server(t)
		probe := &ManagerProbe{Client: srv.Client(), Endpoint: domain.Endpoint{URL: srv.URL}}

		obs, err := probe.Probe(context.Background())
		require.NoError(t, err)
		assert.True(t, obs.OK)
		assert.Equal(t, domain.HealthError, findCheck(t, obs.Checks, "Content type").Status)
		assert.Equal(t, domain.HealthError, findCheck(t, obs.Checks, "API title").Status)
	})

	t.Run("expired token is a warning", func(t *testing.T) {
		fixture := &managerFixture{
			token:       signedToken(t, managerNow.Add(-time.Minute)),
			authStatus:  http.StatusOK,
			rootStatus:  http.StatusOK,
			rootType:    "application/json",
			rootBody:    `{"data":{"title":"Wazuh API REST"}}`,
			versionCode: http.StatusNotFound,
		}
		srv := fixture.server(t)
		probe := &ManagerProbe{
			Client:   srv.Client(),
			Endpoint: domain.Endpoint{URL: srv.URL, Username: "wazuh", Password: "secret"},
			Now:      func() time.Time { return managerNow },
		}

		obs, err := probe.Probe(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.HealthWarn, findCheck(t, obs.Checks, "Authentication").Status)
	})
}

func TestTokenExpiry(t *testing.T) {
	expiry, err := tokenExpiry(signedToken(t, managerNow))
	require.NoError(t, err)
	assert.True(t, expiry.Equal(managerNow))

	_, err = tokenExpiry("not-a-jwt")
	assert.Error(t, err)
}
