package probes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doeshing/socprobe/internal/domain"
)

func findCheck(t *testing.T, checks []domain.HealthCheck, name string) domain.HealthCheck {
	t.Helper()
	for _, check := range checks {
		if check.Name == name {
			return check
		}
	}
	require.Failf(t, "check not found", "no check named %q in %+v", name, checks)
	return domain.HealthCheck{}
}

func hasCheck(checks []domain.HealthCheck, name string) bool {
	for _, check := range checks {
		if check.Name == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
