package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/socprobe/internal/domain"
)

type captureLogger struct {
	warns []string
}

func (l *captureLogger) Debug(string, map[string]interface{})        {}
func (l *captureLogger) Info(string, map[string]interface{})         {}
func (l *captureLogger) Error(string, error, map[string]interface{}) {}
func (l *captureLogger) Warn(msg string, _ map[string]interface{}) {
	l.warns = append(l.warns, msg)
}

// isolate moves the test into an empty directory with an empty home so no
// real config or .env file leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv(envConfigPath, "")
	t.Setenv(envFileOverride, "")
	for _, legacy := range legacyEnv {
		t.Setenv(legacy, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaults(t *testing.T) {
	cfg, err := Defaults()
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:443", cfg.Endpoints.Dashboard.URL)
	assert.Equal(t, "https://localhost:55000", cfg.Endpoints.Manager.URL)
	assert.Equal(t, "https://localhost:9200", cfg.Endpoints.Indexer.URL)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.HTTP.InsecureSkipVerify)
	assert.Equal(t, domain.DefaultMaxResponseTime, cfg.HTTP.MaxResponseTime)
	assert.Equal(t, domain.DefaultMaxRetries, cfg.Retry.MaxRetries)
	assert.Equal(t, domain.DefaultInitialBackoff, cfg.Retry.InitialBackoff)
	assert.Equal(t, domain.DefaultRetryStatusCodes(), cfg.Retry.StatusCodes)
	assert.Equal(t, domain.DefaultProbeTimeout, cfg.Probes.Timeout)
	assert.Equal(t, domain.TLSModeScheme, cfg.TLS.Mode)
	assert.Equal(t, domain.DefaultBrowserTimeout, cfg.Browser.Timeout)
	assert.Equal(t, domain.DefaultMinPageSize, cfg.Browser.MinPageSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_NoFilesUsesDefaultsAndWarns(t *testing.T) {
	isolate(t)
	logger := &captureLogger{}

	cfg, err := NewFileLoader("", logger).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:443", cfg.Endpoints.Dashboard.URL)
	assert.Len(t, logger.warns, 1)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
endpoints:
  dashboard:
    url: https://file-dashboard:5601
  manager:
    url: https://file-manager:55000
    username: wazuh
probes:
  strict: true
`)
	t.Setenv("WAZUH_MANAGER_API_URL", "https://legacy-manager:55000")
	t.Setenv("WAZUH_INDEXER_URL", "https://legacy-indexer:9200")
	t.Setenv("SOCPROBE_ENDPOINTS_INDEXER_URL", "https://prefixed-indexer:9200")
	t.Setenv("SOCPROBE_HTTP_TIMEOUT", "3s")

	loader := NewFileLoader(path, nil)
	loader.Override("tls.mode", domain.TLSModeVerify)

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://file-dashboard:5601", cfg.Endpoints.Dashboard.URL, "file beats defaults")
	assert.Equal(t, "https://legacy-manager:55000", cfg.Endpoints.Manager.URL, "env beats file")
	assert.Equal(t, "wazuh", cfg.Endpoints.Manager.Username)
	assert.Equal(t, "https://prefixed-indexer:9200", cfg.Endpoints.Indexer.URL, "prefixed env beats legacy env")
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Probes.Strict)
	assert.Equal(t, domain.TLSModeVerify, cfg.TLS.Mode, "override beats everything")
}

func TestLoad_SeleniumAliases(t *testing.T) {
	isolate(t)
	t.Setenv("SELENIUM_TIMEOUT", "45")
	t.Setenv("SELENIUM_HEADLESS", "false")

	cfg, err := NewFileLoader("", nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.False(t, cfg.Browser.Headless)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "WAZUH_DASHBOARD_URL=https://dotenv-dashboard\nWAZUH_INDEXER_PASSWORD=from-dotenv\n")
	t.Setenv("WAZUH_INDEXER_PASSWORD", "from-env")
	os.Unsetenv("WAZUH_DASHBOARD_URL")
	t.Cleanup(func() { os.Unsetenv("WAZUH_DASHBOARD_URL") })

	logger := &captureLogger{}
	cfg, err := NewFileLoader("", logger).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://dotenv-dashboard", cfg.Endpoints.Dashboard.URL)
	assert.Equal(t, "from-env", cfg.Endpoints.Indexer.Password)
	assert.Empty(t, logger.warns)
}

func TestLoad_LocalFileDiscovery(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, localConfigName), "logging:\n  level: debug\n")

	loader := NewFileLoader("", nil)
	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	path, found, err := loader.Path()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, localConfigName, path)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	dir := isolate(t)

	_, err := NewFileLoader(filepath.Join(dir, "nope.yaml"), nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "endpoints: [unclosed\n")

	_, err := NewFileLoader(path, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	loader := NewFileLoader("", nil)

	path, found, err := loader.Path()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, filepath.Join(dir, "home", configDirName, configFileName), path)

	written, err := loader.WriteDefault(false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	info, err := os.Stat(written)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.SecureFilePermissions), info.Mode().Perm())

	_, err = loader.WriteDefault(false)
	assert.ErrorIs(t, err, ErrConfigExists)

	_, err = loader.WriteDefault(true)
	assert.NoError(t, err)
}
