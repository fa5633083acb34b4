package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/doeshing/socprobe/assets"
	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/pkg/filesystem"
	"github.com/doeshing/socprobe/internal/ports"
)

const (
	envPrefix        = "SOCPROBE"
	envConfigPath    = "SOCPROBE_CONFIG"
	envFileOverride  = "ENV_FILE"
	localConfigName  = "socprobe.yaml"
	configDirName    = ".socprobe"
	configFileName   = "config.yaml"
	defaultEnvFile   = ".env"
	localEnvFile     = ".env.local"
	configFileFormat = "yaml"
)

// ErrConfigExists is returned by WriteDefault when the target file exists.
var ErrConfigExists = errors.New("config file already exists")

// legacyEnv maps config keys to the WAZUH_* and SELENIUM_* variables used
// by existing deployments. SOCPROBE_* names always win.
var legacyEnv = map[string]string{
	"endpoints.dashboard.url":      "WAZUH_DASHBOARD_URL",
	"endpoints.dashboard.username": "WAZUH_DASHBOARD_USERNAME",
	"endpoints.dashboard.password": "WAZUH_DASHBOARD_PASSWORD",
	"endpoints.manager.url":        "WAZUH_MANAGER_API_URL",
	"endpoints.manager.username":   "WAZUH_MANAGER_USERNAME",
	"endpoints.manager.password":   "WAZUH_MANAGER_PASSWORD",
	"endpoints.indexer.url":        "WAZUH_INDEXER_URL",
	"endpoints.indexer.username":   "WAZUH_INDEXER_USERNAME",
	"endpoints.indexer.password":   "WAZUH_INDEXER_PASSWORD",
	"browser.headless":             "SELENIUM_HEADLESS",
	"browser.timeout":              "SELENIUM_TIMEOUT",
}

// durationKeys accept a bare number of seconds as well as a Go duration.
var durationKeys = []string{
	"http.timeout",
	"http.max_response_time",
	"retry.initial_backoff",
	"probes.timeout",
	"browser.timeout",
}

// FileLoader merges embedded defaults, an optional YAML file, .env files and
// the environment into a domain.Config.
type FileLoader struct {
	overridePath string
	overrides    map[string]interface{}
	logger       ports.Logger
}

// NewFileLoader builds a new loader. path may be empty.
func NewFileLoader(path string, logger ports.Logger) *FileLoader {
	return &FileLoader{
		overridePath: path,
		overrides:    map[string]interface{}{},
		logger:       logger,
	}
}

// Override sets a value with the highest precedence, used for CLI flags.
func (l *FileLoader) Override(key string, value interface{}) {
	l.overrides[key] = value
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	if err := l.loadEnvFiles(); err != nil {
		return domain.Config{}, err
	}

	v, err := newDefaultsViper()
	if err != nil {
		return domain.Config{}, err
	}

	path, found, err := l.resolvePath()
	if err != nil {
		return domain.Config{}, err
	}
	if found {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		l.debug("config file merged", map[string]interface{}{"path": path})
	}

	if err := bindEnvironment(v); err != nil {
		return domain.Config{}, err
	}
	for key, value := range l.overrides {
		v.Set(key, value)
	}
	normalizeDurations(v)

	return decode(v)
}

// Path returns the config file Load would read and whether it exists.
// When none exists it returns the per-user location.
func (l *FileLoader) Path() (string, bool, error) {
	path, found, err := l.resolvePath()
	if err != nil || found {
		return path, found, err
	}
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath), false, nil
	}
	if custom := os.Getenv(envConfigPath); custom != "" {
		return filesystem.ExpandPath(custom), false, nil
	}
	return userConfigPath(), false, nil
}

// WriteDefault writes the embedded default configuration to the resolved
// path. An existing file is only replaced when force is set.
func (l *FileLoader) WriteDefault(force bool) (string, error) {
	path, exists, err := l.Path()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if exists && !force {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return "", fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Defaults returns the embedded default configuration.
func Defaults() (domain.Config, error) {
	v, err := newDefaultsViper()
	if err != nil {
		return domain.Config{}, err
	}
	return decode(v)
}

func newDefaultsViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(configFileFormat)
	if err := v.ReadConfig(bytes.NewReader(assets.DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}
	return v, nil
}

func decode(v *viper.Viper) (domain.Config, error) {
	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func bindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		primary := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, legacy); err != nil {
			return fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}
	return nil
}

// normalizeDurations rewrites bare integers such as SELENIUM_TIMEOUT=30 into
// second-based durations.
func normalizeDurations(v *viper.Viper) {
	for _, key := range durationKeys {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			continue
		}
		if _, err := strconv.Atoi(raw); err == nil {
			v.Set(key, raw+"s")
		}
	}
}

// resolvePath picks the first existing candidate. An explicit path that does
// not exist is an error.
func (l *FileLoader) resolvePath() (string, bool, error) {
	if l.overridePath != "" {
		path := filesystem.ExpandPath(l.overridePath)
		if !fileExists(path) {
			return path, false, fmt.Errorf("config file %s: %w", path, fs.ErrNotExist)
		}
		return path, true, nil
	}
	if custom := os.Getenv(envConfigPath); custom != "" {
		path := filesystem.ExpandPath(custom)
		if !fileExists(path) {
			return path, false, fmt.Errorf("%s=%s: %w", envConfigPath, path, fs.ErrNotExist)
		}
		return path, true, nil
	}
	for _, candidate := range []string{localConfigName, userConfigPath()} {
		if fileExists(candidate) {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// loadEnvFiles loads .env files without overriding variables already set.
// ENV_FILE wins; otherwise .env.local then .env.
func (l *FileLoader) loadEnvFiles() error {
	if envFile := os.Getenv(envFileOverride); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(localEnvFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", localEnvFile, err)
	}

	if err := godotenv.Load(defaultEnvFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", defaultEnvFile, err)
		}
		if l.logger != nil {
			l.logger.Warn("no .env file found, using environment and config file only", nil)
		}
	}
	return nil
}

func (l *FileLoader) debug(msg string, fields map[string]interface{}) {
	if l.logger != nil {
		l.logger.Debug(msg, fields)
	}
}

func userConfigPath() string {
	return filepath.Join(filesystem.UserHomeDir(), configDirName, configFileName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
