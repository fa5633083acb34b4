package domain

import "time"

// Config mirrors socprobe.yaml.
type Config struct {
	ConfigFormatVersion string           `yaml:"config_format_version" mapstructure:"config_format_version"`
	Endpoints           EndpointSettings `yaml:"endpoints" mapstructure:"endpoints"`
	HTTP                HTTPSettings     `yaml:"http" mapstructure:"http"`
	Retry               RetrySettings    `yaml:"retry" mapstructure:"retry"`
	Probes              ProbeSettings    `yaml:"probes" mapstructure:"probes"`
	TLS                 TLSSettings      `yaml:"tls" mapstructure:"tls"`
	Browser             BrowserSettings  `yaml:"browser" mapstructure:"browser"`
	Logging             LoggingSettings  `yaml:"logging" mapstructure:"logging"`
}

// EndpointSettings groups the three probed services.
type EndpointSettings struct {
	Dashboard Endpoint `yaml:"dashboard" mapstructure:"dashboard"`
	Manager   Endpoint `yaml:"manager" mapstructure:"manager"`
	Indexer   Endpoint `yaml:"indexer" mapstructure:"indexer"`
}

// Endpoint is a base URL plus optional basic-auth credentials.
type Endpoint struct {
	URL      string `yaml:"url" mapstructure:"url" validate:"required,url"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
}

// HTTPSettings configures the shared HTTP client.
type HTTPSettings struct {
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	MaxResponseTime    time.Duration `yaml:"max_response_time" mapstructure:"max_response_time" validate:"gte=0"`
}

// RetrySettings is handed to the HTTP client's retry policy unchanged.
type RetrySettings struct {
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	StatusCodes    []int         `yaml:"status_codes" mapstructure:"status_codes" validate:"dive,gte=100,lte=599"`
}

// ProbeSettings bounds each probe.
type ProbeSettings struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Strict  bool          `yaml:"strict" mapstructure:"strict"`
}

// TLS modes for the transport-security probe.
const (
	TLSModeScheme = "scheme"
	TLSModeVerify = "verify"
)

// TLSSettings configures the transport-security probe.
type TLSSettings struct {
	Mode   string `yaml:"mode" mapstructure:"mode" validate:"oneof=scheme verify"`
	CAFile string `yaml:"ca_file,omitempty" mapstructure:"ca_file"`
}

// BrowserSettings configures the optional headless-browser dashboard probe.
type BrowserSettings struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Headless    bool          `yaml:"headless" mapstructure:"headless"`
	ExecPath    string        `yaml:"exec_path,omitempty" mapstructure:"exec_path"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	MinPageSize int           `yaml:"min_page_size" mapstructure:"min_page_size" validate:"gte=0"`
	// Login signs in with the dashboard credentials after the page loads.
	Login bool `yaml:"login" mapstructure:"login"`
}

// LoggingSettings configures the structured logger.
type LoggingSettings struct {
	Level       string   `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	OutputPaths []string `yaml:"output_paths" mapstructure:"output_paths"`
}
