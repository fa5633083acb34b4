package app

import (
	"context"
	"fmt"

	configapp "github.com/doeshing/socprobe/internal/application/config"
	"github.com/doeshing/socprobe/internal/application/healthcheck"
	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/infrastructure/config"
	"github.com/doeshing/socprobe/internal/infrastructure/httpclient"
	"github.com/doeshing/socprobe/internal/infrastructure/metrics"
	"github.com/doeshing/socprobe/internal/infrastructure/probes"
	"github.com/doeshing/socprobe/internal/pkg/logger"
	"github.com/doeshing/socprobe/internal/ports"
)

// Options selects the config source and carries command-line overrides.
type Options struct {
	ConfigPath string
	Verbose    bool
	// Overrides are applied on top of every other config source, keyed by
	// config path such as "probes.strict".
	Overrides   map[string]interface{}
	MetricsFile string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Logger        *logger.ZapLogger
	HealthService *healthcheck.Service
	// Exporter is nil unless a metrics file was requested.
	Exporter ports.MetricsExporter
}

// NewConfigLoader builds the loader used by every command.
func NewConfigLoader(opts Options, log ports.Logger) *config.FileLoader {
	loader := config.NewFileLoader(opts.ConfigPath, log)
	for key, value := range opts.Overrides {
		loader.Override(key, value)
	}
	return loader
}

// BootstrapLogger is used before the configuration is known.
func BootstrapLogger(verbose bool) *logger.ZapLogger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, nil)
	if err != nil {
		return logger.NewNop()
	}
	return log
}

// LoadConfig loads and validates the effective configuration.
func LoadConfig(ctx context.Context, loader ports.ConfigProvider) (domain.Config, error) {
	cfg, err := loader.Load(ctx)
	if err != nil {
		return domain.Config{}, err
	}
	if err := configapp.Validate(cfg); err != nil {
		return domain.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	loader := NewConfigLoader(opts, BootstrapLogger(opts.Verbose))
	cfg, err := LoadConfig(ctx, loader)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Logging.OutputPaths)
	if err != nil {
		return nil, err
	}

	probeSet, err := BuildProbes(cfg, log)
	if err != nil {
		return nil, err
	}

	service := &healthcheck.Service{
		Probes:  probeSet,
		Timeout: cfg.Probes.Timeout,
		Strict:  cfg.IsStrict(),
		Logger:  log,
	}

	container := &Container{
		Config:        cfg,
		ConfigLoader:  loader,
		Logger:        log,
		HealthService: service,
	}
	if opts.MetricsFile != "" {
		container.Exporter = metrics.NewTextfileExporter(opts.MetricsFile)
	}
	return container, nil
}

// BuildProbes returns one probe per declared component, in declaration
// order. The browser probe replaces the HTTP dashboard probe when enabled.
func BuildProbes(cfg domain.Config, log ports.Logger) ([]ports.Probe, error) {
	client := httpclient.New(httpclient.Options{
		HTTP:   cfg.HTTP,
		Retry:  cfg.Retry,
		Logger: log,
	})

	var dashboard ports.Probe = &probes.DashboardProbe{
		Client:          client,
		Endpoint:        cfg.Endpoints.Dashboard,
		MaxResponseTime: cfg.HTTP.MaxResponseTime,
		MinPageSize:     cfg.Browser.MinPageSize,
	}
	if cfg.Browser.Enabled {
		dashboard = &probes.BrowserProbe{
			Renderer: &probes.ChromeRenderer{
				ExecPath:         cfg.Browser.ExecPath,
				Headless:         cfg.Browser.Headless,
				IgnoreCertErrors: cfg.HTTP.InsecureSkipVerify,
			},
			Endpoint:        cfg.Endpoints.Dashboard,
			Login:           cfg.Browser.Login,
			Timeout:         cfg.Browser.Timeout,
			MaxResponseTime: cfg.HTTP.MaxResponseTime,
			MinPageSize:     cfg.Browser.MinPageSize,
		}
	}

	indexerClient, err := probes.NewIndexerClient(cfg.Endpoints.Indexer, cfg.HTTP, cfg.Retry)
	if err != nil {
		return nil, err
	}

	return []ports.Probe{
		dashboard,
		&probes.ManagerProbe{
			Client:          client,
			Endpoint:        cfg.Endpoints.Manager,
			MaxResponseTime: cfg.HTTP.MaxResponseTime,
		},
		&probes.IndexerProbe{
			Client:          indexerClient,
			MaxResponseTime: cfg.HTTP.MaxResponseTime,
		},
		&probes.TransportProbe{
			Endpoints:          cfg.NamedEndpoints(),
			VerifyCertificates: cfg.ShouldVerifyCertificates(),
			CAFile:             cfg.TLS.CAFile,
			Timeout:            cfg.HTTP.Timeout,
		},
	}, nil
}
