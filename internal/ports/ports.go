// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the health-check core and its
// adapters. Probes, configuration loading, metrics export and logging are all
// described here so the application layer never depends on a concrete HTTP
// client, browser driver or file format.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Probe, ConfigProvider)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/socprobe/internal/domain"
)

// ConfigProvider loads the effective configuration.
// Implementations merge embedded defaults, a config file and the environment.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Probe performs a single external check against one component.
// A non-nil error is a probe failure; the runner converts it to data.
type Probe interface {
	Component() domain.Component
	Probe(ctx context.Context) (domain.Observation, error)
}

// ProbeFunc adapts a plain function into a Probe.
type ProbeFunc struct {
	Name domain.Component
	Fn   func(ctx context.Context) (domain.Observation, error)
}

// Component returns the component the function probes.
func (p ProbeFunc) Component() domain.Component { return p.Name }

// Probe calls the wrapped function.
func (p ProbeFunc) Probe(ctx context.Context) (domain.Observation, error) { return p.Fn(ctx) }

// MetricsExporter publishes a finished report to an external sink.
type MetricsExporter interface {
	Export(domain.HealthReport) error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stderr, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
