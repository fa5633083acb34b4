package domain

import "time"

// Component names one of the health-checked subsystems.
type Component string

const (
	ComponentDashboard         Component = "dashboard"
	ComponentManagerAPI        Component = "manager_api"
	ComponentIndexerAPI        Component = "indexer_api"
	ComponentTransportSecurity Component = "transport_security"
)

// DeclaredComponents lists every component in declaration order.
// Probes run, and reports render, in this order.
func DeclaredComponents() []Component {
	return []Component{
		ComponentDashboard,
		ComponentManagerAPI,
		ComponentIndexerAPI,
		ComponentTransportSecurity,
	}
}

// DisplayName returns the human readable component label.
func (c Component) DisplayName() string {
	switch c {
	case ComponentDashboard:
		return "Dashboard UI"
	case ComponentManagerAPI:
		return "Manager API"
	case ComponentIndexerAPI:
		return "Indexer API"
	case ComponentTransportSecurity:
		return "Transport Security"
	default:
		return string(c)
	}
}

// HealthStatus indicates sub-check outcomes.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck captures a single sub-check finding inside a probe.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// ProbeStatus is the boolean outcome of a probe.
type ProbeStatus string

const (
	ProbeHealthy   ProbeStatus = "healthy"
	ProbeUnhealthy ProbeStatus = "unhealthy"
)

// Observation is what a probe reports back to the runner.
type Observation struct {
	OK         bool
	Detail     string
	StatusCode int
	Checks     []HealthCheck
}

// ProbeResult is the recorded outcome of one probe attempt.
type ProbeResult struct {
	Component  Component     `json:"component"`
	Status     ProbeStatus   `json:"status"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Checks     []HealthCheck `json:"checks,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (r ProbeResult) Healthy() bool {
	return r.Status == ProbeHealthy
}

// HasErrors reports whether any sub-check finished with an error status.
func (r ProbeResult) HasErrors() bool {
	for _, check := range r.Checks {
		if check.Status == HealthError {
			return true
		}
	}
	return false
}

// Verdict is the tiered classification of a health score.
type Verdict string

const (
	VerdictHealthy   Verdict = "healthy"
	VerdictDegraded  Verdict = "degraded"
	VerdictUnhealthy Verdict = "unhealthy"
)

// Verdict thresholds. Boundary values belong to the higher tier.
const (
	HealthyThreshold  = 75.0
	DegradedThreshold = 50.0
)

// Classify maps a health score onto a verdict.
func Classify(score float64) Verdict {
	switch {
	case score >= HealthyThreshold:
		return VerdictHealthy
	case score >= DegradedThreshold:
		return VerdictDegraded
	default:
		return VerdictUnhealthy
	}
}

// ExitCode returns the process exit code callers use for the verdict.
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictHealthy:
		return 0
	case VerdictDegraded:
		return 1
	default:
		return 2
	}
}
