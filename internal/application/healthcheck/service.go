// Package healthcheck runs the probe set and aggregates the outcome.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

// ErrInterrupted is returned when the run is cancelled before completion.
// Partial results are discarded.
var ErrInterrupted = errors.New("health check interrupted")

// Service runs probes sequentially and builds a report.
type Service struct {
	Probes  []ports.Probe
	Timeout time.Duration
	Strict  bool
	Logger  ports.Logger

	// OnProbeStart is called before each probe runs.
	OnProbeStart func(domain.Component)
	// Components overrides the declared component set.
	Components []domain.Component
	NewRunID   func() string
	Now        func() time.Time
}

// Run executes every probe in order and returns the aggregated report.
// Probe failures are recorded as data. Wiring errors and cancellation are
// returned as errors.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	newRunID := s.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	components := s.Components
	if len(components) == 0 {
		components = domain.DeclaredComponents()
	}
	status, err := domain.NewStatusMap(components...)
	if err != nil {
		return domain.HealthReport{}, err
	}

	runID := newRunID()
	if err := checkProbes(status, s.Probes); err != nil {
		s.logError("probe wiring error", err, map[string]interface{}{"run_id": runID})
		return domain.HealthReport{}, err
	}
	started := now()
	s.logDebug("health check started", map[string]interface{}{
		"run_id": runID,
		"probes": len(s.Probes),
	})

	for _, probe := range s.Probes {
		if err := ctx.Err(); err != nil {
			return domain.HealthReport{}, fmt.Errorf("%w: %v", ErrInterrupted, err)
		}
		if s.OnProbeStart != nil {
			s.OnProbeStart(probe.Component())
		}

		result := RunProbe(ctx, probe, s.Timeout)
		if s.Strict {
			result = applyStrict(result)
		}

		if err := ctx.Err(); err != nil {
			return domain.HealthReport{}, fmt.Errorf("%w: %v", ErrInterrupted, err)
		}

		status, err = status.Record(result)
		if err != nil {
			s.logError("probe wiring error", err, map[string]interface{}{"run_id": runID})
			return domain.HealthReport{}, err
		}
		s.logResult(runID, result)
	}

	report, err := domain.BuildReport(runID, started, now().Sub(started), status)
	if err != nil {
		s.logError("cannot score run", err, map[string]interface{}{"run_id": runID})
		return domain.HealthReport{}, err
	}

	s.logDebug("health check finished", map[string]interface{}{
		"run_id":  runID,
		"score":   report.Score,
		"verdict": string(report.Verdict),
	})
	return report, nil
}

// checkProbes rejects a probe list that would record an undeclared component
// or the same component twice, before any probe runs.
func checkProbes(status domain.StatusMap, probes []ports.Probe) error {
	seen := make(map[domain.Component]struct{}, len(probes))
	for _, probe := range probes {
		c := probe.Component()
		if _, declared := status.Get(c); !declared {
			return &domain.UnknownComponentError{Component: c}
		}
		if _, dup := seen[c]; dup {
			return &domain.AlreadyRecordedError{Component: c}
		}
		seen[c] = struct{}{}
	}
	return nil
}

// applyStrict fails a healthy result that carries error-level findings.
func applyStrict(result domain.ProbeResult) domain.ProbeResult {
	if !result.Healthy() || !result.HasErrors() {
		return result
	}
	for _, check := range result.Checks {
		if check.Status == domain.HealthError {
			result.Status = domain.ProbeUnhealthy
			result.Detail = fmt.Sprintf("strict mode: %s failed", check.Name)
			break
		}
	}
	return result
}

func (s *Service) logResult(runID string, result domain.ProbeResult) {
	fields := map[string]interface{}{
		"run_id":     runID,
		"component":  string(result.Component),
		"status":     string(result.Status),
		"latency_ms": result.Latency.Milliseconds(),
	}
	if result.StatusCode != 0 {
		fields["status_code"] = result.StatusCode
	}
	if result.Healthy() {
		s.logDebug("probe passed", fields)
		return
	}
	fields["detail"] = result.Detail
	if s.Logger != nil {
		s.Logger.Warn("probe failed", fields)
	}
}

func (s *Service) logDebug(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Debug(msg, fields)
	}
}

func (s *Service) logError(msg string, err error, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Error(msg, err, fields)
	}
}
