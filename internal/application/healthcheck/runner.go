package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const detailNotHealthy = "probe reported not healthy"

type outcome struct {
	obs domain.Observation
	err error
}

// RunProbe invokes probe bounded by timeout and always returns a well-formed
// result. Errors, panics and timeouts become an unhealthy result whose Detail
// describes the failure. A timeout <= 0 leaves only ctx as the bound.
func RunProbe(ctx context.Context, probe ports.Probe, timeout time.Duration) domain.ProbeResult {
	component := probe.Component()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("probe panicked: %v\n%s", r, debug.Stack())}
			}
		}()
		obs, err := probe.Probe(ctx)
		done <- outcome{obs: obs, err: err}
	}()

	select {
	case out := <-done:
		return toResult(component, out, time.Since(start))
	case <-ctx.Done():
		return domain.ProbeResult{
			Component: component,
			Status:    domain.ProbeUnhealthy,
			Latency:   time.Since(start),
			Detail:    describeContextErr(ctx.Err(), timeout),
		}
	}
}

func toResult(component domain.Component, out outcome, latency time.Duration) domain.ProbeResult {
	result := domain.ProbeResult{
		Component:  component,
		Latency:    latency,
		StatusCode: out.obs.StatusCode,
		Checks:     out.obs.Checks,
		Detail:     out.obs.Detail,
	}
	switch {
	case out.err != nil:
		result.Status = domain.ProbeUnhealthy
		result.Detail = errorDetail(out.err)
	case out.obs.OK:
		result.Status = domain.ProbeHealthy
	default:
		result.Status = domain.ProbeUnhealthy
		if result.Detail == "" {
			result.Detail = detailNotHealthy
		}
	}
	return result
}

func errorDetail(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("probe failed: %T", err)
}

func describeContextErr(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
		return fmt.Sprintf("probe timed out after %s", timeout)
	}
	if err == nil {
		return "probe aborted"
	}
	return fmt.Sprintf("probe aborted: %v", err)
}
