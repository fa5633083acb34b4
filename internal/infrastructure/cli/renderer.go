package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/doeshing/socprobe/internal/domain"
)

const ruleWidth = 50

// RenderText prints the report in an ASCII-only format.
func RenderText(w io.Writer, report domain.HealthReport) {
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(w, "Wazuh SOC Health Check")
	fmt.Fprintln(w, rule)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", report.RunID)
	}
	fmt.Fprintln(w)

	for _, result := range report.Results {
		fmt.Fprintf(w, "%s %s: %s\n", statusMarker(result), result.Component.DisplayName(), resultSummary(result))
		for _, check := range result.Checks {
			if check.Status == domain.HealthOK {
				continue
			}
			fmt.Fprintf(w, "       %s %s: %s\n", checkMarker(check.Status), check.Name, check.Details)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "System Health Score: %.1f%% (%d/%d components healthy)\n",
		report.Score, report.HealthyCount, report.Total)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Component Status:")
	renderStatusTable(w, report.Results)

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, verdictLine(report))
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, report domain.HealthReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func renderStatusTable(w io.Writer, results []domain.ProbeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleDefault)
	t.AppendHeader(table.Row{"Component", "Status", "HTTP", "Latency", "Findings"})
	for _, result := range results {
		code := "-"
		if result.StatusCode != 0 {
			code = fmt.Sprintf("%d", result.StatusCode)
		}
		t.AppendRow(table.Row{
			result.Component.DisplayName(),
			strings.ToUpper(string(result.Status)),
			code,
			fmt.Sprintf("%.2fs", result.Latency.Seconds()),
			findingsSummary(result.Checks),
		})
	}
	t.Render()
}

func resultSummary(result domain.ProbeResult) string {
	summary := fmt.Sprintf("%s (%.2fs)", result.Status, result.Latency.Seconds())
	if result.Detail != "" {
		summary += " - " + result.Detail
	}
	return summary
}

func findingsSummary(checks []domain.HealthCheck) string {
	if len(checks) == 0 {
		return "-"
	}
	var warns, errs int
	for _, check := range checks {
		switch check.Status {
		case domain.HealthWarn:
			warns++
		case domain.HealthError:
			errs++
		}
	}
	return fmt.Sprintf("%d ok, %d warn, %d error", len(checks)-warns-errs, warns, errs)
}

func statusMarker(result domain.ProbeResult) string {
	if result.Healthy() {
		return "[ OK ]"
	}
	return "[FAIL]"
}

func checkMarker(status domain.HealthStatus) string {
	if status == domain.HealthWarn {
		return "!"
	}
	return "x"
}

func verdictLine(report domain.HealthReport) string {
	switch report.Verdict {
	case domain.VerdictHealthy:
		return fmt.Sprintf("System is healthy! (%.1f%%)", report.Score)
	case domain.VerdictDegraded:
		return fmt.Sprintf("System has issues but is operational (%.1f%%)", report.Score)
	default:
		return fmt.Sprintf("System is unhealthy (%.1f%%)", report.Score)
	}
}
