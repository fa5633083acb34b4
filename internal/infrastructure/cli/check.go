package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/socprobe/internal/app"
	"github.com/doeshing/socprobe/internal/application/healthcheck"
	"github.com/doeshing/socprobe/internal/domain"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type checkFlags struct {
	output      string
	strict      bool
	browser     bool
	timeout     time.Duration
	metricsFile string
	tlsMode     string
}

func newCheckCommand(opts *app.Options) *cobra.Command {
	flags := checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every component probe and report the health verdict",
		Long: "Run every component probe and report the health verdict.\n\n" +
			"Exit codes: 0 healthy, 1 degraded or harness error, 2 unhealthy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runOpts := *opts
			runOpts.Overrides = flags.overrides(cmd)
			runOpts.MetricsFile = flags.metricsFile
			return runCheck(cmd, runOpts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", outputText, "Output format: text or json")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Treat error-level findings as component failures")
	cmd.Flags().BoolVar(&flags.browser, "browser", false, "Check the dashboard with a headless browser")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", domain.DefaultProbeTimeout, "Per-probe timeout")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().StringVar(&flags.tlsMode, "tls-mode", "", "Transport security check: scheme or verify")

	return cmd
}

// overrides returns config overrides for the flags the user set explicitly.
func (f checkFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	changed := cmd.Flags().Changed
	if changed("strict") {
		out["probes.strict"] = f.strict
	}
	if changed("browser") {
		out["browser.enabled"] = f.browser
	}
	if changed("timeout") {
		out["probes.timeout"] = f.timeout.String()
	}
	if changed("tls-mode") {
		out["tls.mode"] = f.tlsMode
	}
	return out
}

func runCheck(cmd *cobra.Command, opts app.Options, flags checkFlags) error {
	if flags.output != outputText && flags.output != outputJSON {
		return &ExitError{Code: 1, Err: fmt.Errorf("unsupported output format %q", flags.output)}
	}

	ctx := cmd.Context()
	container, err := app.BuildContainer(ctx, opts)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	defer func() { _ = container.Logger.Sync() }()

	spinner := NewTerminalSpinner(cmd.ErrOrStderr())
	container.HealthService.OnProbeStart = func(c domain.Component) {
		spinner.Update("Checking " + c.DisplayName() + "...")
	}

	report, err := container.HealthService.Run(ctx)
	spinner.Stop()
	if err != nil {
		if errors.Is(err, healthcheck.ErrInterrupted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Health check interrupted by user")
			return &ExitError{Code: 1}
		}
		return &ExitError{Code: 1, Err: err}
	}

	if container.Exporter != nil {
		if err := container.Exporter.Export(report); err != nil {
			container.Logger.Error("metrics export failed", err, map[string]interface{}{
				"run_id": report.RunID,
				"path":   opts.MetricsFile,
			})
		}
	}

	out := cmd.OutOrStdout()
	if flags.output == outputJSON {
		if err := RenderJSON(out, report); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	} else {
		RenderText(out, report)
	}

	if code := report.Verdict.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
