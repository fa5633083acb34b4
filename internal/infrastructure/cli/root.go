package cli

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/socprobe/internal/app"
	"github.com/doeshing/socprobe/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra root command. Running it without a subcommand
// runs the health check with configured defaults.
func NewRootCmd(opts Options) *cobra.Command {
	appOpts := &app.Options{ConfigPath: opts.ConfigPath, Verbose: opts.Verbose}

	root := &cobra.Command{
		Use:   "socprobe",
		Short: "socprobe - Wazuh SOC health check",
		Long: "socprobe probes the dashboard, manager API, indexer API and transport " +
			"security of a Wazuh deployment and reports an aggregate health verdict.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, *appOpts, checkFlags{output: outputText})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&appOpts.ConfigPath, "config", "c", opts.ConfigPath, "Config file (default ./socprobe.yaml or ~/.socprobe/config.yaml)")
	root.PersistentFlags().BoolVarP(&appOpts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")

	root.AddCommand(newCheckCommand(appOpts))
	root.AddCommand(commands.NewConfigCommand(appOpts))
	root.AddCommand(commands.NewComponentsCommand())
	root.AddCommand(commands.NewVersionCommand())
	return root
}
