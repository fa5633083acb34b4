package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/socprobe/internal/app"
	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/socprobe/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with all subcommands.
// opts is read when a subcommand runs so persistent flags are applied.
func NewConfigCommand(opts *app.Options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect socprobe configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), *opts)
		},
	}

	configCmd.AddCommand(
		newConfigShowCommand(opts),
		newConfigGetCommand(opts),
		newConfigValidateCommand(opts),
		newConfigInitCommand(opts),
		newConfigPathCommand(opts),
		newConfigDiffCommand(opts),
	)

	return configCmd
}

// newConfigShowCommand creates the 'config show' subcommand
func newConfigShowCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), *opts)
		},
	}
}

// newConfigGetCommand creates the 'config get' subcommand
func newConfigGetCommand(opts *app.Options) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific configuration value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errors.New(ErrKeyRequired)
			}
			return getConfigurationValue(cmd.Context(), cmd.OutOrStdout(), *opts, key)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Key path (e.g., endpoints.manager.url)")
	return cmd
}

// newConfigValidateCommand creates the 'config validate' subcommand
func newConfigValidateCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := app.NewConfigLoader(*opts, nil)
			if _, err := app.LoadConfig(cmd.Context(), loader); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}
}

// newConfigInitCommand creates the 'config init' subcommand
func newConfigInitCommand(opts *app.Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.NewConfigLoader(*opts, nil).WriteDefault(force)
			if err != nil {
				if errors.Is(err, configinfra.ErrConfigExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, found, err := app.NewConfigLoader(*opts, nil).Path()
			if err != nil {
				return err
			}
			if found {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", path)
			}
			return nil
		},
	}
}

// newConfigDiffCommand creates the 'config diff' subcommand
func newConfigDiffCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show diff versus default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigurationDiff(cmd.Context(), cmd.OutOrStdout(), *opts)
		},
	}
}

// showConfiguration displays the effective configuration in YAML format
func showConfiguration(ctx context.Context, out io.Writer, opts app.Options) error {
	cfg, err := loadConfiguration(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	fmt.Fprint(out, string(data))
	return nil
}

// getConfigurationValue retrieves a specific configuration value by key path
func getConfigurationValue(ctx context.Context, out io.Writer, opts app.Options, keyPath string) error {
	cfg, err := loadConfiguration(ctx, opts)
	if err != nil {
		return err
	}

	genericMap, err := helpers.ConfigToMap(cfg.Redacted())
	if err != nil {
		return err
	}

	value, found := helpers.TraverseNestedMap(genericMap, helpers.SplitKeyPath(keyPath))
	if !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	fmt.Fprint(out, string(data))
	return nil
}

// showConfigurationDiff shows the difference between current and default configuration
func showConfigurationDiff(ctx context.Context, out io.Writer, opts app.Options) error {
	currentConfig, err := loadConfiguration(ctx, opts)
	if err != nil {
		return err
	}

	defaultConfig, err := configinfra.Defaults()
	if err != nil {
		return fmt.Errorf("failed to load default configuration: %w", err)
	}

	diff := cmp.Diff(defaultConfig.Redacted(), currentConfig.Redacted())
	if diff == "" {
		fmt.Fprintln(out, MsgNoDifferencesFromDefault)
		return nil
	}

	fmt.Fprintln(out, diff)
	return nil
}

func loadConfiguration(ctx context.Context, opts app.Options) (domain.Config, error) {
	cfg, err := app.NewConfigLoader(opts, nil).Load(ctx)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
