package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/coubctl/internal/config"
	"github.com/salmonumbrella/coubctl/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI configuration",
		Long:    `Manage the coubctl configuration file at ~/.config/coubctl/config.yaml`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the configuration file. --effective shows the values in use after
environment overrides and defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := stdoutFromContext(ctx)

			cfg := ConfigFromContext(ctx)
			path, err := configPathFromContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to determine config path: %w", err)
			}
			if !effective {
				if cfg, err = config.LoadFromPath(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}

			if len(data) == 0 || string(data) == "{}\n" {
				_, _ = fmt.Fprintf(out, "No configuration file found at %s\n", path)
				_, _ = fmt.Fprintln(out, "\nTo create a config file, use:")
				_, _ = fmt.Fprintln(out, "  coubctl config set data_file ~/coub/data.txt")
				return nil
			}

			_, _ = fmt.Fprint(out, string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&effective, "effective", false, "Show values after env overrides and defaults")
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: fmt.Sprintf(`Set a configuration value in the config file.

Supported keys:
  %s

Durations use Go syntax (2s, 5m, 24h).

Examples:
  coubctl config set data_file ~/coub/data.txt
  coubctl config set token_store keyring
  coubctl config set cycle_delay 12h`, strings.Join(config.Keys(), "\n  ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, value := args[0], args[1]

			path, err := configPathFromContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to determine config path: %w", err)
			}
			cfg, err := config.LoadFromPath(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := cfg.Set(key, value); err != nil {
				return &errors.ValidationError{Field: key, Message: err.Error()}
			}
			if err := cfg.SaveToPath(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(stdoutFromContext(ctx), "Set %s = %s in %s\n", key, strings.TrimSpace(value), path)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := stdoutFromContext(ctx)
			path, err := configPathFromContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to determine config path: %w", err)
			}

			_, _ = fmt.Fprintln(out, path)

			if _, err := os.Stat(path); err == nil {
				_, _ = fmt.Fprintln(out, "(file exists)")
			} else if os.IsNotExist(err) {
				_, _ = fmt.Fprintln(out, "(file does not exist)")
			}
			return nil
		},
	}
}
