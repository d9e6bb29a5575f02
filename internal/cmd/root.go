package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/coubctl/internal/config"
	"github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/logging"
	"github.com/salmonumbrella/coubctl/internal/output"
	"github.com/salmonumbrella/coubctl/internal/ui"
)

func newRootCmd(app *App) *cobra.Command {
	// Global flags
	var (
		configPath   string
		debugMode    bool
		logFormat    string
		outputFlag   string
		queryFlag    string
		jsonPathFlag string
		colorFlag    string
		errorFormat  string
		quietFlag    bool
	)

	rootCmd := &cobra.Command{
		Use:   "coubctl",
		Short: "Keep reward tokens fresh and claim reward tasks",
		Long: `coubctl logs every account in the data file into the rewards API,
keeps their bearer tokens in a local token store and claims every listed
task the account has not been granted yet.

Run 'coubctl run' to loop forever (one cycle a day), or 'coubctl run --once'
for a single pass.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := withIO(cmd.Context(), app.Stdout, app.Stderr)
			changed := cmd.Flags().Changed

			path := configPath
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("failed to determine config path: %w", err)
				}
				path = p
			}
			raw, err := config.LoadFromPath(path)
			if err != nil {
				return errors.WrapUserError(err, "failed to load config", "Fix or remove "+path)
			}
			cfg := raw.WithDefaults()

			if !changed("log-format") && cfg.LogFormat != "" {
				logFormat = cfg.LogFormat
			}
			lf, err := logging.ParseFormat(logFormat)
			if err != nil {
				return errors.WrapUserError(err, "invalid --log-format", "Use text or json")
			}
			logging.Setup(debugMode, app.Stderr, lf)

			if !changed("output") && !changed("fmt") && cfg.Output != "" {
				outputFlag = cfg.Output
			}
			format, err := output.ParseFormat(outputFlag)
			if err != nil {
				return errors.WrapUserError(err, "invalid --output", "Use one of: text, json, yaml, table")
			}

			if queryFlag != "" && jsonPathFlag != "" {
				return errors.NewUserError("use only one of --query or --jsonpath", "")
			}
			if err := output.ValidateQuery(queryFlag); err != nil {
				return err
			}
			if err := validateErrorFormat(errorFormat); err != nil {
				return err
			}

			if !changed("color") && cfg.Color != "" {
				colorFlag = cfg.Color
			}

			ctx = withConfigPath(ctx, path)
			ctx = WithConfig(ctx, &cfg)
			ctx = output.WithFormat(ctx, format)
			ctx = output.WithQuery(ctx, queryFlag)
			ctx = output.WithJSONPath(ctx, jsonPathFlag)
			ctx = WithErrorFormat(ctx, errorFormat)
			ctx = withDebug(ctx, debugMode)
			ctx = withQuiet(ctx, quietFlag)
			ctx = withVersion(ctx, app.Version)
			ctx = withUI(ctx, ui.New(app.Stderr, ui.ParseColorMode(colorFlag)))
			cmd.SetContext(ctx)
			return nil
		},
	}

	rootCmd.Version = app.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("coubctl %s (commit: %s, built: %s)\n", app.Version, app.Commit, app.BuildTime))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.config/coubctl/config.yaml, or $COUBCTL_CONFIG)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging and HTTP request/response dumps")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text|json")
	pf.StringVarP(&outputFlag, "output", "o", "text", "Output format: text|json|yaml|table")
	pf.StringVarP(&queryFlag, "query", "q", "", "JQ expression to filter output")
	pf.StringVar(&jsonPathFlag, "jsonpath", "", "Extract a value using JSONPath (e.g. $.accounts[0].name)")
	pf.StringVar(&colorFlag, "color", "auto", "Color mode: auto|always|never")
	pf.StringVar(&errorFormat, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress the banner and status lines")

	flagAlias(pf, "output", "fmt")
	flagAlias(pf, "query", "jq")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newRewardsCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newClaimCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd(app))

	return rootCmd
}
