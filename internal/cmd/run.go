package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/coubctl/internal/claimer"
	"github.com/salmonumbrella/coubctl/internal/output"
	"github.com/salmonumbrella/coubctl/internal/tasks"
)

func newRunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Refresh tokens and claim tasks for every account",
		Long: `Process every account in the data file: refresh its token when missing
or expired, read the rewards already granted and claim every remaining task.

Without --once the cycle repeats after cycle_delay plus a random share of
cycle_jitter (24h + up to 1h by default), with a countdown on a terminal.

Example:
  coubctl run --once
  coubctl run -o json --once | jq .claimed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			u := uiFromContext(ctx)
			quiet := isQuiet(ctx)

			if !quiet {
				u.PrintBanner(versionFromContext(ctx))
			}

			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			taskList := tasks.Load(cfg.TasksFile)

			runner, err := newRunner(ctx, accts, taskList, once)
			if err != nil {
				return err
			}

			format := output.FormatFromContext(ctx)
			printer := printerForContext(ctx)
			var printErr error
			onCycle := func(s claimer.CycleSummary) {
				if format != output.FormatText || output.QueryFromContext(ctx) != "" || output.JSONPathFromContext(ctx) != "" {
					if err := printer.Print(ctx, s); err != nil && printErr == nil {
						printErr = err
					}
					return
				}
				if quiet {
					return
				}
				msg := "Cycle %s: %d claimed, %d already completed, %d failed, %d accounts skipped"
				switch {
				case s.Skipped > 0 && s.Skipped == len(s.Accounts):
					u.Error(msg, s.RunID, s.Claimed, s.Completed, s.Failed, s.Skipped)
				case s.Failed > 0 || s.Skipped > 0:
					u.Warning(msg, s.RunID, s.Claimed, s.Completed, s.Failed, s.Skipped)
				default:
					u.Success(msg, s.RunID, s.Claimed, s.Completed, s.Failed, s.Skipped)
				}
			}

			if err := runner.Run(ctx, onCycle); err != nil {
				return err
			}
			return printErr
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")
	return cmd
}
