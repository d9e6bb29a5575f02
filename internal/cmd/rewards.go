package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/coubctl/internal/accounts"
	"github.com/salmonumbrella/coubctl/internal/claimer"
	"github.com/salmonumbrella/coubctl/internal/coub"
	"github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/tasks"
)

type taskRow struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

func newRewardsCmd() *cobra.Command {
	var noLogin bool

	cmd := &cobra.Command{
		Use:   "rewards <N>",
		Short: "List rewards already granted to an account",
		Long: `List the rewards the API reports as granted to account N, refreshing its
token first when needed. --no-login uses the stored token only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			acct, err := selectAccount(accts, args[0])
			if err != nil {
				return err
			}
			runner, err := newRunner(ctx, accts, nil, true)
			if err != nil {
				return err
			}
			bearer, err := accountToken(ctx, runner, acct, noLogin)
			if err != nil {
				return err
			}

			rewards, err := newClient(ctx).UserRewards(ctx, bearer, acct.Form())
			if err != nil {
				return err
			}
			if rewards == nil {
				rewards = []coub.Reward{}
			}
			return printerForContext(ctx).Print(ctx, rewards)
		},
	}

	cmd.Flags().BoolVar(&noLogin, "no-login", false, "Fail instead of logging in when the stored token is unusable")
	return cmd
}

// accountToken returns the stored token, logging in again unless noLogin.
func accountToken(ctx context.Context, runner *claimer.Runner, acct *accounts.Account, noLogin bool) (string, error) {
	if noLogin {
		return runner.StoredToken(acct)
	}
	bearer, _, err := runner.EnsureToken(ctx, acct, false)
	return bearer, err
}

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect the claimable task list",
	}
	cmd.AddCommand(newTasksListCmd())
	return cmd
}

func newTasksListCmd() *cobra.Command {
	var (
		account string
		noLogin bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, optionally marked completed/pending for one account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			taskList, err := tasks.Read(cfg.TasksFile)
			if err != nil {
				return errors.WrapUserError(err, "failed to load tasks", "Point tasks_file at a JSON array of {\"id\", \"title\"} objects")
			}

			rows := make([]taskRow, 0, len(taskList))
			if account == "" {
				for _, t := range taskList {
					rows = append(rows, taskRow{ID: t.ID, Title: t.Title})
				}
				return printerForContext(ctx).Print(ctx, rows)
			}

			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			acct, err := selectAccount(accts, account)
			if err != nil {
				return err
			}
			runner, err := newRunner(ctx, accts, nil, true)
			if err != nil {
				return err
			}
			bearer, err := accountToken(ctx, runner, acct, noLogin)
			if err != nil {
				return err
			}
			rewards, err := newClient(ctx).UserRewards(ctx, bearer, acct.Form())
			if err != nil {
				return err
			}

			pending := map[int]bool{}
			for _, t := range tasks.Pending(taskList, coub.RewardIDs(rewards)) {
				pending[t.ID] = true
			}
			for _, t := range taskList {
				status := "completed"
				if pending[t.ID] {
					status = "pending"
				}
				rows = append(rows, taskRow{ID: t.ID, Title: t.Title, Status: status})
			}
			return printerForContext(ctx).Print(ctx, rows)
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Mark tasks against this account's granted rewards")
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "With --account, fail instead of logging in when the stored token is unusable")
	return cmd
}

func newClaimCmd() *cobra.Command {
	var taskIDs []int

	cmd := &cobra.Command{
		Use:   "claim <N>",
		Short: "Claim every pending task for one account",
		Long: `Run one account through a single pass: refresh its token when needed,
read its granted rewards and claim every task not yet granted.

Example:
  coubctl claim 1
  coubctl claim 2 --task 5 --task 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			acct, err := selectAccount(accts, args[0])
			if err != nil {
				return err
			}

			taskList := tasks.Load(cfg.TasksFile)
			if len(taskIDs) > 0 {
				taskList, err = filterTasks(taskList, taskIDs)
				if err != nil {
					return err
				}
			}

			runner, err := newRunner(ctx, accts, taskList, true)
			if err != nil {
				return err
			}
			// Surface auth failures as errors rather than a skipped account.
			if _, err := runner.Refresh(ctx, acct, false); err != nil {
				return err
			}

			res := runner.ProcessAccount(ctx, acct)
			if err := printerForContext(ctx).Print(ctx, res); err != nil {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().IntSliceVarP(&taskIDs, "task", "t", nil, "Only claim these task IDs (repeatable)")
	return cmd
}

func filterTasks(list []tasks.Task, ids []int) ([]tasks.Task, error) {
	byID := make(map[int]tasks.Task, len(list))
	for _, t := range list {
		byID[t.ID] = t
	}
	out := make([]tasks.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, &errors.ValidationError{Field: "task", Message: "unknown task id " + strconv.Itoa(id)}
		}
		out = append(out, t)
	}
	return out, nil
}
