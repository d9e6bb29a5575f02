package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/coubctl/internal/token"
)

type tokenStatusRow struct {
	Account   string `json:"account"`
	Name      string `json:"name"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

type tokenRefreshRow struct {
	Account   string `json:"account"`
	Name      string `json:"name"`
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "token",
		Aliases: []string{"tokens", "tok"},
		Short:   "Manage stored bearer tokens",
	}
	cmd.AddCommand(newTokenStatusCmd())
	cmd.AddCommand(newTokenRefreshCmd())
	cmd.AddCommand(newTokenClearCmd())
	return cmd
}

func newTokenStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [N...]",
		Short: "Show the expiry of each stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			selected, err := selectAccounts(accts, args)
			if err != nil {
				return err
			}
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			stored, err := store.Load()
			if err != nil {
				return err
			}

			now := time.Now()
			rows := make([]tokenStatusRow, 0, len(selected))
			for _, a := range selected {
				row := tokenStatusRow{Account: a.Key(), Name: a.DisplayName(), State: "missing"}
				if tok, ok := stored[a.Key()]; ok && tok != "" {
					st := token.Inspect(tok, now)
					row.State = st.State.String()
					if !st.ExpiresAt.IsZero() {
						row.ExpiresAt = st.ExpiresAt.Local().Format(time.DateTime)
						if st.State == token.StateValid {
							row.ExpiresIn = st.ExpiresAt.Sub(now).Round(time.Second).String()
						}
					}
				}
				rows = append(rows, row)
			}
			return printerForContext(ctx).Print(ctx, rows)
		},
	}
}

func newTokenRefreshCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh [N...]",
		Short: "Log in again for accounts whose token is missing or expired",
		Long: `Log in again for the given accounts (all when none are given) whose stored
token is missing, expired or undecodable. --force logs in regardless.

Example:
  coubctl token refresh
  coubctl token refresh 2 3 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			selected, err := selectAccounts(accts, args)
			if err != nil {
				return err
			}
			runner, err := newRunner(ctx, accts, nil, true)
			if err != nil {
				return err
			}

			var firstErr error
			rows := make([]tokenRefreshRow, 0, len(selected))
			for _, a := range selected {
				row := tokenRefreshRow{Account: a.Key(), Name: a.DisplayName()}
				refreshed, err := runner.Refresh(ctx, a, force)
				row.Refreshed = refreshed
				if err != nil {
					row.Error = err.Error()
					if firstErr == nil {
						firstErr = err
					}
				}
				rows = append(rows, row)
				if ctx.Err() != nil {
					break
				}
			}

			if err := printerForContext(ctx).Print(ctx, rows); err != nil {
				return err
			}
			return firstErr
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Log in even when the stored token is still valid")
	return cmd
}

func newTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [N...]",
		Short: "Delete stored tokens (all when no account is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("failed to clear tokens: %w", err)
				}
				return printerForContext(ctx).Print(ctx, map[string]interface{}{
					"status":  "success",
					"cleared": "all",
				})
			}

			accts, err := loadAccounts(ctx)
			if err != nil {
				return err
			}
			selected, err := selectAccounts(accts, args)
			if err != nil {
				return err
			}
			cleared := make([]string, 0, len(selected))
			for _, a := range selected {
				if err := store.Delete(a.Key()); err != nil {
					return fmt.Errorf("failed to delete token for account %s: %w", a.Key(), err)
				}
				cleared = append(cleared, a.Key())
			}
			return printerForContext(ctx).Print(ctx, map[string]interface{}{
				"status":  "success",
				"cleared": cleared,
			})
		},
	}
}
