package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/coubctl/internal/accounts"
	"github.com/salmonumbrella/coubctl/internal/token"
)

type accountRow struct {
	Account  string `json:"account"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Premium  bool   `json:"premium"`
	Token    string `json:"token"`
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account", "acc"},
		Short:   "Inspect the account data file",
	}
	cmd.AddCommand(newAccountsListCmd())
	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts with their stored token state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accts, err := loadAccounts(ctx)
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
			rows := make([]accountRow, 0, len(accts))
			for _, a := range accts {
				rows = append(rows, accountRow{
					Account:  a.Key(),
					UserID:   a.User.ID,
					Name:     a.DisplayName(),
					Username: a.User.Username,
					Premium:  a.User.IsPremium,
					Token:    tokenState(stored, a, now),
				})
			}
			return printerForContext(ctx).Print(ctx, rows)
		},
	}
}

func tokenState(stored map[string]string, a *accounts.Account, now time.Time) string {
	tok, ok := stored[a.Key()]
	if !ok || tok == "" {
		return "missing"
	}
	return token.Inspect(tok, now).State.String()
}
