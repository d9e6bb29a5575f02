package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/salmonumbrella/coubctl/internal/accounts"
	"github.com/salmonumbrella/coubctl/internal/claimer"
	"github.com/salmonumbrella/coubctl/internal/coub"
	"github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/tasks"
	"github.com/salmonumbrella/coubctl/internal/token"
)

// newClient builds the API client from the effective config.
func newClient(ctx context.Context) *coub.Client {
	cfg := ConfigFromContext(ctx)

	ua := cfg.UserAgent
	if ua == "" {
		ua = "coubctl/" + versionFromContext(ctx)
	}

	client := coub.NewClient().
		WithUserAgent(ua).
		WithRequestDelay(cfg.RequestDelay).
		WithMaxRetries(cfg.Retries())
	if cfg.APIURL != "" {
		client.WithAPIURL(cfg.APIURL)
	}
	if cfg.RewardsURL != "" {
		client.WithRewardsURL(cfg.RewardsURL)
	}
	if isDebug(ctx) {
		client.WithDebugOutput(stderrFromContext(ctx))
	}
	return client
}

func openStore(ctx context.Context) (token.Store, error) {
	cfg := ConfigFromContext(ctx)
	store, err := token.Open(cfg.TokenStore, cfg.TokenFile)
	if err != nil {
		return nil, errors.WrapUserError(err, "failed to open token store", "Set token_store to file or keyring")
	}
	return store, nil
}

func loadAccounts(ctx context.Context) ([]*accounts.Account, error) {
	cfg := ConfigFromContext(ctx)
	accts, err := accounts.Load(cfg.DataFile)
	if err != nil {
		return nil, errors.WrapUserError(err, "failed to load accounts",
			fmt.Sprintf("Put one login payload per line in %s, or point data_file at your account list", cfg.DataFile))
	}
	return accts, nil
}

// selectAccounts resolves 1-based account numbers; no args selects all.
func selectAccounts(accts []*accounts.Account, args []string) ([]*accounts.Account, error) {
	if len(args) == 0 {
		return accts, nil
	}
	out := make([]*accounts.Account, 0, len(args))
	for _, arg := range args {
		acct, err := selectAccount(accts, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

func selectAccount(accts []*accounts.Account, arg string) (*accounts.Account, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(accts) {
		return nil, errors.NewUserError(
			fmt.Sprintf("unknown account %q (have %d)", arg, len(accts)),
			"Run 'coubctl accounts list' to see account numbers",
		)
	}
	return accts[n-1], nil
}

// newRunner wires a claimer for the given accounts.
func newRunner(ctx context.Context, accts []*accounts.Account, taskList []tasks.Task, once bool) (*claimer.Runner, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	cfg := ConfigFromContext(ctx)
	opts := claimer.Options{
		AccountDelay: cfg.AccountDelay,
		CycleDelay:   cfg.CycleDelay,
		CycleJitter:  cfg.CycleJitter,
		Once:         once,
	}
	return claimer.NewRunner(newClient(ctx), store, accts, taskList, opts).
		WithCountdown(uiFromContext(ctx).Countdown), nil
}
