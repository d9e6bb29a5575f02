// Package claimer runs the per-account refresh, poll and claim loop.
package claimer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/salmonumbrella/coubctl/internal/accounts"
	"github.com/salmonumbrella/coubctl/internal/coub"
	ctxerrors "github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/tasks"
	"github.com/salmonumbrella/coubctl/internal/token"
)

// Client is the part of *coub.Client the runner uses.
type Client interface {
	Authenticate(ctx context.Context, form string) (string, error)
	UserRewards(ctx context.Context, bearer, tgAuth string) ([]coub.Reward, error)
	CompleteTask(ctx context.Context, bearer, tgAuth string, taskID int) (json.RawMessage, error)
}

// Options controls pacing.
type Options struct {
	// AccountDelay is the pause between accounts within a cycle.
	AccountDelay time.Duration
	// CycleDelay plus a random fraction of CycleJitter separates cycles.
	CycleDelay  time.Duration
	CycleJitter time.Duration
	// Once stops Run after the first cycle.
	Once bool
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Runner processes accounts in file order.
type Runner struct {
	client   Client
	store    token.Store
	accounts []*accounts.Account
	tasks    []tasks.Task
	opts     Options

	now       func() time.Time
	sleep     WaitFunc
	countdown WaitFunc
	jitter    func(n int64) int64
}

// NewRunner wires a runner. taskList may be empty.
func NewRunner(client Client, store token.Store, accts []*accounts.Account, taskList []tasks.Task, opts Options) *Runner {
	return &Runner{
		client:    client,
		store:     store,
		accounts:  accts,
		tasks:     taskList,
		opts:      opts,
		now:       time.Now,
		sleep:     Sleep,
		countdown: Sleep,
		jitter:    rand.Int64N,
	}
}

// WithCountdown sets how the between-cycle wait is displayed.
func (r *Runner) WithCountdown(fn WaitFunc) *Runner {
	r.countdown = fn
	return r
}

// Sleep is a context-aware time.Sleep.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome is what happened to one task.
type Outcome string

const (
	OutcomeDone    Outcome = "already_completed"
	OutcomeClaimed Outcome = "claimed"
	OutcomeFailed  Outcome = "failed"
)

// TaskResult records one task for one account.
type TaskResult struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// AccountResult records one account's pass.
type AccountResult struct {
	Account        string       `json:"account"`
	Name           string       `json:"name"`
	TokenRefreshed bool         `json:"token_refreshed"`
	Rewards        int          `json:"rewards"`
	RewardsError   string       `json:"rewards_error,omitempty"`
	Tasks          []TaskResult `json:"tasks,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// CycleSummary aggregates one pass over every account.
type CycleSummary struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Accounts   []AccountResult `json:"accounts"`
	Claimed    int             `json:"claimed"`
	Completed  int             `json:"already_completed"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped_accounts"`
}

func (s *CycleSummary) add(res AccountResult) {
	s.Accounts = append(s.Accounts, res)
	if res.Error != "" {
		s.Skipped++
	}
	for _, t := range res.Tasks {
		switch t.Outcome {
		case OutcomeClaimed:
			s.Claimed++
		case OutcomeDone:
			s.Completed++
		case OutcomeFailed:
			s.Failed++
		}
	}
}

// EnsureToken returns a usable bearer token for acct, logging in again when
// the stored one is missing or expired, or when force is set. refreshed
// reports whether a login happened.
func (r *Runner) EnsureToken(ctx context.Context, acct *accounts.Account, force bool) (tok string, refreshed bool, err error) {
	log := slog.With("account", acct.Key(), "name", acct.DisplayName())

	stored, ok, err := r.store.Get(acct.Key())
	if err != nil {
		log.Error("Error reading stored token", "error", err)
		ok = false
	}
	if !force && ok && !token.IsExpired(stored, r.now()) {
		return stored, false, nil
	}

	log.Info("Token does not exist or has expired, getting new token")
	bearer, err := r.client.Authenticate(ctx, acct.Form())
	if err != nil {
		return "", false, &ctxerrors.AuthError{Account: acct.Key(), Reason: "login failed", Err: err}
	}

	changed, err := r.store.Set(acct.Key(), bearer)
	if err != nil {
		return "", false, fmt.Errorf("save token for account %s: %w", acct.Key(), err)
	}
	if changed {
		log.Info("Successfully obtained token")
	} else {
		log.Info("Token for account has been updated")
	}
	return bearer, true, nil
}

// StoredToken returns acct's stored token without logging in. A missing,
// expired or undecodable token is reported as unavailable.
func (r *Runner) StoredToken(acct *accounts.Account) (string, error) {
	stored, ok, err := r.store.Get(acct.Key())
	if err != nil {
		return "", fmt.Errorf("read token for account %s: %w", acct.Key(), err)
	}
	if !ok || token.IsExpired(stored, r.now()) {
		return "", ctxerrors.TokenUnavailableError(acct.Key())
	}
	return stored, nil
}

// Refresh renews one account's token when it is missing or expired, or
// unconditionally with force.
func (r *Runner) Refresh(ctx context.Context, acct *accounts.Account, force bool) (bool, error) {
	_, refreshed, err := r.EnsureToken(ctx, acct, force)
	return refreshed, err
}

// ProcessAccount refreshes the token if needed, reads granted rewards and
// claims every task not yet granted. Failures are recorded, not returned.
func (r *Runner) ProcessAccount(ctx context.Context, acct *accounts.Account) AccountResult {
	name := acct.DisplayName()
	log := slog.With("account", acct.Key(), "name", name)
	log.Info(fmt.Sprintf("Account %s - %s", acct.Key(), name))

	res := AccountResult{Account: acct.Key(), Name: name}

	bearer, refreshed, err := r.EnsureToken(ctx, acct, false)
	res.TokenRefreshed = refreshed
	if err != nil {
		log.Error("Failed to get token, moving to next account", "error", err)
		res.Error = err.Error()
		return res
	}

	tgAuth := acct.Form()

	var granted []int
	rewards, err := r.client.UserRewards(ctx, bearer, tgAuth)
	if err != nil {
		log.Warn("Unable to get rewards", "error", err)
		res.RewardsError = err.Error()
	} else {
		granted = coub.RewardIDs(rewards)
		res.Rewards = len(rewards)
	}

	pending, completed := tasks.Split(r.tasks, granted)
	done := make(map[int]bool, len(completed))
	for _, t := range completed {
		done[t.ID] = true
	}

	log.Debug("Task status", "pending", len(pending), "completed", len(completed))

	// Keep task file order in the result.
	for _, t := range r.tasks {
		if done[t.ID] {
			log.Info(fmt.Sprintf("%s | Completed", t.Title), "task", t.ID)
			res.Tasks = append(res.Tasks, TaskResult{ID: t.ID, Title: t.Title, Outcome: OutcomeDone})
			continue
		}
		if ctx.Err() != nil {
			break
		}
		log.Info(fmt.Sprintf("Performing task %s", t.Title), "task", t.ID)
		res.Tasks = append(res.Tasks, r.claim(ctx, log, bearer, tgAuth, t))
	}

	return res
}

func (r *Runner) claim(ctx context.Context, log *slog.Logger, bearer, tgAuth string, t tasks.Task) TaskResult {
	out := TaskResult{ID: t.ID, Title: t.Title}
	if _, err := r.client.CompleteTask(ctx, bearer, tgAuth, t.ID); err != nil {
		log.Warn(fmt.Sprintf("Task %s Failed", t.Title), "task", t.ID, "error", err)
		out.Outcome = OutcomeFailed
		out.Error = err.Error()
		return out
	}
	log.Info(fmt.Sprintf("Task %s Completed", t.Title), "task", t.ID)
	out.Outcome = OutcomeClaimed
	return out
}

// RunCycle processes every account once. The only error it returns is the
// context's.
func (r *Runner) RunCycle(ctx context.Context) (CycleSummary, error) {
	summary := CycleSummary{RunID: uuid.NewString(), StartedAt: r.now()}
	log := slog.With("run_id", summary.RunID)
	log.Info("Starting cycle", "accounts", len(r.accounts), "tasks", len(r.tasks))

	for i, acct := range r.accounts {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = r.now()
			return summary, err
		}
		summary.add(r.ProcessAccount(ctx, acct))

		if i < len(r.accounts)-1 {
			if err := r.sleep(ctx, r.opts.AccountDelay); err != nil {
				summary.FinishedAt = r.now()
				return summary, err
			}
		}
	}

	summary.FinishedAt = r.now()
	log.Info("Cycle finished",
		"claimed", summary.Claimed,
		"already_completed", summary.Completed,
		"failed", summary.Failed,
		"skipped_accounts", summary.Skipped)
	return summary, ctx.Err()
}

// NextDelay is CycleDelay plus a uniform random share of CycleJitter.
func (r *Runner) NextDelay() time.Duration {
	d := r.opts.CycleDelay
	if r.opts.CycleJitter > 0 {
		d += time.Duration(r.jitter(int64(r.opts.CycleJitter)))
	}
	return d.Round(time.Second)
}

// Run repeats RunCycle until ctx ends (or once with Options.Once), calling
// onCycle after each cycle when non-nil.
func (r *Runner) Run(ctx context.Context, onCycle func(CycleSummary)) error {
	for {
		summary, err := r.RunCycle(ctx)
		if onCycle != nil {
			onCycle(summary)
		}
		if err != nil {
			return err
		}
		if r.opts.Once {
			return nil
		}
		if err := r.countdown(ctx, r.NextDelay()); err != nil {
			return err
		}
	}
}
