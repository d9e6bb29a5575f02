package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FormatHMS renders a number of seconds as zero-padded HH:MM:SS. Hours are
// not wrapped at 24.
func FormatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// tick is the countdown redraw interval, shortened in tests.
var tick = time.Second

// Countdown blocks for d. On a terminal it redraws "Time remaining" in place
// once per tick; otherwise it only logs the wait. It returns ctx.Err() if
// the context ends first.
func (u *UI) Countdown(ctx context.Context, d time.Duration) error {
	remaining := int(d.Round(time.Second) / time.Second)
	slog.Info("Waiting to continue...", "duration", d.Round(time.Second).String())

	if !u.tty {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		slog.Info("Resuming operations...")
		return nil
	}

	_, _ = fmt.Fprintf(u.out, "Time remaining: %s", FormatHMS(remaining))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(u.out)
			return ctx.Err()
		case <-ticker.C:
			remaining--
			_, _ = fmt.Fprintf(u.out, "\r\033[2KTime remaining: %s", FormatHMS(remaining))
		}
	}
	_, _ = fmt.Fprintln(u.out)
	slog.Info("Resuming operations...")
	return nil
}
