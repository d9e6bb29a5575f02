package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatHMS(t *testing.T) {
	tests := map[int]string{
		0:     "00:00:00",
		59:    "00:00:59",
		3661:  "01:01:01",
		90000: "25:00:00",
		-5:    "00:00:00",
	}
	for in, want := range tests {
		if got := FormatHMS(in); got != want {
			t.Errorf("FormatHMS(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParseColorMode(t *testing.T) {
	if ParseColorMode("ALWAYS") != ColorAlways || ParseColorMode("never") != ColorNever || ParseColorMode("x") != ColorAuto {
		t.Error("unexpected color mode parsing")
	}
}

func TestNew_NonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	u := New(&buf, ColorAuto)
	if u.tty {
		t.Fatal("buffer should not be a terminal")
	}
	u.Warning("careful %d", 1)
	if got := buf.String(); got != "⚠ careful 1\n" {
		t.Errorf("Warning() wrote %q", got)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ColorNever).PrintBanner("v1.2.3")
	if !strings.Contains(buf.String(), "v1.2.3") {
		t.Errorf("banner missing version: %q", buf.String())
	}
}

func TestCountdown_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	u := New(&buf, ColorNever)

	start := time.Now()
	if err := u.Countdown(context.Background(), 30*time.Millisecond); err != nil {
		t.Fatalf("Countdown() error = %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("Countdown returned early")
	}
	if buf.Len() != 0 {
		t.Errorf("non-terminal countdown should not redraw, wrote %q", buf.String())
	}
}

func TestCountdown_TerminalRedraws(t *testing.T) {
	orig := tick
	tick = time.Millisecond
	t.Cleanup(func() { tick = orig })

	var buf bytes.Buffer
	u := New(&buf, ColorNever)
	u.tty = true

	if err := u.Countdown(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("Countdown() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Time remaining: 00:00:03", "Time remaining: 00:00:01", "Time remaining: 00:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestCountdown_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := New(&bytes.Buffer{}, ColorNever)
	if err := u.Countdown(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Countdown() error = %v, want canceled", err)
	}
}
