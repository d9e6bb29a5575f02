// Package ui provides terminal color support and UX polish for coubctl.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colors based on terminal capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities.
	ColorAlways
	// ColorNever disables all colored output.
	ColorNever
)

// ParseColorMode maps auto|always|never; anything else is auto.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// UI writes status lines, the banner and the countdown. Output goes to
// stderr by default, leaving stdout for data.
type UI struct {
	out *termenv.Output
	tty bool
}

// New creates a UI writing to w (stderr when nil).
// It respects the NO_COLOR environment variable (POSIX standard).
func New(w io.Writer, mode ColorMode) *UI {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("NO_COLOR") != "" {
		mode = ColorNever
	}

	tty := isTerminal(w)
	profile := termenv.Ascii
	switch mode {
	case ColorAlways:
		profile = termenv.ColorProfile()
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	case ColorAuto:
		if tty {
			profile = termenv.ColorProfile()
		}
	}

	return &UI{
		out: termenv.NewOutput(w, termenv.WithProfile(profile)),
		tty: tty,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Success prints a success message in green.
func (u *UI) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("✓ "+msg).Foreground(termenv.ANSIGreen))
}

// Warning prints a warning message in yellow.
func (u *UI) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("⚠ "+msg).Foreground(termenv.ANSIYellow))
}

// Error prints an error message in red.
func (u *UI) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("✗ "+msg).Foreground(termenv.ANSIRed))
}

const bannerArt = `
  ___ ___  _   _ ___  ___ _____ _
 / __/ _ \| | | | _ )/ __|_   _| |
| (_| (_) | |_| | _ \ (__  | | | |__
 \___\___/ \___/|___/\___| |_| |____|
`

// PrintBanner prints the start-up banner with the version.
func (u *UI) PrintBanner(version string) {
	_, _ = fmt.Fprint(u.out, u.out.String(bannerArt).Foreground(termenv.ANSICyan).Bold())
	_, _ = fmt.Fprintln(u.out, u.out.String("  rewards task claimer "+version).Faint())
	_, _ = fmt.Fprintln(u.out)
}
