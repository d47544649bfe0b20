// Package cliux provides the terminal UX for the manual "index"
// subcommand: colored status lines and a progress bar when attached
// to a terminal.
package cliux

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// IsTerminal reports whether stdout is attached to an interactive
// terminal, used to decide whether a progress bar is worth drawing.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Info prints a blue status line.
func Info(format string, args ...interface{}) {
	color.Blue(format, args...)
}

// Warning prints a cyan status line.
func Warning(format string, args ...interface{}) {
	color.Cyan(format, args...)
}

// Error prints a red status line to stderr.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
}

// Bar returns a progress bar over total items when attached to a
// terminal, or a no-op bar otherwise so piping output never emits
// escape codes.
func Bar(total int, description string) *progressbar.ProgressBar {
	if !IsTerminal() {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
}

// Summarize prints a one-line completion summary.
func Summarize(totalIdentities int) {
	fmt.Printf("\n")
	Info("project registry now holds %d blob identities", totalIdentities)
}
