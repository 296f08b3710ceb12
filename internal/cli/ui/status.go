package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Check prints a pass/fail line for one observation
func Check(w io.Writer, ok bool, format string, args ...any) {
	CheckNoColor(w, ok, false, format, args...)
}

// CheckNoColor prints a pass/fail line, optionally without color
func CheckNoColor(w io.Writer, ok bool, noColor bool, format string, args ...any) {
	mark := newColor(noColor, color.FgGreen, color.Bold)
	symbol := "✓"
	if !ok {
		mark = newColor(noColor, color.FgRed, color.Bold)
		symbol = "✗"
	}
	mark.Fprint(w, symbol)
	fmt.Fprintf(w, " %s\n", fmt.Sprintf(format, args...))
}

// Heading prints a bold section title
func Heading(w io.Writer, noColor bool, title string) {
	newColor(noColor, color.Bold).Fprintln(w, title)
}
