package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter renders one kind of CLI content. With colour it paints the text,
// without colour it wraps the text in prefix and suffix.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func style(attr color.Attribute, prefix, suffix string) Formatter {
	return Formatter{color: color.New(attr), prefix: prefix, suffix: suffix}
}

// Sprint formats like fmt.Sprint.
func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats like fmt.Sprintf.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor honours NO_COLOR (https://no-color.org/) and fatih/color's own
// terminal detection.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code is a runnable command: `condlock note decrypt`.
	Code = style(color.FgYellow, "`", "`")
	// Path is a file or directory.
	Path = style(color.FgYellow, "", "")
	// Flag is a command-line flag such as --unlock-at.
	Flag = style(color.FgYellow, "", "")

	Success = style(color.FgGreen, "", "")
	Error   = style(color.FgRed, "", "")
	Warning = style(color.FgYellow, "", "")
	// Info marks hints and next steps.
	Info = style(color.FgCyan, "", "")

	// Highlight is a user value: an asset symbol, a price, a digest.
	Highlight = style(color.FgCyan, "'", "'")
	// Muted is secondary detail such as a predicate or a round ID.
	Muted = style(color.FgHiBlack, "(", ")")
)

// statusStyles colours oracle statuses. Anything else renders as a warning.
var statusStyles = map[string]Formatter{
	"met":     Success,
	"not met": Error,
}

// Status renders an oracle status ("met", "not met", "unavailable") as a badge.
func Status(status string) string {
	if noColor() {
		return "[" + status + "]"
	}
	f, ok := statusStyles[status]
	if !ok {
		f = Warning
	}
	return f.Sprint(status)
}
