package utils

import (
	"strings"

	"github.com/PolarWolf314/condlock/internal/ui"
)

// FormatList formats items as an indented bullet list, one per line.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("    - ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	styled := make([]string, len(paths))
	for i, p := range paths {
		styled[i] = ui.Path.Sprint(p)
	}
	return FormatList(styled)
}

// Ellipsize shortens s to at most n runes, marking the cut with "...".
func Ellipsize(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
