// Package ui provides the terminal styling for resgen command output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Success = lipgloss.Color("#8BC34A") // Lime Green
	Warning = lipgloss.Color("#FFC107") // Yellow
	Muted   = lipgloss.Color("#6b7280")
	Info    = lipgloss.Color("#2196F3") // Blue
)

// Styles holds the styles used for command output.
type Styles struct {
	Title   lipgloss.Style
	Path    lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the standard output styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),
		Path: lipgloss.NewStyle().
			Foreground(Info),
		Muted: lipgloss.NewStyle().
			Foreground(Muted),
		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),
	}
}

// Summary is what a generation pass reports to the user.
type Summary struct {
	Input    string
	Files    []string
	Records  int
	Skipped  int
	Rejected []string
}

// RenderSummary writes a short report of one pass to w.
func (s Styles) RenderSummary(w io.Writer, sum Summary) error {
	var b strings.Builder

	if len(sum.Files) == 0 {
		b.WriteString(s.Title.Render("No resource bundles generated"))
	} else {
		b.WriteString(s.Title.Render(fmt.Sprintf("Generated %d resource bundle(s)", len(sum.Files))))
	}
	b.WriteString(s.Muted.Render(fmt.Sprintf(" from %s (%d records, %d skipped)", sum.Input, sum.Records, sum.Skipped)))
	b.WriteByte('\n')

	for _, f := range sum.Files {
		b.WriteString("  ")
		b.WriteString(s.Path.Render(f))
		b.WriteByte('\n')
	}
	for _, lang := range sum.Rejected {
		b.WriteString("  ")
		b.WriteString(s.Warning.Render(fmt.Sprintf("skipped language %q", lang)))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderWarning writes a single warning line to w.
func (s Styles) RenderWarning(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, s.Warning.Render("warning:")+" "+msg)
	return err
}
