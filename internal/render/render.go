// Package render writes command results to a terminal sink: lipgloss
// tables for listings and fatih/color status lines for everything else.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

var (
	headingColor = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	hintColor    = color.New(color.FgCyan)

	titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

// Sink is the output side of every command.
type Sink struct {
	w   io.Writer
	loc *time.Location
}

// New returns a sink writing to w. Dates are shown in loc.
func New(w io.Writer, loc *time.Location) *Sink {
	if loc == nil {
		loc = time.Local
	}
	return &Sink{w: w, loc: loc}
}

func (s *Sink) Heading(text string) {
	headingColor.Fprintf(s.w, "\n--- %s ---\n", text)
}

func (s *Sink) Success(format string, args ...any) {
	successColor.Fprintf(s.w, format+"\n", args...)
}

func (s *Sink) Warn(format string, args ...any) {
	warnColor.Fprintf(s.w, format+"\n", args...)
}

func (s *Sink) Hint(format string, args ...any) {
	hintColor.Fprintf(s.w, format+"\n", args...)
}

func (s *Sink) Line(format string, args ...any) {
	fmt.Fprintf(s.w, format+"\n", args...)
}

// Error prints err in red with a prefix naming its category.
func (s *Sink) Error(err error) {
	errorColor.Fprintf(s.w, "%s: %v\n", errorLabel(err), err)
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return "Invalid input"
	case errors.Is(err, core.ErrNotFound):
		return "Not found"
	case errors.Is(err, core.ErrIO):
		return "Storage error"
	case errors.Is(err, core.ErrMalformedRecord):
		return "Malformed data"
	}
	return "Error"
}

func statusColor(st analytics.Status) *color.Color {
	switch st {
	case analytics.StatusWarning:
		return warnColor
	case analytics.StatusOver:
		return errorColor
	}
	return successColor
}

// ProgressBar draws utilisation as ten blocks, full at 100% and above.
func ProgressBar(utilization float64) string {
	filled := int(utilization / 10)
	filled = min(max(filled, 0), 10)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]"
}

func (s *Sink) title(text string) {
	fmt.Fprintln(s.w, titleStyle.Render(text))
}
