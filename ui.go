package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorDim    = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
)

// printSummary writes the end-of-run report.
func printSummary(w io.Writer, s *summary) {
	fmt.Fprintln(w, renderSummary(s))
}

func renderSummary(s *summary) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("linemap") + " " + styleDim.Render("run "+s.RunID) + "\n")

	if s.DryRun {
		fmt.Fprintf(&b, "%s laid out %s line(s), nothing written\n",
			styleSuccess.Render(iconSuccess), styleNumber.Render(fmt.Sprint(s.Lines)))
	} else {
		fmt.Fprintf(&b, "%s exported %s of %s line(s) as %s\n",
			styleSuccess.Render(iconSuccess),
			styleNumber.Render(fmt.Sprint(len(s.Files))),
			styleNumber.Render(fmt.Sprint(s.Lines)),
			strings.ToUpper(s.Format))
	}
	if s.Warnings > 0 {
		fmt.Fprintf(&b, "%s %s\n", styleWarning.Render(iconWarning),
			styleWarning.Render(fmt.Sprintf("%d line(s) with warnings, see log", s.Warnings)))
	}
	detail := func(label, value string) {
		b.WriteString("  " + styleDim.Render(fmt.Sprintf("%-10s %s", label, value)) + "\n")
	}
	detail("data", s.DataRoot)
	detail("export", s.ExportRoot)
	detail("location", s.LocationTemplate)
	detail("config", s.ConfigPath)
	detail("elapsed", s.Elapsed.Round(time.Millisecond).String())
	return strings.TrimRight(b.String(), "\n")
}
