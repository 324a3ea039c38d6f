// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aleutian-oss/concore/services/concore/model"
)

var (
	scoreGoodStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ecc71"))
	scoreWarnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f1c40f"))
	scoreBadStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e74c3c"))
	headingStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// colorEnabled reports whether stdout is an interactive TTY and the user
// did not pass --no-color, mirroring the teacher's ux package's
// terminal-vs-pipe detection.
func colorEnabled() bool {
	if analyzeNoColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 85:
		return scoreGoodStyle
	case score >= 60:
		return scoreWarnStyle
	default:
		return scoreBadStyle
	}
}

// printSummary writes a short human-readable summary of report to cmd's
// stderr, ahead of the rendered report itself on stdout, so piping stdout
// to a file still shows the operator what happened.
func printSummary(cmd *cobra.Command, report *model.Report) {
	out := cmd.ErrOrStderr()
	color := colorEnabled()

	render := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	fmt.Fprintln(out, render(headingStyle, "concore analysis"))
	fmt.Fprintf(out, "quality score: %s\n", render(scoreStyle(report.Summary.QualityScore), fmt.Sprintf("%.1f/100", report.Summary.QualityScore)))
	fmt.Fprintf(out, "  clarity: %.1f  connascence: %.1f  nasa: %.1f\n",
		report.Summary.ClarityScore, report.Summary.ConnascenceScore, report.Summary.NASAScore)

	fmt.Fprintf(out, "violations: %d kept, %d waived\n", len(report.Violations), len(report.WaivedViolations))
	for _, sev := range severitiesDesc() {
		if n := report.Summary.BySeverity[sev.String()]; n > 0 {
			fmt.Fprintf(out, "  %-8s %d\n", sev.String(), n)
		}
	}

	if report.Metrics.FilesAnalyzed > 0 {
		fmt.Fprintf(out, "files analyzed: %d\n", report.Metrics.FilesAnalyzed)
	}
	if len(report.Metrics.Diagnostics) > 0 {
		fmt.Fprintln(out, render(dimStyle, fmt.Sprintf("diagnostics: %d", len(report.Metrics.Diagnostics))))
	}
	if report.Summary.BudgetViolated {
		fmt.Fprintln(out, render(scoreBadStyle, "budget violated"))
	}
}

func severitiesDesc() []model.Severity {
	return []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium,
		model.SeverityLow, model.SeverityInfo,
	}
}
