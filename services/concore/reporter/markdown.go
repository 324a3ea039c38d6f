// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/model"
)

// severityOrder lists every severity from most to least severe, for
// section headings in the human-readable summary.
var severityOrder = []model.Severity{
	model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow, model.SeverityInfo,
}

// maxViolationsPerSection caps how many violations each severity section
// lists; the rest are summarized by count so a large report stays readable.
const maxViolationsPerSection = 50

// RenderMarkdown renders report as a human-readable Markdown document: a
// summary table of scores and severity counts, a per-detector metrics
// table, followed by one section per severity listing its first 50
// violations in the report's existing deterministic order.
func RenderMarkdown(report *model.Report) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s quality report\n\n", report.Tool.Name)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Overall quality score | %.1f |\n", report.Summary.QualityScore)
	fmt.Fprintf(&b, "| Clarity | %.1f |\n", report.Summary.ClarityScore)
	fmt.Fprintf(&b, "| Connascence | %.1f |\n", report.Summary.ConnascenceScore)
	fmt.Fprintf(&b, "| NASA Power-of-Ten | %.1f |\n", report.Summary.NASAScore)
	fmt.Fprintf(&b, "| Files analyzed | %d |\n", report.Metrics.FilesAnalyzed)
	fmt.Fprintf(&b, "| Budget violated | %t |\n", report.Summary.BudgetViolated)
	b.WriteString("\n")

	b.WriteString("### Violations by severity\n\n")
	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range severityOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", sev.String(), report.Summary.BySeverity[sev.String()])
	}
	b.WriteString("\n")

	if len(report.Summary.ByDetector) > 0 {
		b.WriteString("### Detector metrics\n\n")
		b.WriteString("| Detector | Violations |\n|---|---|\n")
		detectors := make([]string, 0, len(report.Summary.ByDetector))
		for d := range report.Summary.ByDetector {
			detectors = append(detectors, d)
		}
		sort.Strings(detectors)
		for _, d := range detectors {
			fmt.Fprintf(&b, "| %s | %d |\n", d, report.Summary.ByDetector[d])
		}
		b.WriteString("\n")
	}

	bySeverity := make(map[model.Severity][]model.Violation, len(severityOrder))
	for _, v := range report.Violations {
		bySeverity[v.Severity] = append(bySeverity[v.Severity], v)
	}

	for _, sev := range severityOrder {
		vs := bySeverity[sev]
		if len(vs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", sev.String(), len(vs))
		shown := vs
		if len(shown) > maxViolationsPerSection {
			shown = shown[:maxViolationsPerSection]
		}
		for _, v := range shown {
			fmt.Fprintf(&b, "- `%s` **%s:%d:%d** %s\n", v.RuleID, v.FilePath, v.Line, v.Column, v.Description)
			if v.Recommendation != "" {
				fmt.Fprintf(&b, "  - Recommendation: %s\n", v.Recommendation)
			}
		}
		if len(vs) > maxViolationsPerSection {
			fmt.Fprintf(&b, "- _(%d more %s violations omitted)_\n", len(vs)-maxViolationsPerSection, sev.String())
		}
		b.WriteString("\n")
	}

	if len(report.WaivedViolations) > 0 {
		fmt.Fprintf(&b, "## Waived (%d)\n\n", len(report.WaivedViolations))
		for _, v := range report.WaivedViolations {
			fmt.Fprintf(&b, "- `%s` **%s:%d:%d** %s\n", v.RuleID, v.FilePath, v.Line, v.Column, v.Description)
		}
		b.WriteString("\n")
	}

	if len(report.Metrics.Diagnostics) > 0 {
		fmt.Fprintf(&b, "## Diagnostics (%d)\n\n", len(report.Metrics.Diagnostics))
		sorted := append([]model.Diagnostic{}, report.Metrics.Diagnostics...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })
		for _, d := range sorted {
			fmt.Fprintf(&b, "- **%s** [%s] %s\n", d.FilePath, d.Kind, d.Message)
		}
	}

	return []byte(b.String())
}
