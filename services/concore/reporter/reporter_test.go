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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aleutian-oss/concore/services/concore/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Version: "1.0",
		Tool:    model.Tool{Name: "concore", Version: "0.1.0"},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Summary: model.Summary{
			BySeverity:   map[string]int{"HIGH": 1, "LOW": 1},
			QualityScore: 93,
		},
		Violations: []model.Violation{
			{RuleID: "clarity/long-line", Kind: model.KindClarity, Severity: model.SeverityHigh, FilePath: "a.go", Line: 10, Column: 1, Description: "line too long", Fingerprint: "f1"},
			{RuleID: "connascence/CoP", Kind: model.KindConnascence, Severity: model.SeverityLow, FilePath: "b.go", Line: 2, Column: 3, Description: "too many parameters", Fingerprint: "f2"},
		},
		WaivedViolations: []model.Violation{
			{RuleID: "nasa/NASA-6", FilePath: "c.go", Line: 4, Description: "waived thing", Fingerprint: "f3"},
		},
		Metrics: model.Metrics{
			FilesAnalyzed: 2,
			Diagnostics:   []model.Diagnostic{{FilePath: "d.go", Kind: "TIMEOUT", Message: "exceeded per-file timeout"}},
		},
	}
}

func TestRenderJSON_RoundTripsSeverityAsString(t *testing.T) {
	data, err := RenderJSON(sampleReport())
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	if !strings.Contains(string(data), `"severity": "HIGH"`) {
		t.Errorf("expected severity serialized as string HIGH, got: %s", data)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Violations[0].Severity != model.SeverityHigh {
		t.Errorf("round-tripped severity = %v, want High", decoded.Violations[0].Severity)
	}
}

func TestRenderSARIF_ProducesValidEnvelope(t *testing.T) {
	data, err := RenderSARIF(sampleReport(), "0.1.0")
	if err != nil {
		t.Fatalf("RenderSARIF: %v", err)
	}
	var doc SARIFReport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Version != "2.1.0" {
		t.Errorf("Version = %s, want 2.1.0", doc.Version)
	}
	// sampleReport has one clarity and one connascence violation, so two
	// kind-scoped runs are expected, each with a single result.
	if len(doc.Runs) != 2 {
		t.Fatalf("Runs = %d, want 2 (one per contributing kind)", len(doc.Runs))
	}
	var clarityRun *SARIFRun
	for i := range doc.Runs {
		if len(doc.Runs[i].Tool.Driver.Rules) == 1 && doc.Runs[i].Results[0].RuleID == "clarity/long-line" {
			clarityRun = &doc.Runs[i]
		}
	}
	if clarityRun == nil {
		t.Fatalf("no run found for clarity/long-line")
	}
	if clarityRun.Results[0].Level != "error" {
		t.Errorf("Level = %s, want error for High severity", clarityRun.Results[0].Level)
	}
	if clarityRun.Results[0].PartialFingerprints["canonicalFingerprint"] != "f1" {
		t.Errorf("canonicalFingerprint = %s, want f1", clarityRun.Results[0].PartialFingerprints["canonicalFingerprint"])
	}
}

func TestRenderSARIF_OmitsWaivedViolations(t *testing.T) {
	data, err := RenderSARIF(sampleReport(), "0.1.0")
	if err != nil {
		t.Fatalf("RenderSARIF: %v", err)
	}
	if strings.Contains(string(data), "NASA-6") {
		t.Error("SARIF output should not contain waived violations")
	}
}

func TestRenderMarkdown_ContainsSections(t *testing.T) {
	out := string(RenderMarkdown(sampleReport()))
	for _, want := range []string{"# concore quality report", "## HIGH (1)", "## LOW (1)", "## Waived (1)", "## Diagnostics (1)", "clarity/long-line"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, err := Render(Format("yaml"), sampleReport(), "0.1.0")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRender_DispatchesToEachFormat(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatSARIF, FormatMarkdown} {
		if _, err := Render(f, sampleReport(), "0.1.0"); err != nil {
			t.Errorf("Render(%s): %v", f, err)
		}
	}
}
