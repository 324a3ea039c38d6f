// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the data types shared by every stage of the
// analysis pipeline: SourceFile, Violation, Policy and Report (spec.md §3).
package model

import (
	"encoding/json"
	"time"
)

// Language is one of the eight languages the pipeline understands.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangJava       Language = "java"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangUnknown    Language = ""
)

// SourceFile is an immutable record of a discovered input unit (spec.md §3).
type SourceFile struct {
	Path        string // absolute, canonicalized
	RelPath     string // relative to project root, forward-slash separated
	Language    Language
	ContentHash string // sha-256 truncated to 128 bits (32 hex chars)
	SizeBytes   int64
	Content     []byte
}

// Kind classifies a Violation into one of spec.md §3's five buckets.
type Kind string

const (
	KindConnascence Kind = "connascence"
	KindNASA        Kind = "nasa"
	KindStructural  Kind = "structural"
	KindClarity     Kind = "clarity"
	KindDuplication Kind = "duplication"
)

// ConnascenceType is one of the nine canonical connascence categories.
type ConnascenceType string

const (
	ConnascenceName      ConnascenceType = "Name"
	ConnascenceOfType    ConnascenceType = "Type"
	ConnascenceMeaning   ConnascenceType = "Meaning"
	ConnascencePosition  ConnascenceType = "Position"
	ConnascenceAlgorithm ConnascenceType = "Algorithm"
	ConnascenceExecution ConnascenceType = "Execution"
	ConnascenceTiming    ConnascenceType = "Timing"
	ConnascenceValue     ConnascenceType = "Value"
	ConnascenceIdentity  ConnascenceType = "Identity"
)

// Severity is the five-level severity scale of spec.md §3. Ordered so that
// int comparison gives escalation/descending-sort semantics directly.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	default:
		return "INFO"
	}
}

// SeverityFromString parses the five recognized spellings, defaulting to
// INFO for anything unrecognized (mirrors the teacher's forgiving
// SeverityFromString in services/trace/lint/types.go).
func SeverityFromString(s string) Severity {
	switch s {
	case "CRITICAL":
		return SeverityCritical
	case "HIGH":
		return SeverityHigh
	case "MEDIUM":
		return SeverityMedium
	case "LOW":
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// MarshalJSON renders Severity as its string name so reports carry
// "CRITICAL"/"HIGH"/etc. rather than the raw int ordinal.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity name via SeverityFromString.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = SeverityFromString(str)
	return nil
}

// Escalate returns the next severity up, or the same value if already
// CRITICAL. Aggregator rules may only ever escalate, never call the
// inverse (spec.md §4.5 rule 2, §8 invariant 3).
func (s Severity) Escalate() Severity {
	if s >= SeverityCritical {
		return s
	}
	return s + 1
}

// Violation is the atomic output unit (spec.md §3).
type Violation struct {
	RuleID          string          `json:"rule_id"`
	Kind            Kind            `json:"kind"`
	ConnascenceType ConnascenceType `json:"connascence_type,omitempty"` // only meaningful when Kind == KindConnascence
	Severity        Severity        `json:"severity"`
	FilePath        string          `json:"file_path"` // relative to project root
	Line            int             `json:"line"`
	Column          int             `json:"column"`
	EndLine         int             `json:"end_line,omitempty"`
	EndColumn       int             `json:"end_column,omitempty"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation,omitempty"`
	Snippet         string          `json:"snippet,omitempty"`
	Fingerprint     string          `json:"fingerprint"`
	Context         map[string]any  `json:"context,omitempty"`
}

// Waiver is a time-boxed exemption (spec.md §3, §4.3).
type Waiver struct {
	RuleID        string    `json:"rule_id"`
	PathPattern   string    `json:"path_pattern"`
	ExpiresOn     time.Time `json:"expires_on,omitempty"`
	Justification string    `json:"justification"`
}

// Diagnostic records a non-violation abnormal event for Report.metrics.diagnostics.
type Diagnostic struct {
	FilePath string `json:"file_path"`
	Kind     string `json:"kind"` // one of coreerr.Kind*
	Message  string `json:"message"`
}

// Metrics summarizes the run (spec.md §3 Report.metrics).
type Metrics struct {
	FilesAnalyzed  int           `json:"files_analyzed"`
	BytesAnalyzed  int64         `json:"bytes_analyzed"`
	WallTime       time.Duration `json:"wall_time_ms"`
	CacheHits      int           `json:"cache_hits"`
	CacheMisses    int           `json:"cache_misses"`
	CacheHitRatio  float64       `json:"cache_hit_ratio"`
	Diagnostics    []Diagnostic  `json:"diagnostics"`
	PartialResults bool          `json:"partial_results"`
}

// Summary holds counts and scores for the Report (spec.md §3).
type Summary struct {
	BySeverity       map[string]int `json:"by_severity"`
	ByKind           map[string]int `json:"by_kind"`
	ByDetector       map[string]int `json:"by_detector"`
	QualityScore     float64        `json:"quality_score"`
	ClarityScore     float64        `json:"clarity_score"`
	ConnascenceScore float64        `json:"connascence_score"`
	NASAScore        float64        `json:"nasa_score"`
	BudgetViolated   bool           `json:"budget_violated"`
}

// Tool identifies the analyzer that produced a Report.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Report is the top-level emitted artifact (spec.md §3).
type Report struct {
	Version          string      `json:"version"`
	Tool             Tool        `json:"tool"`
	GeneratedAt      time.Time   `json:"generated_at"`
	Summary          Summary     `json:"summary"`
	Violations       []Violation `json:"violations"`
	WaivedViolations []Violation `json:"waived_violations"`
	Metrics          Metrics     `json:"metrics"`
}
