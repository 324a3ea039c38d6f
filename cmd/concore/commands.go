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
	"github.com/spf13/cobra"
)

// Exit codes for the concore binary (spec.md §6's exit-code contract).
const (
	exitSuccess         = 0
	exitUnexpectedError = 1
	exitConfigError     = 2
	exitBudgetViolated  = 4
	exitInterrupted     = 130
)

// --- analyze flags ---
var (
	analyzePolicy          string
	analyzeFormat          string
	analyzeOutput          string
	analyzeWorkers         int
	analyzePerFileTimeout  int
	analyzeCacheCapacity   int64
	analyzeMaxFileSize     int64
	analyzeInclude         []string
	analyzeExclude         []string
	analyzeIncludeWaived   bool
	analyzeFailOn          string
	analyzeDeterminism     bool
	analyzeDiskCacheDir    string
	analyzeNoColor         bool
)

var rootCmd = &cobra.Command{
	Use:   "concore",
	Short: "Multi-dimensional static code-quality analyzer",
	Long: `concore scans a codebase for connascence, NASA Power-of-Ten, clarity,
duplication and structural violations and emits a scored Report in JSON,
SARIF 2.1.0, or Markdown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Analyze one or more paths and emit a Report",
	Long: `analyze walks the given paths, runs every registered detector under the
resolved policy, and renders the resulting Report.

Examples:
  concore analyze .
  concore analyze ./src --policy service-defaults --format sarif
  concore analyze . --policy ./policy.yaml --fail-on high --output report.json

Exit Codes:
  0   = success, no budget/fail-on violation
  1   = unexpected error
  2   = configuration error (bad policy, bad path)
  4   = budget or fail-on threshold violated
  130 = interrupted`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "service-defaults",
		"Policy preset name or path to a YAML/TOML/JSON policy file")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json",
		"Report format: json, sarif, markdown")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"Write the rendered report here instead of stdout")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0,
		"Worker count (0 = orchestrator default)")
	analyzeCmd.Flags().IntVar(&analyzePerFileTimeout, "per-file-timeout-ms", 0,
		"Per-file analysis timeout in milliseconds (0 = default 30s)")
	analyzeCmd.Flags().Int64Var(&analyzeCacheCapacity, "cache-capacity", 0,
		"AST cache entry ceiling (0 = default)")
	analyzeCmd.Flags().Int64Var(&analyzeMaxFileSize, "max-file-size-bytes", 0,
		"Skip files larger than this many bytes (0 = no ceiling)")
	analyzeCmd.Flags().StringSliceVar(&analyzeInclude, "include", nil,
		"Only analyze files matching these glob patterns")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil,
		"Skip files matching these glob patterns")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeWaived, "include-waived", false,
		"Merge waived violations back into the main violation list")
	analyzeCmd.Flags().StringVar(&analyzeFailOn, "fail-on", "",
		"Minimum severity that causes a non-zero exit (overrides the policy's fail_on)")
	analyzeCmd.Flags().BoolVar(&analyzeDeterminism, "determinism", true,
		"Zero every wall-clock metric so identical input reproduces byte-identical output")
	analyzeCmd.Flags().StringVar(&analyzeDiskCacheDir, "disk-cache-dir", "",
		"Enable the on-disk AST cache tier at this directory")
	analyzeCmd.Flags().BoolVar(&analyzeNoColor, "no-color", false,
		"Disable colorized summary output")
}
