// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coreerr defines the error taxonomy shared across the analysis
// pipeline (spec.md §7). Errors local to a single file never abort a run;
// only the sentinels in the "fatal" block below do.
package coreerr

import (
	"errors"
	"fmt"
)

// Fatal errors abort the run before (or during) file discovery / policy
// loading. They are returned from AnalyzePaths / LoadPolicy directly.
var (
	ErrInputNotFound    = errors.New("input path not found")
	ErrPolicyInvalid    = errors.New("policy invalid")
	ErrPolicyNotFound   = errors.New("policy not found")
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrCancelled        = errors.New("analysis cancelled")
)

// Recoverable conditions. These are never returned as Go errors from the
// public API; they are converted to diagnostics or synthetic violations by
// the component that detects them. They are exported here so every
// component spells the same kind string in Report.metrics.diagnostics.
const (
	KindParseError  = "PARSE_ERROR"
	KindTimeout     = "TIMEOUT"
	KindCancelled   = "CANCELLED"
	KindInternal    = "INTERNAL"
	KindWaiverExpired = "WAIVER_EXPIRED"
	KindSkippedSize = "SKIPPED_TOO_LARGE"
	KindSkippedUnreadable = "SKIPPED_UNREADABLE"
	KindPartialResults = "PARTIAL_RESULTS"
)

// FileError wraps a fatal-looking error with the file path it occurred on,
// matching the shape of the teacher's ast.ParseError (location-carrying
// wrapped error, unwrappable via errors.As).
type FileError struct {
	Path    string
	Kind    string
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
}

func (e *FileError) Unwrap() error { return e.Cause }

// NewFileError constructs a FileError for a recoverable per-file condition.
func NewFileError(kind, path, message string, cause error) *FileError {
	return &FileError{Kind: kind, Path: path, Message: message, Cause: cause}
}
