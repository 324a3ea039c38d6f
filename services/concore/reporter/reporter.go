// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reporter renders a model.Report in the three formats spec.md §4.8
// requires: JSON, SARIF 2.1.0, and Markdown. Every format is a pure function
// of the Report; none of them re-derive or mutate scores or ordering.
package reporter

import (
	"fmt"

	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
)

// Format identifies a supported output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatSARIF    Format = "sarif"
	FormatMarkdown Format = "markdown"
)

// Render dispatches to the renderer for format. An unrecognized format
// returns an error naming the offending value.
func Render(format Format, report *model.Report, toolVersion string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return RenderJSON(report)
	case FormatSARIF:
		return RenderSARIF(report, toolVersion)
	case FormatMarkdown:
		return RenderMarkdown(report), nil
	default:
		return nil, fmt.Errorf("%w: %q", coreerr.ErrUnsupportedFormat, format)
	}
}
