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
	"fmt"

	"github.com/aleutian-oss/concore/services/concore/model"
)

// RenderJSON marshals report as pretty-printed JSON. The aggregator has
// already fixed violation ordering and map keys serialize in sorted
// order, so the output is byte-for-byte reproducible across runs over the
// same input (spec.md §4.1's determinism requirement).
func RenderJSON(report *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("reporter: marshal json report: %w", err)
	}
	return data, nil
}
