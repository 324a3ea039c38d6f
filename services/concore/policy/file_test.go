// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
)

func writePolicyFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writePolicyFile(t, "policy.yaml", `
preset: service-defaults
thresholds:
  max_parameters: 3
fail_on: high
budgets:
  critical: 0
waivers:
  - rule_id: connascence/CoP
    path_pattern: "src/legacy/**"
    expires_on: "2020-01-01"
`)
	p, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, p.Thresholds.MaxParameters)
	require.Equal(t, model.SeverityHigh, p.FailOn)
	require.Equal(t, 0, p.Budgets[model.SeverityCritical])
	require.Len(t, p.Waivers, 1)
	require.Equal(t, "connascence/CoP", p.Waivers[0].RuleID)
	require.True(t, p.Waivers[0].ExpiresOn.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoadFromFile_TOML(t *testing.T) {
	path := writePolicyFile(t, "policy.toml", `
preset = "strict-core"
fail_on = "critical"

[thresholds]
max_parameters = 2
`)
	p, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, p.Thresholds.MaxParameters)
	require.Equal(t, model.SeverityCritical, p.FailOn)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writePolicyFile(t, "policy.json", `{
		"preset": "modern-general",
		"fail_on": "medium",
		"thresholds": {"max_parameters": 4}
	}`)
	p, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, p.Thresholds.MaxParameters)
	require.Equal(t, model.SeverityMedium, p.FailOn)
}

func TestLoadFromFile_JSONMissingPresetFailsSchemaValidation(t *testing.T) {
	path := writePolicyFile(t, "policy.json", `{"fail_on": "high"}`)
	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.ErrorIs(t, err, coreerr.ErrPolicyInvalid)
}

func TestLoadFromFile_UnknownExtensionIsInvalid(t *testing.T) {
	path := writePolicyFile(t, "policy.ini", "preset=service-defaults\n")
	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, coreerr.ErrPolicyInvalid)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, coreerr.ErrPolicyNotFound)
}

func TestLoadFromFile_MissingRequiredPresetFieldYAML(t *testing.T) {
	path := writePolicyFile(t, "policy.yaml", "fail_on: high\n")
	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, coreerr.ErrPolicyInvalid)
}

func TestLoadFromFile_UnknownPresetName(t *testing.T) {
	path := writePolicyFile(t, "policy.yaml", "preset: not-a-real-preset\n")
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromFile_TooLargeIsRejected(t *testing.T) {
	path := writePolicyFile(t, "policy.yaml", "preset: service-defaults\n# "+strings.Repeat("x", MaxPolicyFileSize+1))
	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, coreerr.ErrPolicyInvalid)
}

func TestLoadFromFile_BadWaiverDateIsInvalid(t *testing.T) {
	path := writePolicyFile(t, "policy.yaml", `
preset: service-defaults
waivers:
  - rule_id: connascence/CoP
    path_pattern: "**"
    expires_on: "not-a-date"
`)
	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, coreerr.ErrPolicyInvalid)
}

func TestIsPresetName(t *testing.T) {
	require.True(t, IsPresetName(PresetServiceDefaults))
	require.False(t, IsPresetName("/path/to/policy.yaml"))
}
