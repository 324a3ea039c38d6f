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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
)

// MaxPolicyFileSize bounds how large a policy document this loader will
// read, matching the teacher's config package's MaxYAMLFileSize guard.
const MaxPolicyFileSize = 1 << 20 // 1MiB

var fileValidate = validator.New()

// fileDocument is the on-disk shape of a policy override file: every field
// spec.md §4.3/§6 documents as overridable, plus the preset it layers onto
// and the waiver list that normally travels alongside it.
type fileDocument struct {
	Preset            string                    `yaml:"preset" toml:"preset" json:"preset" validate:"required"`
	Thresholds        Thresholds                `yaml:"thresholds" toml:"thresholds" json:"thresholds"`
	BlockOn           []string                  `yaml:"block_on" toml:"block_on" json:"block_on"`
	WarnOn            []string                  `yaml:"warn_on" toml:"warn_on" json:"warn_on"`
	Ignore            []string                  `yaml:"ignore" toml:"ignore" json:"ignore"`
	SeverityOverrides map[string]string         `yaml:"severity_overrides" toml:"severity_overrides" json:"severity_overrides"`
	IncludeGlobs      []string                  `yaml:"include" toml:"include" json:"include"`
	ExcludeGlobs      []string                  `yaml:"exclude" toml:"exclude" json:"exclude"`
	FailOn            string                    `yaml:"fail_on" toml:"fail_on" json:"fail_on"`
	Budgets           map[string]int            `yaml:"budgets" toml:"budgets" json:"budgets" validate:"dive,gte=0"`
	Waivers           []fileWaiver              `yaml:"waivers" toml:"waivers" json:"waivers" validate:"dive"`
}

type fileWaiver struct {
	RuleID        string `yaml:"rule_id" toml:"rule_id" json:"rule_id" validate:"required"`
	PathPattern   string `yaml:"path_pattern" toml:"path_pattern" json:"path_pattern" validate:"required"`
	ExpiresOn     string `yaml:"expires_on" toml:"expires_on" json:"expires_on"`
	Justification string `yaml:"justification" toml:"justification" json:"justification"`
}

// policyDocumentSchema is the published JSON schema spec.md §6 requires
// policy documents to validate against, resolved once and reused for every
// JSON-format policy file (YAML/TOML documents are structurally validated
// by their own unmarshalers plus the validator tags above instead, since
// jsonschema-go only understands JSON instances).
var (
	schemaOnce sync.Once
	schema     *jsonschema.Resolved
	schemaErr  error
)

func resolvedSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		raw := &jsonschema.Schema{
			Type:     "object",
			Required: []string{"preset"},
			Properties: map[string]*jsonschema.Schema{
				"preset":  {Type: "string"},
				"budgets": {Type: "object"},
			},
		}
		schema, schemaErr = raw.Resolve(nil)
	})
	return schema, schemaErr
}

// LoadFromFile reads a policy document (YAML, TOML or JSON, dispatched by
// extension) from path and resolves it into a Policy layered on top of the
// preset it names (spec.md §6's "persisted state" policy file formats).
func LoadFromFile(path string) (*Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", coreerr.ErrPolicyNotFound, path)
	}
	if info.Size() > MaxPolicyFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", coreerr.ErrPolicyInvalid, path, MaxPolicyFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", coreerr.ErrPolicyNotFound, path, err)
	}

	var doc fileDocument
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing yaml %s: %v", coreerr.ErrPolicyInvalid, path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing toml %s: %v", coreerr.ErrPolicyInvalid, path, err)
		}
	case ".json":
		resolved, err := resolvedSchema()
		if err != nil {
			return nil, fmt.Errorf("%w: resolving policy schema: %v", coreerr.ErrPolicyInvalid, err)
		}
		var instance any
		if err := json.Unmarshal(raw, &instance); err != nil {
			return nil, fmt.Errorf("%w: parsing json %s: %v", coreerr.ErrPolicyInvalid, path, err)
		}
		if err := resolved.Validate(instance); err != nil {
			return nil, fmt.Errorf("%w: schema validation %s: %v", coreerr.ErrPolicyInvalid, path, err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: decoding json %s: %v", coreerr.ErrPolicyInvalid, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized policy file extension %q", coreerr.ErrPolicyInvalid, ext)
	}

	if err := fileValidate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", coreerr.ErrPolicyInvalid, path, err)
	}

	override, waivers, err := doc.toOverride()
	if err != nil {
		return nil, err
	}
	return Load(doc.Preset, override, waivers)
}

// toOverride converts the on-disk document into the OverrideConfig/Waiver
// shapes Load expects, parsing string severities/dates into their typed
// forms.
func (d fileDocument) toOverride() (*OverrideConfig, []model.Waiver, error) {
	override := &OverrideConfig{
		Thresholds:   d.Thresholds,
		RuleBucket:   RuleBucket{BlockOn: d.BlockOn, WarnOn: d.WarnOn, Ignore: d.Ignore},
		IncludeGlobs: d.IncludeGlobs,
		ExcludeGlobs: d.ExcludeGlobs,
	}
	if len(d.SeverityOverrides) > 0 {
		override.SeverityOverrides = make(map[string]model.Severity, len(d.SeverityOverrides))
		for rule, sev := range d.SeverityOverrides {
			override.SeverityOverrides[rule] = model.SeverityFromString(strings.ToUpper(sev))
		}
	}
	if d.FailOn != "" {
		override.FailOn = model.SeverityFromString(strings.ToUpper(d.FailOn))
	}
	if len(d.Budgets) > 0 {
		override.Budgets = make(map[model.Severity]int, len(d.Budgets))
		for sev, n := range d.Budgets {
			override.Budgets[model.SeverityFromString(strings.ToUpper(sev))] = n
		}
	}

	waivers := make([]model.Waiver, 0, len(d.Waivers))
	for _, w := range d.Waivers {
		waiver := model.Waiver{RuleID: w.RuleID, PathPattern: w.PathPattern, Justification: w.Justification}
		if w.ExpiresOn != "" {
			t, err := parseWaiverDate(w.ExpiresOn)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: waiver %s expires_on: %v", coreerr.ErrPolicyInvalid, w.RuleID, err)
			}
			waiver.ExpiresOn = t
		}
		waivers = append(waivers, waiver)
	}
	return override, waivers, nil
}

// parseWaiverDate parses a waiver's expires_on field in the YYYY-MM-DD form
// spec.md §4.3 documents for waiver expiry.
func parseWaiverDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
