// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/astcache"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

func newTestCache(t *testing.T) *astcache.Cache {
	t.Helper()
	reg := ast.NewParserRegistry()
	reg.Register(ast.NewGoParser())
	cache, err := astcache.New(reg)
	if err != nil {
		t.Fatalf("astcache.New: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Load(policy.PresetServiceDefaults, nil, nil)
	if err != nil {
		t.Fatalf("policy.Load: %v", err)
	}
	return p
}

func sourceFile(relPath, content string) model.SourceFile {
	return model.SourceFile{
		Path: relPath, RelPath: relPath, Language: model.LangGo,
		Content: []byte(content), SizeBytes: int64(len(content)),
	}
}

const tinyGoSource = "package tiny\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"

// countingDetector emits one violation per file and records the AllParses
// size it observed, so tests can assert cross-file visibility.
type countingDetector struct {
	seenParseCounts chan int
}

func (d *countingDetector) ID() string                           { return "counting" }
func (d *countingDetector) SupportedLanguages() []model.Language  { return []model.Language{model.LangGo} }
func (d *countingDetector) Kind() model.Kind                      { return model.KindClarity }
func (d *countingDetector) RuleIDs() []string                     { return []string{"counting/rule"} }
func (d *countingDetector) RequiresContext() bool                 { return false }
func (d *countingDetector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if d.seenParseCounts != nil {
		d.seenParseCounts <- len(ac.AllParses)
	}
	return []model.Violation{{RuleID: "counting/rule", FilePath: ac.File.RelPath, Line: 1, Severity: model.SeverityLow}}, nil
}

type slowDetector struct{ delay time.Duration }

func (d *slowDetector) ID() string                          { return "slow" }
func (d *slowDetector) SupportedLanguages() []model.Language { return []model.Language{model.LangGo} }
func (d *slowDetector) Kind() model.Kind                     { return model.KindClarity }
func (d *slowDetector) RuleIDs() []string                    { return []string{"slow/rule"} }
func (d *slowDetector) RequiresContext() bool                { return false }
func (d *slowDetector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
	}
	return nil, nil
}

func TestOrchestrator_AnalyzesEveryFileWithFullAllParses(t *testing.T) {
	reg := registry.NewRegistry()
	counts := make(chan int, 2)
	reg.Register(&countingDetector{seenParseCounts: counts})

	files := []model.SourceFile{
		sourceFile("a.go", tinyGoSource),
		sourceFile("b.go", tinyGoSource),
	}

	o := New(reg, newTestCache(t), testPolicy(t), Options{WorkerCount: 2})
	result, err := o.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesAnalyzed != 2 {
		t.Fatalf("FilesAnalyzed = %d, want 2", result.FilesAnalyzed)
	}
	if len(result.Parses) != 2 {
		t.Fatalf("Parses = %d, want 2", len(result.Parses))
	}
	close(counts)
	for n := range counts {
		if n != 2 {
			t.Errorf("detector saw AllParses len = %d, want 2 (complete parse phase)", n)
		}
	}
	if len(result.Violations["a.go"]) != 1 || len(result.Violations["b.go"]) != 1 {
		t.Errorf("expected one violation per file, got %v", result.Violations)
	}
}

func TestOrchestrator_PerFileTimeoutEmitsSyntheticViolation(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(&slowDetector{delay: time.Second})

	files := []model.SourceFile{sourceFile("slow.go", tinyGoSource)}
	o := New(reg, newTestCache(t), testPolicy(t), Options{WorkerCount: 1, PerFileTimeout: 20 * time.Millisecond})
	result, err := o.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	vs := result.Violations["slow.go"]
	if len(vs) != 1 || vs[0].RuleID != "TIMEOUT" {
		t.Fatalf("violations = %v, want a single synthetic TIMEOUT violation", vs)
	}
	if vs[0].Severity != model.SeverityCritical {
		t.Errorf("Severity = %v, want Critical", vs[0].Severity)
	}
}

func TestOrchestrator_CancellationStopsBetweenFiles(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(&countingDetector{})

	files := []model.SourceFile{
		sourceFile("a.go", tinyGoSource),
		sourceFile("b.go", tinyGoSource),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(reg, newTestCache(t), testPolicy(t), Options{WorkerCount: 1})
	result, err := o.Run(ctx, files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.PartialResults {
		t.Error("PartialResults = false, want true after pre-cancelled context")
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.WorkerCount <= 0 || o.WorkerCount > MaxWorkers {
		t.Errorf("WorkerCount = %d, want 1..%d", o.WorkerCount, MaxWorkers)
	}
	if o.PerFileTimeout != DefaultPerFileTimeout {
		t.Errorf("PerFileTimeout = %v, want %v", o.PerFileTimeout, DefaultPerFileTimeout)
	}
}
