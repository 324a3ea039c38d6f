// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dcommon holds the severity-escalation and fingerprinting rules
// every detector family shares (spec.md §4.5 "severity assignment rules,
// common to all detectors"), so connascence/godobject/nasa/duplication/
// clarity apply them identically rather than re-deriving them five times.
package dcommon

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
)

// securityKeywords trigger a one-level severity escalation when a finding's
// snippet or enclosing symbol name mentions them (spec.md §4.5 rule 2).
var securityKeywords = []string{"password", "secret", "key", "token", "auth", "crypto"}

// EscalationContext carries the per-finding facts the common severity rules
// need: whether the snippet looks security-sensitive, whether it sits in a
// conditional, and whether it is a Meaning-type finding inside a constant or
// CONFIG-classified context eligible for suppression.
type EscalationContext struct {
	InConditional    bool
	ConfigOrConstant bool
	Snippet          string
	SymbolName       string
}

// Resolve applies spec.md §4.5's four-step severity pipeline: baseline,
// context escalation, context suppression (Meaning-type only), then the
// policy floor. ruleID identifies the rule being resolved so the floor step
// can look up a per-rule severity_floor from view.
func Resolve(ruleID string, base model.Severity, isMeaning bool, ec EscalationContext, view policy.PolicyView) model.Severity {
	sev := base

	switch {
	case isMeaning && ec.ConfigOrConstant:
		sev = model.SeverityInfo
	case ec.InConditional || containsSecurityKeyword(ec.Snippet) || containsSecurityKeyword(ec.SymbolName) || view.Profile == policy.ProfileCritical:
		sev = sev.Escalate()
	}

	if floor, ok := view.FloorFor(ruleID); ok && floor > sev {
		sev = floor
	}

	return sev
}

// conditionalKeywords are the block-opening keywords InConditionalContext
// treats as a conditional or loop context for spec.md §4.5 rule 2's
// "findings located within conditional expressions" escalation.
var conditionalKeywords = []string{
	"if ", "if(", "elif ", "else if", "else:", "} else", "switch ", "switch(",
	"case ", "while ", "while(", "for ", "for(", "catch ", "except ", "except:",
}

// IndentUnits counts line's leading indentation in 2-space-or-tab units.
func IndentUnits(line string) int {
	units := 0
	spaces := 0
	for _, r := range line {
		switch r {
		case '\t':
			units++
		case ' ':
			spaces++
			if spaces == 2 {
				units++
				spaces = 0
			}
		default:
			return units
		}
	}
	return units
}

// InConditionalContext reports whether the 1-indexed line sits nested inside
// an enclosing conditional or loop block, approximated by scanning upward
// through shrinking indentation for the first enclosing line and checking
// whether it opens one of conditionalKeywords. This mirrors the same
// indent-scan heuristic the clarity detector's nesting-depth check uses, in
// place of a full statement-level AST that this symbol-table parser layer
// does not build.
func InConditionalContext(lines []string, line int) bool {
	if line <= 0 || line > len(lines) {
		return false
	}
	base := IndentUnits(lines[line-1])
	for i := line - 2; i >= 0; i-- {
		text := strings.TrimSpace(lines[i])
		if text == "" {
			continue
		}
		depth := IndentUnits(lines[i])
		if depth >= base {
			continue
		}
		base = depth
		if startsConditional(text) {
			return true
		}
		if depth == 0 {
			break
		}
	}
	return false
}

func startsConditional(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range conditionalKeywords {
		if strings.HasPrefix(lower, kw) {
			return true
		}
	}
	return false
}

func containsSecurityKeyword(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Fingerprint hashes its parts into the stable, content-addressed id used
// for Violation.Fingerprint and for duplication/algorithm clustering keys.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// Snippet extracts the source line at lineNum (1-indexed) from content, for
// embedding in Violation.Snippet. Returns "" for an out-of-range line.
func Snippet(content []byte, lineNum int) string {
	if lineNum <= 0 {
		return ""
	}
	lines := strings.Split(string(content), "\n")
	if lineNum > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[lineNum-1])
}

// NormalizeBody strips identifiers, literals, and whitespace differences
// from source text so two structurally-identical bodies with different
// naming hash identically (spec.md §4.5.5 pass 1, §4.5.1 CoA).
func NormalizeBody(src string) string {
	var b strings.Builder
	lastWasSpace := true
	inWord, inNum := false, false
	for _, r := range src {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			inWord, inNum = false, false
		case isLetter || (inWord && isDigit):
			if !inWord {
				b.WriteByte('x')
			}
			inWord, inNum = true, false
			lastWasSpace = false
		case isDigit:
			if !inNum {
				b.WriteByte('0')
			}
			inNum = true
			lastWasSpace = false
		default:
			b.WriteRune(r)
			inWord, inNum = false, false
			lastWasSpace = false
		}
	}
	return b.String()
}

// Shingle returns the set of contiguous k-token shingles of tokens, used by
// the MECE similarity pass (spec.md §4.5.5 pass 2).
func Shingle(tokens []string, k int) map[string]struct{} {
	set := make(map[string]struct{})
	if len(tokens) < k {
		set[strings.Join(tokens, " ")] = struct{}{}
		return set
	}
	for i := 0; i+k <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+k], " ")] = struct{}{}
	}
	return set
}

// JaccardSimilarity computes |a∩b| / |a∪b| over two shingle sets.
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Tokenize splits source text into a coarse token stream (identifiers,
// numbers, operators) good enough for shingling; it need not be a real
// lexer since similarity clustering only needs consistent, not semantic,
// tokens.
func Tokenize(src string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}
