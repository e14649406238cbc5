// Package detector implements the built-in detectors. Every detector is a
// RuleDetector evaluating an ordered rule table line by line; the detectors
// differ only in their rule tables, line policy and file-level guards.
package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// LinePolicy decides which lines a detector never evaluates.
type LinePolicy int

const (
	// SkipComments skips empty lines and lines starting with a comment marker.
	SkipComments LinePolicy = iota
	// SkipExampleComments skips only // comments mentioning "example".
	SkipExampleComments
)

var commentMarkers = []string{"//", "#", "<!--", "*"}

func (p LinePolicy) skip(trimmed string) bool {
	switch p {
	case SkipExampleComments:
		return strings.HasPrefix(trimmed, "//") && strings.Contains(trimmed, "example")
	default:
		if trimmed == "" {
			return true
		}
		for _, m := range commentMarkers {
			if strings.HasPrefix(trimmed, m) {
				return true
			}
		}
		return false
	}
}

// RuleDetector evaluates a rule table against each line of a file and
// reports at most one finding per line: the first rule that matches.
type RuleDetector struct {
	name        string
	description string
	rules       []*rules.CompiledRule
	policy      LinePolicy
	redact      bool
	// skipFile excludes whole files before any line is read.
	skipFile func(f *scanner.File) bool
	// suppress disables a rule for a file, keyed by rule ID.
	suppress map[string]func(f *scanner.File) bool
}

func (d *RuleDetector) Name() string        { return d.name }
func (d *RuleDetector) Description() string { return d.description }

// Rules returns the detector's rule table in evaluation order.
func (d *RuleDetector) Rules() []*rules.CompiledRule { return d.rules }

// Scan implements scanner.Detector.
func (d *RuleDetector) Scan(f *scanner.File) []types.Finding {
	if d.skipFile != nil && d.skipFile(f) {
		return nil
	}
	active := d.activeRules(f)
	if len(active) == 0 {
		return nil
	}

	var findings []types.Finding
	for i, line := range f.Lines() {
		trimmed := strings.TrimSpace(line)
		if d.policy.skip(trimmed) {
			continue
		}
		for _, r := range active {
			start, end, ok := r.Match(line)
			if !ok {
				continue
			}
			evidence := trimmed
			if d.redact {
				evidence = Redact(trimmed, line[start:end])
			}
			findings = append(findings, d.newFinding(r, f, i+1, evidence))
			break
		}
	}
	return findings
}

func (d *RuleDetector) activeRules(f *scanner.File) []*rules.CompiledRule {
	var active []*rules.CompiledRule
	for _, r := range d.rules {
		if !r.Filter.Accepts(f.RelPath, f.Language) {
			continue
		}
		if guard, ok := d.suppress[r.ID]; ok && guard(f) {
			continue
		}
		active = append(active, r)
	}
	return active
}

func (d *RuleDetector) newFinding(r *rules.CompiledRule, f *scanner.File, line int, evidence string) types.Finding {
	return types.Finding{
		ID:          types.FindingID(r.ID, f.RelPath, line),
		RuleID:      r.ID,
		Severity:    r.Severity,
		Confidence:  r.Confidence,
		Detector:    d.name,
		Title:       r.Title,
		Description: r.Description,
		FilePath:    f.RelPath,
		StartLine:   line,
		EndLine:     line,
		Evidence:    evidence,
		Remediation: r.Remediation,
		CWE:         r.CWE,
	}
}

const redactedShort = "****"

// Redact replaces every occurrence of secret in line with a mask that keeps
// only its first and last four characters. Secrets of eight characters or
// fewer are masked entirely.
func Redact(line, secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return line
	}
	return strings.ReplaceAll(line, secret, Mask(secret))
}

// Mask returns the redacted form of a secret.
func Mask(secret string) string {
	if utf8.RuneCountInString(secret) <= 8 {
		return redactedShort
	}
	r := []rune(secret)
	return string(r[:4]) + "…****…" + string(r[len(r)-4:])
}
