package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/tatu/internal/language"
	"github.com/garagon/tatu/internal/types"
)

// Compile converts a RawRule into a CompiledRule ready for execution.
func Compile(raw RawRule) (*CompiledRule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing ID")
	}
	if raw.Detector == "" {
		return nil, fmt.Errorf("rule %s: no detector", raw.ID)
	}
	if raw.Pattern == "" {
		return nil, fmt.Errorf("rule %s: no pattern defined", raw.ID)
	}

	sev, err := types.ParseSeverity(raw.Severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}
	conf, err := types.ParseConfidence(raw.Confidence)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}

	re, err := regexp.Compile(raw.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: invalid regex: %w", raw.ID, err)
	}

	filter, err := compileFilter(raw.Filter)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}

	return &CompiledRule{
		ID:          raw.ID,
		Detector:    raw.Detector,
		Title:       raw.Title,
		Description: raw.Description,
		Severity:    sev,
		Confidence:  conf,
		CWE:         raw.CWE,
		Remediation: raw.Remediation,
		Pattern:     re,
		Filter:      filter,
		Examples:    raw.Examples,
		secretIdx:   re.SubexpIndex(SecretGroup),
	}, nil
}

func compileFilter(raw RawFilter) (FileFilter, error) {
	var f FileFilter
	switch strings.ToLower(strings.TrimSpace(raw.Kind)) {
	case "", "any":
		f.Kind = FilterAny
	case "config":
		f.Kind = FilterConfig
	case "languages":
		f.Kind = FilterLanguages
		if len(raw.Languages) == 0 {
			return f, fmt.Errorf("languages filter without languages")
		}
		for _, name := range raw.Languages {
			lang, err := language.Parse(name)
			if err != nil {
				return f, err
			}
			f.Languages = append(f.Languages, lang)
		}
		f.Strict = raw.Strict
	default:
		return f, fmt.Errorf("unknown filter kind %q", raw.Kind)
	}
	return f, nil
}

// CompileAll compiles a slice of raw rules, returning compiled rules and any errors.
// A rule whose ID was already compiled is reported as an error and dropped.
func CompileAll(raws []RawRule) ([]*CompiledRule, []error) {
	var rules []*CompiledRule
	var errs []error
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		if seen[raw.ID] {
			errs = append(errs, fmt.Errorf("rule %s: duplicate ID", raw.ID))
			continue
		}
		cr, err := Compile(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		seen[raw.ID] = true
		rules = append(rules, cr)
	}
	return rules, errs
}

// RuleOverride allows per-rule severity change or disable from config.
type RuleOverride struct {
	Severity string
	Disabled bool
}

// ApplyOverrides applies config-based rule overrides to compiled rules.
// Disabled rules are removed. Severity overrides produce an updated copy of
// the rule so shared catalogs are never mutated. Invalid severity values
// produce an error but keep the original rule.
func ApplyOverrides(compiled []*CompiledRule, overrides map[string]RuleOverride) ([]*CompiledRule, []error) {
	var result []*CompiledRule
	var errs []error
	for _, rule := range compiled {
		ovr, ok := overrides[rule.ID]
		if !ok {
			result = append(result, rule)
			continue
		}
		if ovr.Disabled {
			continue
		}
		if ovr.Severity != "" {
			sev, err := types.ParseSeverity(ovr.Severity)
			if err != nil {
				errs = append(errs, fmt.Errorf("rule %s override: %w", rule.ID, err))
				result = append(result, rule)
				continue
			}
			cp := *rule
			cp.Severity = sev
			rule = &cp
		}
		result = append(result, rule)
	}
	return result, errs
}

// FilterByIDs removes rules whose IDs are in the disabled set.
func FilterByIDs(compiled []*CompiledRule, disabled map[string]bool) []*CompiledRule {
	var result []*CompiledRule
	for _, rule := range compiled {
		if !disabled[rule.ID] {
			result = append(result, rule)
		}
	}
	return result
}

// ByDetector groups rules by detector name, preserving their order.
func ByDetector(compiled []*CompiledRule) map[string][]*CompiledRule {
	out := make(map[string][]*CompiledRule)
	for _, r := range compiled {
		out[r.Detector] = append(out[r.Detector], r)
	}
	return out
}
