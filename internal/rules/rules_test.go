package rules_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garagon/tatu/internal/language"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/rules/builtin"
	"github.com/garagon/tatu/internal/types"
	"github.com/stretchr/testify/require"
)

func TestCompileValidRule(t *testing.T) {
	raw := rules.RawRule{
		ID:         "TEST_001",
		Detector:   "test",
		Title:      "Test Rule",
		Severity:   "HIGH",
		Confidence: "medium",
		Pattern:    `(?i)token\s*=\s*"(?P<secret>[a-z0-9]{12,})"`,
		Filter: rules.RawFilter{
			Kind:      "languages",
			Languages: []string{"python", "javascript"},
		},
	}

	compiled, err := rules.Compile(raw)
	require.NoError(t, err)
	require.Equal(t, "TEST_001", compiled.ID)
	require.Equal(t, "test", compiled.Detector)
	require.Equal(t, types.SeverityHigh, compiled.Severity)
	require.Equal(t, types.ConfidenceMedium, compiled.Confidence)
	require.Equal(t, rules.FilterLanguages, compiled.Filter.Kind)
	require.Equal(t, []language.Language{language.Python, language.JavaScript}, compiled.Filter.Languages)

	line := `token = "abcdef0123456789"`
	start, end, ok := compiled.Match(line)
	require.True(t, ok)
	require.Equal(t, "abcdef0123456789", line[start:end])
}

func TestMatchWithoutSecretGroup(t *testing.T) {
	compiled, err := rules.Compile(rules.RawRule{
		ID: "TEST_002", Detector: "test", Severity: "LOW", Confidence: "LOW",
		Pattern: `eval\(`,
	})
	require.NoError(t, err)

	line := "x = eval(y)"
	start, end, ok := compiled.Match(line)
	require.True(t, ok)
	require.Equal(t, "eval(", line[start:end])

	_, _, ok = compiled.Match("nothing here")
	require.False(t, ok)
}

func TestCompileErrors(t *testing.T) {
	base := rules.RawRule{ID: "T", Detector: "d", Severity: "LOW", Confidence: "LOW", Pattern: "x"}
	tests := []struct {
		name   string
		mutate func(r *rules.RawRule)
		want   string
	}{
		{"missing id", func(r *rules.RawRule) { r.ID = "" }, "missing ID"},
		{"missing detector", func(r *rules.RawRule) { r.Detector = "" }, "no detector"},
		{"missing pattern", func(r *rules.RawRule) { r.Pattern = "" }, "no pattern"},
		{"bad severity", func(r *rules.RawRule) { r.Severity = "INFO" }, "unknown severity"},
		{"bad confidence", func(r *rules.RawRule) { r.Confidence = "sure" }, "unknown confidence"},
		{"bad regex", func(r *rules.RawRule) { r.Pattern = "[invalid" }, "invalid regex"},
		{"bad filter kind", func(r *rules.RawRule) { r.Filter.Kind = "paths" }, "unknown filter kind"},
		{"empty languages", func(r *rules.RawRule) { r.Filter.Kind = "languages" }, "without languages"},
		{"bad language", func(r *rules.RawRule) {
			r.Filter = rules.RawFilter{Kind: "languages", Languages: []string{"cobol"}}
		}, "unknown language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base
			tt.mutate(&raw)
			_, err := rules.Compile(raw)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileAllRejectsDuplicateIDs(t *testing.T) {
	raw := rules.RawRule{ID: "DUP", Detector: "d", Severity: "LOW", Confidence: "LOW", Pattern: "x"}
	compiled, errs := rules.CompileAll([]rules.RawRule{raw, raw})
	require.Len(t, compiled, 1)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "duplicate")
}

func TestFileFilter(t *testing.T) {
	langs := rules.FileFilter{Kind: rules.FilterLanguages, Languages: []language.Language{language.Python}}
	strict := rules.FileFilter{Kind: rules.FilterLanguages, Languages: []language.Language{language.Dockerfile}, Strict: true}
	config := rules.FileFilter{Kind: rules.FilterConfig}
	anyFilter := rules.FileFilter{}

	tests := []struct {
		name   string
		filter rules.FileFilter
		path   string
		want   bool
	}{
		{"any accepts everything", anyFilter, "main.rs", true},
		{"language match", langs, "app.py", true},
		{"language mismatch", langs, "main.rs", false},
		{"unknown accepted", langs, "README", true},
		{"strict rejects unknown", strict, "README", false},
		{"strict accepts match", strict, "Dockerfile", true},
		{"config by language", config, "values.yaml", true},
		{"config env file", config, ".env.local", true},
		{"config by name", config, "app/config.js", true},
		{"settings by name", config, "settings.py", true},
		{"ini suffix", config, "php.ini", true},
		{"compose", config, "docker-compose.yml", true},
		{"not config", config, "main.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Accepts(tt.path, language.Classify(tt.path))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadBuiltinRules(t *testing.T) {
	rawRules, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rawRules), 45, "expected at least 45 built-in rules")

	compiled, errs := rules.CompileAll(rawRules)
	require.Empty(t, errs, "all built-in rules should compile without errors")

	byDetector := rules.ByDetector(compiled)
	require.Len(t, byDetector, 3)
	require.Len(t, byDetector["secrets"], 23)
	require.Len(t, byDetector["dangerous-functions"], 15)
	require.Len(t, byDetector["config-issues"], 10)

	for _, r := range compiled {
		require.NotEmpty(t, r.Title, r.ID)
		require.NotEmpty(t, r.Remediation, r.ID)
		require.NotEmpty(t, r.CWE, r.ID)
		require.NotEmpty(t, r.Examples.TruePositive, "rule %s has no true_positive examples", r.ID)
	}
}

func TestSecretRulesDeclareSecretGroup(t *testing.T) {
	rawRules, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)
	compiled, errs := rules.CompileAll(rawRules)
	require.Empty(t, errs)

	for _, r := range rules.ByDetector(compiled)["secrets"] {
		for _, tp := range r.Examples.TruePositive {
			start, end, ok := r.Match(tp)
			require.True(t, ok, "%s: %q", r.ID, tp)
			require.Greater(t, end, start, "%s: empty secret span", r.ID)
		}
	}
}

func TestRuleSelfTest(t *testing.T) {
	rawRules, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)

	compiled, errs := rules.CompileAll(rawRules)
	require.Empty(t, errs)

	for _, rule := range compiled {
		t.Run(rule.ID, func(t *testing.T) {
			for _, tp := range rule.Examples.TruePositive {
				require.Truef(t, rule.Matches(tp),
					"rule %s: true_positive not matched: %q", rule.ID, tp)
			}
			for _, fp := range rule.Examples.FalsePositive {
				require.Falsef(t, rule.Matches(fp),
					"rule %s: false_positive incorrectly matched: %q", rule.ID, fp)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := `id: CUSTOM_001
title: Internal token
severity: HIGH
confidence: HIGH
pattern: 'acme_[a-z0-9]{16}'
---
id: CUSTOM_002
detector: dangerous-functions
title: Legacy call
severity: LOW
confidence: LOW
pattern: 'legacyExec\('
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.yml"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	raws, err := rules.LoadFromDir(dir)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	require.Equal(t, "secrets", raws[0].Detector)
	require.Equal(t, "dangerous-functions", raws[1].Detector)
}

func TestLoadFromDirRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	content := "id: X_001\nseverity: LOW\nconfidence: LOW\npattern: x\nmatch_mode: all\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(content), 0o644))

	_, err := rules.LoadFromDir(dir)
	require.Error(t, err)
}

func TestLoadFromDirRejectsOversizedTable(t *testing.T) {
	dir := t.TempDir()
	big := "id: X_001\nseverity: LOW\nconfidence: LOW\npattern: x\n# " + strings.Repeat("x", 1<<20) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte(big), 0o644))

	_, err := rules.LoadFromDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "too large")
}

func TestLoadFromDirNotADirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(p, []byte("id: X_001\n"), 0o644))

	_, err := rules.LoadFromDir(p)
	require.Error(t, err)

	_, err = rules.LoadFromDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestApplyOverridesDisabled(t *testing.T) {
	compiled := makeTestRules("R1", "R2", "R3")
	overrides := map[string]rules.RuleOverride{
		"R2": {Disabled: true},
	}
	result, errs := rules.ApplyOverrides(compiled, overrides)
	require.Empty(t, errs)
	require.Len(t, result, 2)
	require.Equal(t, "R1", result[0].ID)
	require.Equal(t, "R3", result[1].ID)
}

func TestApplyOverridesSeverity(t *testing.T) {
	compiled := makeTestRules("R1")
	compiled[0].Severity = types.SeverityHigh
	overrides := map[string]rules.RuleOverride{
		"R1": {Severity: "LOW"},
	}
	result, errs := rules.ApplyOverrides(compiled, overrides)
	require.Empty(t, errs)
	require.Len(t, result, 1)
	require.Equal(t, types.SeverityLow, result[0].Severity)
	// The input rule is left untouched.
	require.Equal(t, types.SeverityHigh, compiled[0].Severity)
}

func TestApplyOverridesInvalidSeverity(t *testing.T) {
	compiled := makeTestRules("R1")
	compiled[0].Severity = types.SeverityHigh
	overrides := map[string]rules.RuleOverride{
		"R1": {Severity: "BANANA"},
	}
	result, errs := rules.ApplyOverrides(compiled, overrides)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "BANANA")
	require.Len(t, result, 1)
	require.Equal(t, types.SeverityHigh, result[0].Severity) // original kept
}

func TestApplyOverridesNoMatch(t *testing.T) {
	compiled := makeTestRules("R1", "R2")
	overrides := map[string]rules.RuleOverride{
		"UNKNOWN": {Disabled: true},
	}
	result, errs := rules.ApplyOverrides(compiled, overrides)
	require.Empty(t, errs)
	require.Len(t, result, 2)
}

func TestFilterByIDs(t *testing.T) {
	compiled := makeTestRules("R1", "R2", "R3")
	disabled := map[string]bool{"R2": true}
	result := rules.FilterByIDs(compiled, disabled)
	require.Len(t, result, 2)
	require.Equal(t, "R1", result[0].ID)
	require.Equal(t, "R3", result[1].ID)
}

func TestFilterByIDsEmpty(t *testing.T) {
	compiled := makeTestRules("R1", "R2", "R3")
	result := rules.FilterByIDs(compiled, map[string]bool{})
	require.Len(t, result, 3)
}

func makeTestRules(ids ...string) []*rules.CompiledRule {
	var result []*rules.CompiledRule
	for _, id := range ids {
		result = append(result, &rules.CompiledRule{
			ID:       id,
			Detector: "test",
			Title:    "Test " + id,
			Severity: types.SeverityMedium,
		})
	}
	return result
}
