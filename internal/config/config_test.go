package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/rules"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
include:
  - "*.py"
exclude:
  - "tests/fixtures/**"
  - vendor/
max_file_size: 2048
detectors:
  enable: [secrets, config-issues]
  disable: [config-issues]
disabled_rules: [CONFIG_005]
rule_overrides:
  CONFIG_003:
    severity: low
  DANGEROUS_010:
    disabled: true
rules: team-rules/
format: sarif
severity: medium
fail_on: critical
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yml"), data, 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"*.py"}, cfg.Include)
	require.Equal(t, []string{"tests/fixtures/**", "vendor/"}, cfg.Exclude)
	require.EqualValues(t, 2048, cfg.MaxFileSize)
	require.Equal(t, []string{"secrets", "config-issues"}, cfg.Detectors.Enable)
	require.Equal(t, []string{"config-issues"}, cfg.Detectors.Disable)
	require.Equal(t, []string{"CONFIG_005"}, cfg.DisabledRules)
	require.Equal(t, "low", cfg.RuleOverrides["CONFIG_003"].Severity)
	require.True(t, cfg.RuleOverrides["DANGEROUS_010"].Disabled)
	require.Equal(t, "sarif", cfg.Format)
	require.Equal(t, "medium", cfg.Severity)
	require.Equal(t, "critical", cfg.FailOn)
	require.Equal(t, filepath.Join(dir, ".tatu.yml"), cfg.Path)
	require.Equal(t, filepath.Join(dir, "team-rules"), cfg.RulesDir())
}

func TestLoadConfigYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yaml"), []byte("severity: medium\n"), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "medium", cfg.Severity)
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, cfg.Path)
	require.Empty(t, cfg.Include)
	require.Equal(t, config.DefaultMaxFileSize, cfg.EffectiveMaxFileSize())
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yml"), []byte("{{invalid yaml"), 0644))

	_, err := config.Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing")
}

func TestLoadConfigRejectsUnknownSeverity(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"severity", "severity: extreme\n", "severity"},
		{"fail_on", "fail_on: sometimes\n", "fail_on"},
		{"override", "rule_overrides:\n  SECRET_001:\n    severity: huge\n", "rule_overrides.SECRET_001"},
		{"size", "max_file_size: -1\n", "max_file_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yml"), []byte(tt.body), 0644))
			_, err := config.Load(dir)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	// .tatu.yml takes priority over .tatu.yaml
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yml"), []byte("severity: high\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yaml"), []byte("severity: low\n"), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "high", cfg.Severity)
}

func TestLoadConfigWalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tatu.yml"), []byte("fail_on: high\n"), 0644))
	nested := filepath.Join(root, "services", "api")
	require.NoError(t, os.MkdirAll(nested, 0755))
	file := filepath.Join(nested, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main"), 0644))

	for _, start := range []string{nested, file} {
		cfg, err := config.Load(start)
		require.NoError(t, err)
		require.Equal(t, "high", cfg.FailOn)
		require.Equal(t, filepath.Join(root, ".tatu.yml"), cfg.Path)
	}
}

func TestLoadConfigTooLarge(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, 1<<20+1)
	for i := range big {
		big[i] = '#'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tatu.yml"), big, 0644))

	_, err := config.Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "too large")
}

func TestOverridesMergeDisabledRules(t *testing.T) {
	cfg := config.Config{
		DisabledRules: []string{"CONFIG_005", "SECRET_022"},
		RuleOverrides: map[string]config.RuleOverride{
			"CONFIG_005": {Severity: "high"},
			"CONFIG_003": {Severity: "low"},
		},
	}
	require.Equal(t, map[string]rules.RuleOverride{
		"CONFIG_005": {Severity: "high", Disabled: true},
		"SECRET_022": {Disabled: true},
		"CONFIG_003": {Severity: "low"},
	}, cfg.Overrides())
}

func TestRulesDirAbsoluteOrUnset(t *testing.T) {
	require.Empty(t, config.Config{}.RulesDir())
	abs := filepath.Join(t.TempDir(), "rules")
	require.Equal(t, abs, config.Config{Rules: abs, Path: "/elsewhere/.tatu.yml"}.RulesDir())
	require.Equal(t, "rules", config.Config{Rules: "rules"}.RulesDir())
}

func TestTemplateParses(t *testing.T) {
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(config.Template), &cfg))
	require.NoError(t, cfg.Validate())
	require.Equal(t, "terminal", cfg.Format)
	require.Contains(t, cfg.Exclude, "tests/fixtures/**")
}
