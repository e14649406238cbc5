// Package config loads .tatu.yml configuration files holding scan settings,
// detector selection and per-rule overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/types"
)

// FileNames are the recognised config file names, in lookup order.
var FileNames = []string{".tatu.yml", ".tatu.yaml"}

// DefaultMaxFileSize is used when neither the config nor a flag sets a limit.
const DefaultMaxFileSize int64 = 1 << 20

const maxConfigSize = 1 << 20

// RuleOverride allows per-rule severity or disable.
type RuleOverride struct {
	Severity string `yaml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Detectors selects which detectors run. An empty Enable list means all.
type Detectors struct {
	Enable  []string `yaml:"enable,omitempty"`
	Disable []string `yaml:"disable,omitempty"`
}

// Config represents the .tatu.yml configuration file.
type Config struct {
	Include       []string                `yaml:"include,omitempty"`
	Exclude       []string                `yaml:"exclude,omitempty"`
	MaxFileSize   int64                   `yaml:"max_file_size,omitempty"`
	Detectors     Detectors               `yaml:"detectors,omitempty"`
	DisabledRules []string                `yaml:"disabled_rules,omitempty"`
	RuleOverrides map[string]RuleOverride `yaml:"rule_overrides,omitempty"`
	Rules         string                  `yaml:"rules,omitempty"`
	Format        string                  `yaml:"format,omitempty"`
	Severity      string                  `yaml:"severity,omitempty"`
	FailOn        string                  `yaml:"fail_on,omitempty"`

	// Path is the file the config was read from; empty when none was found.
	Path string `yaml:"-"`
}

// Find looks for a config file in dir and then in each parent directory.
// If dir is a file, its parent directory is used. It returns "" when no
// config file exists up to the filesystem root.
func Find(dir string) (string, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			info, err := os.Stat(p)
			if err == nil && !info.IsDir() {
				return p, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("reading %s: %w", p, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load finds and reads the config file governing dir. If no config file is
// found, it returns a zero Config (not an error).
func Load(dir string) (Config, error) {
	p, err := Find(dir)
	if err != nil || p == "" {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads and validates one config file.
func LoadFile(p string) (Config, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", p, err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", p, info.Size())
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", p, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", p, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", p, err)
	}
	cfg.Path = p
	return cfg, nil
}

// Validate checks the severity names and size limit.
func (c Config) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative")
	}
	if c.Severity != "" {
		if _, err := types.ParseSeverity(c.Severity); err != nil {
			return fmt.Errorf("severity: %w", err)
		}
	}
	if c.FailOn != "" {
		if _, err := types.ParseSeverity(c.FailOn); err != nil {
			return fmt.Errorf("fail_on: %w", err)
		}
	}
	for id, o := range c.RuleOverrides {
		if o.Severity == "" {
			continue
		}
		if _, err := types.ParseSeverity(o.Severity); err != nil {
			return fmt.Errorf("rule_overrides.%s: %w", id, err)
		}
	}
	return nil
}

// RulesDir returns the custom rules directory, resolved against the
// directory holding the config file.
func (c Config) RulesDir() string {
	if c.Rules == "" || filepath.IsAbs(c.Rules) || c.Path == "" {
		return c.Rules
	}
	return filepath.Join(filepath.Dir(c.Path), c.Rules)
}

// Overrides merges rule_overrides and disabled_rules into the form the rule
// compiler consumes.
func (c Config) Overrides() map[string]rules.RuleOverride {
	out := make(map[string]rules.RuleOverride, len(c.RuleOverrides)+len(c.DisabledRules))
	for id, o := range c.RuleOverrides {
		out[id] = rules.RuleOverride{Severity: o.Severity, Disabled: o.Disabled}
	}
	for _, id := range c.DisabledRules {
		o := out[id]
		o.Disabled = true
		out[id] = o
	}
	return out
}

// EffectiveMaxFileSize returns the configured limit or the default.
func (c Config) EffectiveMaxFileSize() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return DefaultMaxFileSize
}

// Template is the starter config written by `tatu init`.
const Template = `# tatu configuration

# Extra glob patterns to leave out of every scan.
exclude:
  - "tests/fixtures/**"
  - "**/*.test.*"
  - "**/*.spec.*"

# Files larger than this many bytes are skipped. Default: 1 MB.
# max_file_size: 1048576

# detectors:
#   enable: [secrets, dangerous-functions, config-issues]
#   disable: []

# disabled_rules: [CONFIG_005]
# rule_overrides:
#   CONFIG_003:
#     severity: low

# Output format: terminal, json, sarif or markdown.
format: terminal

# Minimum severity to report and to fail on: low, medium, high, critical.
# severity: low
# fail_on: high
`
