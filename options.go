package tatu

import "go.uber.org/zap"

// scanConfig holds the resolved configuration for a scan.
type scanConfig struct {
	customRulesDir string
	disabledRules  []string
	ruleOverrides  map[string]RuleOverride
	minSeverity    Severity
	workers        int
	detectors      []string
	include        []string
	exclude        []string
	maxFileSize    int64
	logger         *zap.Logger
	detector       string // only for ListRules
}

// Option configures a scan operation.
type Option func(*scanConfig)

// WithCustomRules loads additional rules from a directory.
func WithCustomRules(dir string) Option {
	return func(c *scanConfig) {
		c.customRulesDir = dir
	}
}

// WithDisabledRules excludes specific rule IDs from scanning.
func WithDisabledRules(ids ...string) Option {
	return func(c *scanConfig) {
		c.disabledRules = append(c.disabledRules, ids...)
	}
}

// WithRuleOverrides applies severity overrides or disables rules.
func WithRuleOverrides(overrides map[string]RuleOverride) Option {
	return func(c *scanConfig) {
		c.ruleOverrides = overrides
	}
}

// WithMinSeverity drops findings below sev from the report.
func WithMinSeverity(sev Severity) Option {
	return func(c *scanConfig) {
		c.minSeverity = sev
	}
}

// WithWorkers sets the number of concurrent workers (default: NumCPU).
func WithWorkers(n int) Option {
	return func(c *scanConfig) {
		c.workers = n
	}
}

// WithDetectors restricts the scan to the named detectors. Unknown names
// are ignored.
func WithDetectors(names ...string) Option {
	return func(c *scanConfig) {
		c.detectors = append(c.detectors, names...)
	}
}

// WithInclude limits directory scans to paths matching the patterns.
func WithInclude(patterns ...string) Option {
	return func(c *scanConfig) {
		c.include = append(c.include, patterns...)
	}
}

// WithExclude skips paths matching the patterns during directory scans.
func WithExclude(patterns ...string) Option {
	return func(c *scanConfig) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithMaxFileSize skips files larger than n bytes (default 1 MB). Zero
// means no limit.
func WithMaxFileSize(n int64) Option {
	return func(c *scanConfig) {
		c.maxFileSize = n
	}
}

// WithLogger receives skipped-file and rule warnings. The default discards them.
func WithLogger(l *zap.Logger) Option {
	return func(c *scanConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDetector filters rules by detector (only applies to ListRules).
func WithDetector(name string) Option {
	return func(c *scanConfig) {
		c.detector = name
	}
}
