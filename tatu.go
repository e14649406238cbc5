// Package tatu provides a public API for scanning source trees for
// hard-coded secrets, dangerous function calls and insecure configuration.
//
// This is the library entry point. For the CLI tool, see cmd/tatu/.
package tatu

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/detector"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
	"github.com/garagon/tatu/internal/version"
)

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Severity   = types.Severity
	Finding    = types.Finding
	Summary    = types.Summary
	ScanReport = types.ScanReport
)

const (
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical
)

// RuleOverride allows changing the severity of a rule or disabling it.
type RuleOverride struct {
	Severity string
	Disabled bool
}

// RuleInfo provides summary metadata about a detection rule.
type RuleInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Detector string `json:"detector"`
}

// RuleDetail provides full information about a rule, including its pattern
// and examples.
type RuleDetail struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Detector       string   `json:"detector"`
	Severity       string   `json:"severity"`
	Confidence     string   `json:"confidence"`
	CWE            string   `json:"cwe,omitempty"`
	Description    string   `json:"description"`
	Remediation    string   `json:"remediation,omitempty"`
	Pattern        string   `json:"pattern"`
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

// DetectorInfo names a detector and its rule count.
type DetectorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rules       int    `json:"rules"`
}

// Scan scans a file or directory on disk for security issues.
func Scan(ctx context.Context, path string, opts ...Option) (*ScanReport, error) {
	cfg := applyOpts(opts)
	s, rulesLoaded, err := buildScanner(cfg)
	if err != nil {
		return nil, err
	}
	report, err := s.Scan(ctx, path)
	if err != nil {
		return nil, err
	}
	return finish(report, cfg, rulesLoaded), nil
}

// ScanContent scans inline content without writing to disk. filename
// selects the language and path-based rule filters (e.g. "app.py",
// "Dockerfile").
func ScanContent(ctx context.Context, content, filename string, opts ...Option) (*ScanReport, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	cfg := applyOpts(opts)
	s, rulesLoaded, err := buildScanner(cfg)
	if err != nil {
		return nil, err
	}
	report, err := s.ScanMemory(ctx, []*scanner.File{scanner.NewFile(filename, content)})
	if err != nil {
		return nil, err
	}
	return finish(report, cfg, rulesLoaded), nil
}

// ListRules returns all available detection rules sorted by ID.
// Use WithDetector to list a single detector's rules.
func ListRules(opts ...Option) ([]RuleInfo, error) {
	cfg := applyOpts(opts)
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	compiled := reg.Rules()
	if cfg.detector != "" {
		d, ok := reg.Lookup(cfg.detector)
		if !ok {
			return nil, fmt.Errorf("unknown detector %q", cfg.detector)
		}
		compiled = slices.Clone(d.Rules())
	}
	slices.SortFunc(compiled, func(a, b *rules.CompiledRule) int {
		return cmp.Compare(a.ID, b.ID)
	})

	infos := make([]RuleInfo, len(compiled))
	for i, r := range compiled {
		infos[i] = RuleInfo{
			ID:       r.ID,
			Title:    r.Title,
			Severity: r.Severity.String(),
			Detector: r.Detector,
		}
	}
	return infos, nil
}

// ExplainRule returns detailed information about a specific rule.
func ExplainRule(id string, opts ...Option) (*RuleDetail, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	reg, err := loadRegistry(applyOpts(opts))
	if err != nil {
		return nil, err
	}
	found, ok := reg.Rule(id)
	if !ok {
		return nil, fmt.Errorf("rule %q not found", id)
	}

	return &RuleDetail{
		ID:             found.ID,
		Title:          found.Title,
		Detector:       found.Detector,
		Severity:       found.Severity.String(),
		Confidence:     found.Confidence.String(),
		CWE:            found.CWE,
		Description:    found.Description,
		Remediation:    found.Remediation,
		Pattern:        found.Pattern.String(),
		TruePositives:  found.Examples.TruePositive,
		FalsePositives: found.Examples.FalsePositive,
	}, nil
}

// Version returns the tatu build version stamped on every report.
func Version() string {
	return version.Version
}

// Detectors lists the built-in detectors in the order they run.
func Detectors() ([]DetectorInfo, error) {
	reg, err := detector.Builtin()
	if err != nil {
		return nil, err
	}
	var out []DetectorInfo
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		out = append(out, DetectorInfo{
			Name:        d.Name(),
			Description: d.Description(),
			Rules:       len(d.Rules()),
		})
	}
	return out, nil
}

// --- internal helpers ---

func applyOpts(opts []Option) *scanConfig {
	cfg := &scanConfig{logger: zap.NewNop(), maxFileSize: config.DefaultMaxFileSize}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// loadRegistry builds the detectors from the built-in (and optionally
// custom) rules with overrides and disabled rules applied. Used by all
// public functions.
func loadRegistry(cfg *scanConfig) (*detector.Registry, error) {
	overrides := make(map[string]rules.RuleOverride, len(cfg.ruleOverrides)+len(cfg.disabledRules))
	for id, ovr := range cfg.ruleOverrides {
		overrides[id] = rules.RuleOverride{Severity: ovr.Severity, Disabled: ovr.Disabled}
	}
	for _, id := range cfg.disabledRules {
		id = strings.TrimSpace(id)
		o := overrides[id]
		o.Disabled = true
		overrides[id] = o
	}

	reg, warnings, err := detector.Load(cfg.customRulesDir, overrides)
	for _, w := range warnings {
		cfg.logger.Warn("rule skipped", zap.Error(w))
	}
	return reg, err
}

// buildScanner creates a fully wired Scanner with the selected detectors.
func buildScanner(cfg *scanConfig) (*scanner.Scanner, int, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, 0, err
	}

	s := scanner.New(cfg.workers)
	s.SetLogger(cfg.logger)
	s.SetDiscovery(scanner.Discovery{
		Include:     cfg.include,
		Exclude:     cfg.exclude,
		MaxFileSize: cfg.maxFileSize,
		Logger:      cfg.logger,
	})

	rulesLoaded := 0
	for _, d := range reg.Pick(cfg.detectors, nil) {
		s.RegisterDetector(d)
		if rd, ok := d.(*detector.RuleDetector); ok {
			rulesLoaded += len(rd.Rules())
		}
	}
	return s, rulesLoaded, nil
}

func finish(report *ScanReport, cfg *scanConfig, rulesLoaded int) *ScanReport {
	report.Version = version.Version
	report.RulesLoaded = rulesLoaded
	if cfg.minSeverity > SeverityLow {
		return report.AtOrAbove(cfg.minSeverity)
	}
	return report
}
