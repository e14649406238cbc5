// Package types defines shared data structures (Finding, Severity, ScanReport)
// used across scanner, detector, meta, and output packages to prevent import cycles.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Severity represents the impact ranking of a finding.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical, nil
	case "HIGH":
		return SeverityHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity: %q", s)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	sev, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Confidence represents how certain a rule is about its matches.
// It is informational only and never used for filtering.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParseConfidence converts a string to a Confidence level.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return ConfidenceHigh, nil
	case "MEDIUM":
		return ConfidenceMedium, nil
	case "LOW":
		return ConfidenceLow, nil
	default:
		return ConfidenceLow, fmt.Errorf("unknown confidence: %q", s)
	}
}

func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(text []byte) error {
	conf, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = conf
	return nil
}

// Finding represents a single security finding.
type Finding struct {
	ID          string     `json:"id"`
	RuleID      string     `json:"rule_id"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
	Detector    string     `json:"detector"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	FilePath    string     `json:"file_path"`
	StartLine   int        `json:"start_line"`
	EndLine     int        `json:"end_line"`
	Evidence    string     `json:"evidence"`
	Remediation string     `json:"remediation,omitempty"`
	CWE         string     `json:"cwe,omitempty"`
}

// FindingID derives the deterministic identity of a finding. Two findings
// with the same rule, path and start line always share an ID.
func FindingID(ruleID, filePath string, startLine int) string {
	h := sha256.New()
	h.Write([]byte(ruleID))
	h.Write([]byte{0})
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(startLine)))
	return "TATU-" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Summary holds per-severity counts of a finding sequence.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// NewSummary counts findings by severity.
func NewSummary(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}

// Count returns the number of findings with the given severity.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return 0
	}
}

// ScanReport holds the complete results of a scan.
type ScanReport struct {
	Version      string        `json:"version"`
	ScanID       string        `json:"scan_id"`
	Timestamp    string        `json:"timestamp"`
	Root         string        `json:"root"`
	FilesScanned int           `json:"files_scanned"`
	FilesSkipped int           `json:"files_skipped"`
	Detectors    []string      `json:"detectors"`
	RulesLoaded  int           `json:"rules_loaded"`
	Duration     time.Duration `json:"-"`
	Findings     []Finding     `json:"findings"`
	Summary      Summary       `json:"summary"`
}

// HasFindingsAtOrAbove reports whether any finding meets the threshold.
func (r *ScanReport) HasFindingsAtOrAbove(threshold Severity) bool {
	for _, f := range r.Findings {
		if f.Severity >= threshold {
			return true
		}
	}
	return false
}

// AtOrAbove returns a copy of the report restricted to findings at or above
// minSev. The summary is recomputed from the remaining findings.
func (r *ScanReport) AtOrAbove(minSev Severity) *ScanReport {
	out := *r
	out.Findings = make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		if f.Severity >= minSev {
			out.Findings = append(out.Findings, f)
		}
	}
	out.Summary = NewSummary(out.Findings)
	return &out
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	return json.Marshal(struct {
		Alias
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		DurationMS: r.Duration.Milliseconds(),
	})
}

// UnmarshalJSON restores Duration from duration_ms.
func (r *ScanReport) UnmarshalJSON(data []byte) error {
	type Alias ScanReport
	aux := struct {
		*Alias
		DurationMS int64 `json:"duration_ms"`
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Duration = time.Duration(aux.DurationMS) * time.Millisecond
	return nil
}
