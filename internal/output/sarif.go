package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/garagon/tatu/internal/types"
)

// SARIFFormatter outputs findings in SARIF 2.1.0 format for GitHub Code Scanning.
type SARIFFormatter struct{}

func (f *SARIFFormatter) Format(w io.Writer, report *types.ScanReport) error {
	doc, err := ToSARIF(report)
	if err != nil {
		return err
	}
	if err := doc.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing sarif: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// ToSARIF converts a report to a SARIF document with one run. Each distinct
// rule is described once; every finding becomes a result pointing at it.
func ToSARIF(report *types.ScanReport) (*sarif.Report, error) {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("tatu", ToolURI)
	run.Tool.Driver.WithVersion(ToolVersion)

	ruleIndex := map[string]int{}
	for _, finding := range report.Findings {
		if _, ok := ruleIndex[finding.RuleID]; !ok {
			ruleIndex[finding.RuleID] = len(ruleIndex)
			addRule(run, finding)
		}

		message := finding.Title
		if finding.Description != "" {
			message = finding.Title + ": " + finding.Description
		}
		result := sarif.NewRuleResult(finding.RuleID).
			WithRuleIndex(ruleIndex[finding.RuleID]).
			WithLevel(sarifLevel(finding.Severity)).
			WithMessage(sarif.NewTextMessage(message)).
			WithPartialFingerPrints(map[string]interface{}{"tatu/v1": finding.ID})

		region := sarif.NewRegion().
			WithStartLine(finding.StartLine).
			WithEndLine(finding.EndLine)
		if finding.Evidence != "" {
			region.WithSnippet(sarif.NewArtifactContent().WithText(finding.Evidence))
		}
		loc := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewSimpleArtifactLocation(finding.FilePath)).
			WithRegion(region)
		result.WithLocations([]*sarif.Location{sarif.NewLocationWithPhysicalLocation(loc)})

		run.AddResult(result)
	}

	doc.AddRun(run)
	return doc, nil
}

func addRule(run *sarif.Run, finding types.Finding) {
	rule := run.AddRule(finding.RuleID).
		WithName(ruleName(finding.Title)).
		WithDescription(finding.Title).
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(sarifLevel(finding.Severity)))
	if finding.Description != "" {
		rule.WithFullDescription(sarif.NewMultiformatMessageString(finding.Description))
	}
	if finding.Remediation != "" {
		rule.WithTextHelp(finding.Remediation)
	}

	tags := []string{"security", finding.Detector}
	if finding.CWE != "" {
		tags = append(tags, "external/cwe/"+strings.ToLower(finding.CWE))
	}
	rule.WithProperties(sarif.Properties{
		"tags":              tags,
		"security-severity": securitySeverity(finding.Severity),
	})
}

// ruleName turns a title into the PascalCase identifier SARIF viewers expect.
func ruleName(title string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(title, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	}) {
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	return b.String()
}

func sarifLevel(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// securitySeverity maps to the CVSS-like score GitHub uses to rank alerts.
func securitySeverity(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return "9.5"
	case types.SeverityHigh:
		return "8.0"
	case types.SeverityMedium:
		return "5.5"
	default:
		return "3.0"
	}
}
