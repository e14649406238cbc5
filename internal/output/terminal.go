package output

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/garagon/tatu/internal/types"
)

const (
	barWidth     = 40
	lineWidth    = 72
	ruleIDWidth  = 14
	titleWidth   = 36
	previewWidth = 68
	topFiles     = 5
)

// TerminalFormatter outputs findings grouped by severity and file.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if f.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.Sprint(text)
}

func (f *TerminalFormatter) Format(w io.Writer, report *types.ScanReport) error {
	f.printHeader(w, report)

	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "\n  %s No security issues found.\n", f.paint("✔", color.FgGreen))
	} else {
		f.printDashboard(w, report.Summary)
		for _, sev := range types.Severities {
			filtered := filterBySeverity(report.Findings, sev)
			if len(filtered) > 0 {
				f.printSeveritySection(w, sev, filtered)
			}
		}
		f.printTopFiles(w, report.Findings)
	}

	f.printFooter(w, report)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, report *types.ScanReport) {
	sep := f.paint(f.separator(), color.Faint)
	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  %s\n", f.paint("TATU SCAN RESULTS", color.Bold))

	var parts []string
	if report.Root != "" {
		parts = append(parts, "Target: "+report.Root)
	}
	parts = append(parts, fmt.Sprintf("%d files", report.FilesScanned))
	parts = append(parts, fmt.Sprintf("%d detectors", len(report.Detectors)))
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", sep)
}

func (f *TerminalFormatter) printDashboard(w io.Writer, s types.Summary) {
	peak := 0
	for _, sev := range types.Severities {
		peak = max(peak, s.Count(sev))
	}
	if peak == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, sev := range types.Severities {
		c := s.Count(sev)
		if c == 0 {
			continue
		}
		label := f.paint(fmt.Sprintf("  %-10s", sev.String()), color.Bold)
		fmt.Fprintf(w, "%s %s %4d\n", label, f.renderBar(c, peak, sev), c)
	}
	fmt.Fprintf(w, "\n  %s\n", f.paint(fmt.Sprintf("%d findings", s.Total), color.Bold))
}

func (f *TerminalFormatter) printSeveritySection(w io.Writer, sev types.Severity, findings []types.Finding) {
	header := f.sectionHeader(fmt.Sprintf("%s (%d)", sev.String(), len(findings)))
	fmt.Fprintf(w, "\n%s\n", f.paint(header, color.Bold))

	for _, group := range groupByFile(findings) {
		fmt.Fprintf(w, "\n  %s\n", f.paint(group.filePath, color.Bold, color.Underline))
		for _, finding := range group.findings {
			f.printFinding(w, finding, sev >= types.SeverityHigh)
		}
	}
}

// printFinding writes one finding line. Expanded findings also show their
// evidence; verbose output adds the description and remediation.
func (f *TerminalFormatter) printFinding(w io.Writer, finding types.Finding, expanded bool) {
	ruleID := fmt.Sprintf("%-*s", ruleIDWidth, finding.RuleID)
	title := fmt.Sprintf("%-*s", titleWidth, truncate(finding.Title, titleWidth))
	location := fmt.Sprintf("%s:%d", finding.FilePath, finding.StartLine)

	fmt.Fprintf(w, "    %s %s %s %s\n",
		f.severityIcon(finding.Severity),
		f.paint(ruleID, color.Bold),
		title,
		f.paint(location, color.FgCyan),
	)

	bar := f.paint("│", color.Faint)
	if (expanded || f.Verbose) && finding.Evidence != "" {
		fmt.Fprintf(w, "      %s %s\n", bar, f.paint(truncate(finding.Evidence, previewWidth), color.Faint))
	}
	if !f.Verbose {
		return
	}
	if finding.Description != "" {
		fmt.Fprintf(w, "      %s %s\n", bar, f.paint(finding.Description, color.FgYellow))
	}
	if finding.Remediation != "" {
		fmt.Fprintf(w, "      %s %s %s\n", bar, f.paint("fix:", color.FgGreen), finding.Remediation)
	}
	if finding.CWE != "" {
		fmt.Fprintf(w, "      %s %s\n", bar, f.paint(finding.CWE, color.Faint))
	}
}

func (f *TerminalFormatter) printTopFiles(w io.Writer, findings []types.Finding) {
	counts := countByFile(findings)
	if len(counts) < 2 {
		return
	}

	fmt.Fprintf(w, "\n%s\n\n", f.paint(f.sectionHeader("TOP AFFECTED FILES"), color.Bold))
	for _, fc := range counts[:min(len(counts), topFiles)] {
		fmt.Fprintf(w, "  %4d  %s\n", fc.count, fc.path)
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, report *types.ScanReport) {
	sep := f.paint(f.separator(), color.Faint)
	fmt.Fprintf(w, "\n%s\n", sep)

	parts := []string{
		fmt.Sprintf("%d files scanned", report.FilesScanned),
		fmt.Sprintf("%d skipped", report.FilesSkipped),
		fmt.Sprintf("%d findings", len(report.Findings)),
	}
	if report.RulesLoaded > 0 {
		parts = append(parts, fmt.Sprintf("%d rules", report.RulesLoaded))
	}
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s\n", sep)
}

func severityAttrs(sev types.Severity) []color.Attribute {
	switch sev {
	case types.SeverityCritical:
		return []color.Attribute{color.FgRed, color.Bold}
	case types.SeverityHigh:
		return []color.Attribute{color.FgRed}
	case types.SeverityMedium:
		return []color.Attribute{color.FgYellow}
	default:
		return []color.Attribute{color.FgBlue}
	}
}

func (f *TerminalFormatter) severityIcon(sev types.Severity) string {
	icon := map[types.Severity]string{
		types.SeverityCritical: "✖",
		types.SeverityHigh:     "▲",
		types.SeverityMedium:   "■",
		types.SeverityLow:      "●",
	}[sev]
	if icon == "" {
		icon = "?"
	}
	return f.paint(icon, severityAttrs(sev)...)
}

func (f *TerminalFormatter) renderBar(count, peak int, sev types.Severity) string {
	filled := count * barWidth / peak
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Keep one empty block so the bar boundary stays visible.
	if filled >= barWidth {
		filled = barWidth - 1
	}
	return f.paint(strings.Repeat("█", filled), severityAttrs(sev)...) +
		f.paint(strings.Repeat("░", barWidth-filled), color.Faint)
}

func filterBySeverity(findings []types.Finding, sev types.Severity) []types.Finding {
	var result []types.Finding
	for _, f := range findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}
	return result
}

// truncate flattens whitespace and shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	s = strings.NewReplacer("\n", " ", "\r", "", "\t", " ").Replace(s)
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

type fileGroup struct {
	filePath string
	findings []types.Finding
}

// groupByFile groups findings by path, keeping first-appearance order.
func groupByFile(findings []types.Finding) []fileGroup {
	var groups []fileGroup
	index := map[string]int{}
	for _, f := range findings {
		i, ok := index[f.FilePath]
		if !ok {
			i = len(groups)
			index[f.FilePath] = i
			groups = append(groups, fileGroup{filePath: f.FilePath})
		}
		groups[i].findings = append(groups[i].findings, f)
	}
	return groups
}

type fileCount struct {
	path  string
	count int
}

// countByFile returns per-file totals, most findings first.
func countByFile(findings []types.Finding) []fileCount {
	byPath := map[string]int{}
	for _, f := range findings {
		byPath[f.FilePath]++
	}
	out := make([]fileCount, 0, len(byPath))
	for p, c := range byPath {
		out = append(out, fileCount{p, c})
	}
	slices.SortFunc(out, func(a, b fileCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})
	return out
}
