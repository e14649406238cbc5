package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/tatu/internal/types"
)

// MarkdownFormatter outputs findings as GitHub-flavored markdown,
// designed for GitHub Actions Job Summaries and PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, report *types.ScanReport) error {
	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "### :white_check_mark: tatu security scan: no issues found\n\n")
		fmt.Fprintf(w, "> %d files scanned · %.2fs\n", report.FilesScanned, report.Duration.Seconds())
		return nil
	}

	f.printSummary(w, report)
	f.printFindings(w, report.Findings)
	f.printFooter(w, report.Findings)
	return nil
}

func (f *MarkdownFormatter) printSummary(w io.Writer, report *types.ScanReport) {
	fmt.Fprintf(w, "### :rotating_light: tatu security scan: %d findings\n\n", report.Summary.Total)
	fmt.Fprintf(w, "> **Target:** `%s` · %d files · %.2fs\n\n",
		report.Root, report.FilesScanned, report.Duration.Seconds())

	var badges []string
	for _, sev := range types.Severities {
		if c := report.Summary.Count(sev); c > 0 {
			badges = append(badges, fmt.Sprintf("%s **%d %s**", severityEmoji(sev), c, sev.String()))
		}
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))
}

func (f *MarkdownFormatter) printFindings(w io.Writer, findings []types.Finding) {
	for _, sev := range types.Severities {
		filtered := filterBySeverity(findings, sev)
		if len(filtered) == 0 {
			continue
		}

		open := ""
		if sev >= types.SeverityHigh {
			open = " open"
		}
		fmt.Fprintf(w, "<details%s>\n", open)
		fmt.Fprintf(w, "<summary>%s <strong>%s (%d)</strong></summary>\n\n", severityEmoji(sev), sev.String(), len(filtered))
		fmt.Fprintf(w, "| Rule | Finding | File | Line |\n")
		fmt.Fprintf(w, "|------|---------|------|------|\n")

		for _, group := range groupByFile(filtered) {
			for _, finding := range group.findings {
				desc := escapeMarkdown(finding.Title)
				if finding.Evidence != "" {
					desc += fmt.Sprintf("<br><code>%s</code>", escapeMarkdown(truncate(finding.Evidence, 60)))
				}
				fmt.Fprintf(w, "| `%s` | %s | `%s` | L%d |\n",
					finding.RuleID, desc, finding.FilePath, finding.StartLine)
			}
		}
		fmt.Fprintf(w, "\n</details>\n\n")
	}
}

func (f *MarkdownFormatter) printFooter(w io.Writer, findings []types.Finding) {
	counts := countByFile(findings)
	if len(counts) > 1 {
		fmt.Fprintf(w, "**Top affected files:**\n\n")
		fmt.Fprintf(w, "| File | Findings |\n")
		fmt.Fprintf(w, "|------|----------|\n")
		for _, fc := range counts[:min(len(counts), topFiles)] {
			fmt.Fprintf(w, "| `%s` | %d |\n", fc.path, fc.count)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Scanned by [tatu](%s) %s*\n", ToolURI, ToolVersion)
}

func severityEmoji(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return ":red_circle:"
	case types.SeverityHigh:
		return ":orange_circle:"
	case types.SeverityMedium:
		return ":yellow_circle:"
	default:
		return ":blue_circle:"
	}
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", "\\|", "<", "&lt;", ">", "&gt;", "`", "'").Replace(s)
}
