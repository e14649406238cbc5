package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/types"
)

var explainCmd = &cobra.Command{
	Use:   "explain <RULE_ID>",
	Short: "Show detailed information about a detection rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

type explainInfo struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Detector       string   `json:"detector"`
	Severity       string   `json:"severity"`
	Confidence     string   `json:"confidence"`
	CWE            string   `json:"cwe,omitempty"`
	Description    string   `json:"description"`
	Remediation    string   `json:"remediation,omitempty"`
	Applies        string   `json:"applies_to"`
	Pattern        string   `json:"pattern"`
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	ruleID := strings.ToUpper(strings.TrimSpace(args[0]))

	reg, err := loadRegistry(config.Config{})
	if err != nil {
		return err
	}
	found, ok := reg.Rule(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	applies := found.Filter.Kind.String()
	if len(found.Filter.Languages) > 0 {
		langs := make([]string, len(found.Filter.Languages))
		for i, l := range found.Filter.Languages {
			langs[i] = l.String()
		}
		applies = strings.Join(langs, ", ")
	}

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		info := explainInfo{
			ID:             found.ID,
			Title:          found.Title,
			Detector:       found.Detector,
			Severity:       found.Severity.String(),
			Confidence:     found.Confidence.String(),
			CWE:            found.CWE,
			Description:    found.Description,
			Remediation:    found.Remediation,
			Applies:        applies,
			Pattern:        found.Pattern.String(),
			TruePositives:  found.Examples.TruePositive,
			FalsePositives: found.Examples.FalsePositive,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	paint := func(text string, attrs ...color.Attribute) string {
		c := color.New(attrs...)
		if flagNoColor {
			c.DisableColor()
		}
		return c.Sprint(text)
	}

	sevAttrs := []color.Attribute{color.FgCyan}
	switch found.Severity {
	case types.SeverityCritical:
		sevAttrs = []color.Attribute{color.FgRed, color.Bold}
	case types.SeverityHigh:
		sevAttrs = []color.Attribute{color.FgRed}
	case types.SeverityMedium:
		sevAttrs = []color.Attribute{color.FgYellow}
	}

	fmt.Fprintf(w, "\n%s %s\n", paint("Rule:", color.Faint), paint(found.ID, color.Bold))
	fmt.Fprintf(w, "%s %s\n", paint("Title:", color.Faint), found.Title)
	fmt.Fprintf(w, "%s %s\n", paint("Detector:", color.Faint), found.Detector)
	fmt.Fprintf(w, "%s %s\n", paint("Severity:", color.Faint), paint(found.Severity.String(), sevAttrs...))
	fmt.Fprintf(w, "%s %s\n", paint("Confidence:", color.Faint), found.Confidence.String())
	if found.CWE != "" {
		fmt.Fprintf(w, "%s %s\n", paint("CWE:", color.Faint), found.CWE)
	}
	fmt.Fprintf(w, "%s %s\n", paint("Applies to:", color.Faint), applies)

	if found.Description != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", paint("Description:", color.Bold), found.Description)
	}
	if found.Remediation != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", paint("Remediation:", color.Bold), found.Remediation)
	}

	fmt.Fprintf(w, "\n%s\n  %s\n", paint("Pattern:", color.Bold), paint(found.Pattern.String(), color.Faint))

	if len(found.Examples.TruePositive) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("True Positives:", color.Bold))
		for _, ex := range found.Examples.TruePositive {
			fmt.Fprintf(w, "  %s %s\n", paint("✖", color.FgRed), ex)
		}
	}

	if len(found.Examples.FalsePositive) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("False Positives:", color.Bold))
		for _, ex := range found.Examples.FalsePositive {
			fmt.Fprintf(w, "  %s %s\n", paint("✔", color.FgGreen), ex)
		}
	}

	fmt.Fprintln(w)
	return nil
}
