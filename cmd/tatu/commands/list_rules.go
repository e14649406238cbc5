package commands

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/rules"
)

var flagDetector string

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List all available detection rules",
	Args:  cobra.NoArgs,
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagDetector, "detector", "", "Only list rules of this detector")
	rootCmd.AddCommand(listRulesCmd)
}

type ruleInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Confidence string `json:"confidence"`
	Detector   string `json:"detector"`
	CWE        string `json:"cwe,omitempty"`
}

func runListRules(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(config.Config{})
	if err != nil {
		return err
	}

	var compiled []*rules.CompiledRule
	if flagDetector != "" {
		d, ok := reg.Lookup(flagDetector)
		if !ok {
			return fmt.Errorf("unknown detector %q (available: %s)", flagDetector, strings.Join(reg.Names(), ", "))
		}
		compiled = slices.Clone(d.Rules())
	} else {
		compiled = reg.Rules()
	}
	slices.SortFunc(compiled, func(a, b *rules.CompiledRule) int {
		return cmp.Compare(a.ID, b.ID)
	})

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		infos := make([]ruleInfo, len(compiled))
		for i, r := range compiled {
			infos[i] = ruleInfo{
				ID:         r.ID,
				Title:      r.Title,
				Severity:   r.Severity.String(),
				Confidence: r.Confidence.String(),
				Detector:   r.Detector,
				CWE:        r.CWE,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTITLE\tSEVERITY\tDETECTOR\n")
	fmt.Fprintf(tw, "--\t-----\t--------\t--------\n")
	for _, r := range compiled {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Severity.String(), r.Detector)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rules loaded\n", len(compiled))

	return nil
}
