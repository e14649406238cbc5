// Package meta turns the raw per-line findings of all detectors into the
// final, deduplicated and ranked finding sequence of a scan.
package meta

import (
	"cmp"
	"slices"

	"github.com/garagon/tatu/internal/types"
)

// Merge deduplicates findings by ID and sorts the survivors.
func Merge(findings []types.Finding) []types.Finding {
	result := Deduplicate(findings)
	Sort(result)
	return result
}

// Deduplicate removes findings whose ID was already seen, keeping the first
// occurrence. Missing IDs are derived from (RuleID, FilePath, StartLine).
func Deduplicate(findings []types.Finding) []types.Finding {
	seen := make(map[string]bool, len(findings))
	result := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if f.ID == "" {
			f.ID = types.FindingID(f.RuleID, f.FilePath, f.StartLine)
		}
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		result = append(result, f)
	}
	return result
}

// Sort orders findings by severity (highest first), then file path, start
// line, rule ID and ID.
func Sort(findings []types.Finding) {
	slices.SortStableFunc(findings, compare)
}

func compare(a, b types.Finding) int {
	if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := cmp.Compare(a.StartLine, b.StartLine); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RuleID, b.RuleID); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
