package meta_test

import (
	"math/rand"
	"testing"

	"github.com/garagon/tatu/internal/meta"
	"github.com/garagon/tatu/internal/types"
	"github.com/stretchr/testify/require"
)

func finding(rule, path string, line int, sev types.Severity) types.Finding {
	return types.Finding{
		ID:        types.FindingID(rule, path, line),
		RuleID:    rule,
		FilePath:  path,
		StartLine: line,
		EndLine:   line,
		Severity:  sev,
	}
}

func TestDeduplicateKeepsFirst(t *testing.T) {
	first := finding("R1", "a.py", 5, types.SeverityHigh)
	first.Evidence = "first"
	second := finding("R1", "a.py", 5, types.SeverityHigh)
	second.Evidence = "second"

	result := meta.Deduplicate([]types.Finding{first, second, finding("R2", "a.py", 10, types.SeverityLow)})
	require.Len(t, result, 2)
	require.Equal(t, "first", result[0].Evidence)
}

func TestDeduplicateDerivesMissingID(t *testing.T) {
	f := types.Finding{RuleID: "R1", FilePath: "a.py", StartLine: 3}
	result := meta.Deduplicate([]types.Finding{f, f})
	require.Len(t, result, 1)
	require.Equal(t, types.FindingID("R1", "a.py", 3), result[0].ID)
}

func TestMergeCollision(t *testing.T) {
	// Same rule, path and line from a re-run collapse into one finding.
	a := finding("SECRET_001", "config.py", 1, types.SeverityCritical)
	a.Detector = "secrets"
	b := a
	result := meta.Merge([]types.Finding{a, b})
	require.Len(t, result, 1)
}

func TestMergeOrdering(t *testing.T) {
	input := []types.Finding{
		finding("R3", "b.py", 1, types.SeverityLow),
		finding("R1", "b.py", 9, types.SeverityCritical),
		finding("R1", "a.py", 9, types.SeverityCritical),
		finding("R2", "a.py", 2, types.SeverityCritical),
		finding("R4", "a.py", 2, types.SeverityMedium),
		finding("R1", "a.py", 2, types.SeverityCritical),
	}

	result := meta.Merge(input)
	require.Len(t, result, 6)

	got := make([]string, 0, len(result))
	for _, f := range result {
		got = append(got, f.RuleID+"@"+f.FilePath)
	}
	require.Equal(t, []string{
		"R1@a.py", "R2@a.py", "R1@a.py", "R1@b.py", "R4@a.py", "R3@b.py",
	}, got)
	require.Equal(t, 2, result[0].StartLine)
	require.Equal(t, 9, result[2].StartLine)
	requireOrdered(t, result)
}

func TestMergeIdempotent(t *testing.T) {
	input := []types.Finding{
		finding("R1", "z.go", 4, types.SeverityLow),
		finding("R2", "a.go", 1, types.SeverityHigh),
		finding("R2", "a.go", 1, types.SeverityHigh),
		finding("R3", "m.go", 7, types.SeverityMedium),
	}
	once := meta.Merge(input)
	twice := meta.Merge(once)
	require.Equal(t, once, twice)
}

func TestMergeIndependentOfInputOrder(t *testing.T) {
	var input []types.Finding
	sevs := []types.Severity{types.SeverityLow, types.SeverityMedium, types.SeverityHigh, types.SeverityCritical}
	for i := range 40 {
		input = append(input, finding("R"+string(rune('A'+i%5)), "f"+string(rune('a'+i%7))+".py", i%9+1, sevs[i%4]))
	}
	want := meta.Merge(input)

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		shuffled := append([]types.Finding(nil), input...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, want, meta.Merge(shuffled))
	}
	requireOrdered(t, want)
}

func TestMergeEmpty(t *testing.T) {
	require.Empty(t, meta.Merge(nil))
}

func requireOrdered(t *testing.T, findings []types.Finding) {
	t.Helper()
	for i := 1; i < len(findings); i++ {
		prev, cur := findings[i-1], findings[i]
		require.GreaterOrEqual(t, prev.Severity, cur.Severity)
		if prev.Severity == cur.Severity {
			require.LessOrEqual(t, prev.FilePath, cur.FilePath)
			if prev.FilePath == cur.FilePath {
				require.LessOrEqual(t, prev.StartLine, cur.StartLine)
			}
		}
	}
}
