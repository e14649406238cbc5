package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garagon/tatu/internal/update"
)

func stubCheck(t *testing.T, res *update.Result) {
	t.Helper()
	orig := checkLatest
	checkLatest = func(context.Context, string) *update.Result { return res }
	t.Cleanup(func() { checkLatest = orig })
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "tatu dev (commit: none)\n", out)
}

func TestVersionCheck(t *testing.T) {
	tests := []struct {
		name string
		res  *update.Result
		want string
	}{
		{"unavailable", nil, "Could not check for updates."},
		{"newer", &update.Result{Latest: "v0.5.0", Current: "v0.4.0", UpdateURL: "go install x@latest"}, "A newer version is available: v0.5.0"},
		{"current", &update.Result{Latest: "v0.4.0", Current: "v0.4.0"}, "You are running the latest version."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubCheck(t, tt.res)
			out, err := execute(t, "version", "--check")
			require.NoError(t, err)
			require.Contains(t, out, tt.want)
		})
	}
}
